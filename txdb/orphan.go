// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// orphanInput is one unresolved input of an ingested transaction, held
// back because its previous output hasn't been indexed yet. SPV mode
// only: without full blocks, a wallet cannot always tell an input is ours
// until the output it spends shows up.
type orphanInput struct {
	tx         *extTX
	inputIndex uint32
	block      *BlockMeta // nil if tx arrived as a mempool transaction
}

// orphanTracker is the in-memory, many-to-one adjacency from a not-yet-seen
// prevout to every orphaned input waiting on it, plus a per-tx counter so a
// transaction can tell when its last orphaned input has resolved. The
// global count is capped; a wallet fed more orphans than the cap can hold
// is as likely under attack as it is lagging behind the chain, so the
// whole table is purged rather than letting it grow unbounded.
type orphanTracker struct {
	cap int

	byPrevout map[string][]*orphanInput
	remaining map[chainhash.Hash]int
	total     int
}

func newOrphanTracker(cap int) *orphanTracker {
	if cap <= 0 {
		cap = defaultOrphanCap
	}
	return &orphanTracker{
		cap:       cap,
		byPrevout: make(map[string][]*orphanInput),
		remaining: make(map[chainhash.Hash]int),
	}
}

// add registers tx's input at inputIndex as orphaned on prevout. Reports
// purged=true if adding this entry pushed the tracker over its cap and the
// whole table was reset as a result (the entry just added included).
func (o *orphanTracker) add(prevout Outpoint, tx *extTX, inputIndex uint32, block *BlockMeta) (purged bool) {
	if o.total+1 > o.cap {
		log.Warnf("orphan tracker exceeded cap of %d, purging", o.cap)
		o.purge()
		return true
	}
	key := coinCacheKey(prevout.Hash, prevout.Index)
	o.byPrevout[key] = append(o.byPrevout[key], &orphanInput{
		tx:         tx,
		inputIndex: inputIndex,
		block:      block,
	})
	o.remaining[tx.Hash]++
	o.total++
	return false
}

// resolve pops and returns every orphan waiting on prevout, decrementing
// each owning tx's remaining count. Callers should re-attempt indexing of
// any tx whose remaining count reaches zero.
func (o *orphanTracker) resolve(prevout Outpoint) []*orphanInput {
	key := coinCacheKey(prevout.Hash, prevout.Index)
	entries, ok := o.byPrevout[key]
	if !ok {
		return nil
	}
	delete(o.byPrevout, key)
	for _, e := range entries {
		o.remaining[e.tx.Hash]--
		if o.remaining[e.tx.Hash] <= 0 {
			delete(o.remaining, e.tx.Hash)
		}
		o.total--
	}
	return entries
}

// resolved reports whether every orphaned input of hash has been resolved.
func (o *orphanTracker) resolved(hash chainhash.Hash) bool {
	_, pending := o.remaining[hash]
	return !pending
}

// purge discards every tracked orphan.
func (o *orphanTracker) purge() {
	o.byPrevout = make(map[string][]*orphanInput)
	o.remaining = make(map[chainhash.Hash]int)
	o.total = 0
}
