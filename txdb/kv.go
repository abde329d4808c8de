// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// balanceFromState projects a TXDBState's raw satoshi counters into the
// externally visible Balance shape.
func balanceFromState(st TXDBState) Balance {
	return Balance{
		TxCount:     st.TxCount,
		CoinCount:   st.CoinCount,
		Unconfirmed: btcutil.Amount(st.Unconfirmed),
		Confirmed:   btcutil.Amount(st.Confirmed),
	}
}

// getTX fetches and decodes the extended tx record for hash, or nil if the
// wallet has not indexed it.
func (s *Store) getTX(ns ReadBucket, hash chainhash.Hash) (*extTX, error) {
	v := ns.Get(keyTx(s.wid, &hash))
	if v == nil {
		return nil, nil
	}
	tx, err := decodeExtTX(hash, v)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// getCredit fetches and decodes the credit at (hash, index). Inside a
// write batch it consults the coin cache (pending writes included) before
// falling back to the KV store; outside one it reads the KV store and
// populates the cache. A nil result means no credit is indexed there, not
// an error.
func (s *Store) getCredit(ns ReadBucket, hash chainhash.Hash, index uint32) (*Credit, error) {
	ckey := coinCacheKey(hash, index)
	if s.b != nil {
		if v, ok := s.cache.get(ckey); ok {
			credit, err := DecodeCredit(v)
			if err != nil {
				return nil, err
			}
			credit.Coin.Outpoint = Outpoint{Hash: hash, Index: index}
			return &credit, nil
		}
	}
	v := ns.Get(keyCredit(s.wid, &hash, index))
	if v == nil {
		return nil, nil
	}
	credit, err := DecodeCredit(v)
	if err != nil {
		return nil, err
	}
	credit.Coin.Outpoint = Outpoint{Hash: hash, Index: index}
	if s.b == nil {
		s.cache.set(ckey, v)
	}
	return &credit, nil
}

// resolveAccount resolves script to the wallet account that owns it, if
// any.
func (s *Store) resolveAccount(script []byte) (uint32, bool) {
	_, path, ok, err := s.resolver.GetPath(script)
	if err != nil || !ok || path == nil {
		return 0, false
	}
	return path.Account, true
}

// saveCredit stages a write of credit at (hash, index) into both the c
// primary index and, if the output is attributable to a wallet account,
// the C secondary index, along with the matching coin-cache push, and
// registers this wallet against the outpoint in the global directory so
// the cross-wallet outpoint index stays in sync with every wallet's own
// credit set.
func (s *Store) saveCredit(hash chainhash.Hash, index uint32, credit *Credit) error {
	v := credit.Bytes()
	s.put(keyCredit(s.wid, &hash, index), v)
	s.cache.push(coinCacheKey(hash, index), v)
	if acct, ok := s.resolveAccount(credit.Coin.Script); ok {
		s.put(keyAcctCredit(s.wid, acct, &hash, index), v)
	}

	m, err := s.dir.GetOutpointMap(hash, index)
	if err != nil {
		return err
	}
	if m == nil {
		m = make(OutpointMap)
	}
	m[s.wid] = struct{}{}
	return s.dir.WriteOutpointMap(s.wid, hash, index, m)
}

// removeCredit stages a delete of the credit at (hash, index) from the c
// and (if attributable) C indexes, unpushes it from the coin cache, and
// drops this wallet's registration against the outpoint in the global
// directory.
func (s *Store) removeCredit(hash chainhash.Hash, index uint32, credit *Credit) error {
	s.del(keyCredit(s.wid, &hash, index))
	s.cache.unpush(coinCacheKey(hash, index))
	if acct, ok := s.resolveAccount(credit.Coin.Script); ok {
		s.del(keyAcctCredit(s.wid, acct, &hash, index))
	}
	return s.dir.UnwriteOutpointMap(s.wid, hash, index)
}

// spendCredit records that prevout (prevHash, prevIndex) — carried by
// credit — has been spent by input spenderIndex of spenderHash: writes
// the s marker (prevout -> spender outpoint) and snapshots credit as an
// undo coin keyed by the spender's own outpoint, so a later disconnect or
// erase can restore it.
func (s *Store) spendCredit(prevHash chainhash.Hash, prevIndex uint32, spenderHash chainhash.Hash, spenderIndex uint32, credit *Credit) {
	s.put(keySpent(s.wid, &prevHash, prevIndex),
		Outpoint{Hash: spenderHash, Index: spenderIndex}.Bytes())
	undo := *credit
	undo.Spent = false
	s.saveUndo(spenderHash, spenderIndex, &undo)
}

// saveUndo rewrites the undo coin kept under the spender's own outpoint,
// without touching the s marker. Used to keep an undo coin's recorded
// height in sync as the spending tx confirms or disconnects.
func (s *Store) saveUndo(spenderHash chainhash.Hash, spenderIndex uint32, credit *Credit) {
	s.put(keyUndo(s.wid, &spenderHash, spenderIndex), credit.Bytes())
}

// getUndo fetches the undo coin kept under outpoint (spenderHash,
// spenderIndex), i.e. the snapshot of whatever this input spent.
func (s *Store) getUndo(ns ReadBucket, spenderHash chainhash.Hash, spenderIndex uint32) (*Credit, error) {
	v := ns.Get(keyUndo(s.wid, &spenderHash, spenderIndex))
	if v == nil {
		return nil, nil
	}
	credit, err := DecodeCredit(v)
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// undoByOutput is an undo coin reached by walking backward from the
// output it used to belong to, rather than forward from the spender.
type undoByOutput struct {
	Credit
	spenderHash  chainhash.Hash
	spenderIndex uint32
}

// getUndoByOutput finds the undo coin for output (hash, index), if that
// output has been spent and an undo coin was recorded for the spend. It
// follows the s marker on (hash, index) to find the spender outpoint, then
// reads the undo coin kept under that outpoint.
func (s *Store) getUndoByOutput(ns ReadBucket, hash chainhash.Hash, index uint32) (*undoByOutput, error) {
	v := ns.Get(keySpent(s.wid, &hash, index))
	if v == nil {
		return nil, nil
	}
	spenderOp, err := DecodeOutpoint(v)
	if err != nil {
		return nil, err
	}
	credit, err := s.getUndo(ns, spenderOp.Hash, spenderOp.Index)
	if err != nil {
		return nil, err
	}
	if credit == nil {
		return nil, nil
	}
	return &undoByOutput{Credit: *credit, spenderHash: spenderOp.Hash, spenderIndex: spenderOp.Index}, nil
}

// getSpentCredits range-scans the d[hash, *] undo coins kept under tx
// hash's own outpoint space, i.e. the credits each of hash's inputs spent
// and already recorded an undo coin for, returned aligned with hash's
// input list (nil entries mean that input has no recorded undo coin yet).
func (s *Store) getSpentCredits(ns ReadBucket, hash chainhash.Hash) ([]*Credit, error) {
	prefix := walletKey(s.wid, tagUndo, hash[:])
	cur := ns.ReadCursor()
	out := make([]*Credit, 0)
	for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
		_, idx := parseOutpointSuffix(keySuffix(k))
		credit, err := DecodeCredit(v)
		if err != nil {
			return nil, err
		}
		for uint32(len(out)) <= idx {
			out = append(out, nil)
		}
		out[idx] = &credit
	}
	return out, nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// addToBlock records hash as belonging to block: updates the per-wallet
// block record (creating it on the first confirmed tx at this height) and
// the global BlockMap collaborator.
func (s *Store) addToBlock(ns ReadBucket, block BlockMeta, hash chainhash.Hash) error {
	rec, err := s.getBlockRecord(ns, block.Height)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &BlockRecord{Hash: block.Hash, Height: block.Height, Time: block.Time}
	}
	rec.Transactions = append(rec.Transactions, hash)
	s.put(keyBlock(s.wid, block.Height), rec.Bytes())

	m, err := s.dir.GetBlockMap(block.Height)
	if err != nil {
		return err
	}
	if m == nil {
		m = make(BlockMap)
	}
	m[s.wid] = struct{}{}
	return s.dir.WriteBlockMap(s.wid, block.Height, m)
}

// removeFromBlock reverses addToBlock: drops hash from the wallet's block
// record (deleting the record entirely if it becomes empty) and from the
// global BlockMap.
func (s *Store) removeFromBlock(ns ReadBucket, block BlockMeta, hash chainhash.Hash) error {
	rec, err := s.getBlockRecord(ns, block.Height)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if rec.removeTx(hash) {
		s.del(keyBlock(s.wid, block.Height))
		if err := s.dir.UnwriteBlockMap(s.wid, block.Height); err != nil {
			return err
		}
	} else {
		s.put(keyBlock(s.wid, block.Height), rec.Bytes())
	}
	return nil
}

func (s *Store) getBlockRecord(ns ReadBucket, height int32) (*BlockRecord, error) {
	v := ns.Get(keyBlock(s.wid, height))
	if v == nil {
		return nil, nil
	}
	rec, err := DecodeBlockRecord(v)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// pendingBalance projects the in-progress batch's pending TXDBState into
// a Balance, for inclusion in a buffered balance event.
func (s *Store) pendingBalance() Balance {
	st := s.b.state
	return balanceFromState(st)
}

// accountsForTx resolves the set of wallet accounts tx touches, by
// resolving each output's script directly and each input's script from
// its undo coin (the credit it spent still carries the owning script even
// after the credit itself has been removed).
func (s *Store) accountsForTx(ns ReadBucket, hash chainhash.Hash, tx *wire.MsgTx) ([]uint32, error) {
	var accts []uint32
	if !isCoinbaseTx(tx) {
		for i := range tx.TxIn {
			undo, err := s.getUndo(ns, hash, uint32(i))
			if err != nil {
				return nil, err
			}
			if undo == nil {
				continue
			}
			if acct, ok := s.resolveAccount(undo.Coin.Script); ok {
				accts = appendUniqueUint32(accts, acct)
			}
		}
	}
	for _, out := range tx.TxOut {
		if acct, ok := s.resolveAccount(out.PkScript); ok {
			accts = appendUniqueUint32(accts, acct)
		}
	}
	return accts, nil
}

func appendUniqueUint32(accts []uint32, acct uint32) []uint32 {
	for _, a := range accts {
		if a == acct {
			return accts
		}
	}
	accts = append(accts, acct)
	for i := len(accts) - 1; i > 0 && accts[i-1] > accts[i]; i-- {
		accts[i-1], accts[i] = accts[i], accts[i-1]
	}
	return accts
}
