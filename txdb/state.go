// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

// Store is a single wallet's transaction database. It owns no KV
// transaction of its own: every write entry point is handed a
// walletdb.ReadWriteBucket that already lives inside a transaction the
// caller (the wallet, or the external walletdb) controls. Mutual
// exclusion across concurrent writers to the same wallet is the caller's
// responsibility; Store only guarantees that a single call's writes are
// all-or-nothing.
type Store struct {
	wid uint32

	resolver PathResolver
	dir      WalletDirectory
	events   *Events
	opts     Options

	cache   *coinCache
	orphans *orphanTracker
	locked  map[Outpoint]struct{}

	state TXDBState // committed
	b     *batch    // non-nil while a write entry point is in progress
}

// batch is the pending draft a single write entry point mutates. Every
// KV mutation is staged in ops rather than applied immediately, so that a
// body that errors partway through can be unwound with drop without the
// caller's surrounding walletdb transaction having to be rolled back
// itself, and so that clear can discard a no-op call's bare writes without
// discarding the whole outer transaction.
type batch struct {
	state  TXDBState
	ops    []kvOp
	events []bufferedEvent
}

type kvOp struct {
	key   []byte
	value []byte
	del   bool
}

// NewStore constructs a Store for wallet wid. Callers must call Open
// before issuing any write entry point, to load the committed state
// record.
func NewStore(wid uint32, resolver PathResolver, dir WalletDirectory, events *Events, opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		wid:      wid,
		resolver: resolver,
		dir:      dir,
		events:   events,
		opts:     opts,
		cache:    newCoinCache(opts.CacheSize),
		locked:   make(map[Outpoint]struct{}),
	}
	if opts.Resolution {
		s.orphans = newOrphanTracker(opts.OrphanCap)
	}
	return s
}

// Open loads the committed TXDBState for the wallet, or leaves it zeroed
// if this is a freshly created wallet with no state record yet.
func (s *Store) Open(ns ReadBucket) error {
	v := ns.Get(keyState(s.wid))
	if v == nil {
		s.state = TXDBState{}
		return nil
	}
	state, err := DecodeTXDBState(v)
	if err != nil {
		return err
	}
	s.state = state
	return nil
}

// State returns the last committed TXDBState.
func (s *Store) State() TXDBState { return s.state }

// start opens a new batch, cloning the committed state into a pending
// draft and snapshotting the coin cache.
func (s *Store) start() {
	assert(s.b == nil, "start called with a batch already open")
	s.b = &batch{state: s.state.clone()}
	s.cache.start()
}

// put stages a KV write to be applied on commit.
func (s *Store) put(key, value []byte) {
	s.b.ops = append(s.b.ops, kvOp{key: key, value: value})
}

// del stages a KV delete to be applied on commit.
func (s *Store) del(key []byte) {
	s.b.ops = append(s.b.ops, kvOp{key: key, del: true})
}

// emit buffers an event to be published only after a successful commit.
func (s *Store) emit(topic string, args ...interface{}) {
	s.b.events = append(s.b.events, bufferedEvent{topic: topic, args: args})
}

// clear un-stages every KV write and event buffered so far in the current
// batch, without ending the batch or touching the pending state counters.
// Used when a transaction's body determines partway through that nothing
// about it concerns this wallet.
func (s *Store) clear() {
	s.b.ops = nil
	s.b.events = nil
}

// drop discards the current batch entirely: staged writes, buffered
// events, and the pending state draft all vanish, and the coin cache's
// pending overlay is rolled back. Committed state is left untouched.
func (s *Store) drop() {
	s.cache.drop()
	s.b = nil
}

// commit flushes the batch's staged writes to ns in order, and on success
// replaces the committed state with the pending draft, publishes buffered
// events in order, and commits the coin cache overlay. On any KV failure
// the batch is dropped and the error is returned; committed state is left
// untouched.
func (s *Store) commit(ns Bucket) error {
	b := s.b
	s.put(keyState(s.wid), b.state.Bytes())
	for _, op := range b.ops {
		var err error
		if op.del {
			err = ns.Delete(op.key)
		} else {
			err = ns.Put(op.key, op.value)
		}
		if err != nil {
			s.drop()
			return storeError(ErrDatabase, "failed to commit txdb batch", err)
		}
	}

	s.state = b.state
	s.cache.commit()
	s.b = nil

	if s.events != nil {
		for _, ev := range b.events {
			s.events.publish(ev.topic, ev.args...)
		}
	}
	return nil
}

// Counter mutation helpers. These operate on the pending draft only; they
// never touch s.state directly, so a dropped batch can never corrupt
// committed counters.

func (b *batch) incTx()   { b.state.TxCount++ }
func (b *batch) decTx()   { assert(b.state.TxCount > 0, "tx_count underflow"); b.state.TxCount-- }
func (b *batch) incCoin() { b.state.CoinCount++ }
func (b *batch) decCoin() {
	assert(b.state.CoinCount > 0, "coin_count underflow")
	b.state.CoinCount--
}

func (b *batch) addUnconfirmed(v int64) {
	n := int64(b.state.Unconfirmed) + v
	assert(n >= 0, "unconfirmed balance underflow")
	b.state.Unconfirmed = uint64(n)
}

func (b *batch) addConfirmed(v int64) {
	n := int64(b.state.Confirmed) + v
	assert(n >= 0, "confirmed balance underflow")
	b.state.Confirmed = uint64(n)
}

// isLocked reports whether outpoint op is currently locked.
func (s *Store) isLocked(op Outpoint) bool {
	_, ok := s.locked[op]
	return ok
}

// filterLocked returns coins with every locked outpoint removed.
func filterLocked(s *Store, coins []Coin) []Coin {
	out := coins[:0:0]
	for _, c := range coins {
		if !s.isLocked(c.Outpoint) {
			out = append(out, c)
		}
	}
	return out
}
