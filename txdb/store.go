// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// LockOutpoint freezes op so it is excluded from GetCoins/GetAccountCoins
// until explicitly unlocked or the process restarts. Locks are in-memory
// only and are never persisted.
func (s *Store) LockOutpoint(op Outpoint) {
	s.locked[op] = struct{}{}
}

// UnlockOutpoint reverses a prior LockOutpoint.
func (s *Store) UnlockOutpoint(op Outpoint) {
	delete(s.locked, op)
}

// UnlockAllOutpoints releases every locked outpoint.
func (s *Store) UnlockAllOutpoints() {
	s.locked = make(map[Outpoint]struct{})
}

// IsLockedOutpoint reports whether op is currently locked.
func (s *Store) IsLockedOutpoint(op Outpoint) bool {
	return s.isLocked(op)
}

// GetTX returns the extended tx record for hash, or nil if the wallet has
// not indexed it.
func (s *Store) GetTX(ns ReadBucket, hash chainhash.Hash) (*extTXView, error) {
	tx, err := s.getTX(ns, hash)
	if err != nil || tx == nil {
		return nil, err
	}
	return (*extTXView)(tx), nil
}

// extTXView is the exported read-only view of an indexed transaction. Its
// fields (MsgTx, Hash, PS, Height, BlockHash, BlockTime, Index) are the
// same as the internal extTX it wraps.
type extTXView extTX

// IsMempool reports whether the transaction has not yet been confirmed.
func (t *extTXView) IsMempool() bool { return t.Height == mempoolHeight }

// ForEachTx walks every indexed transaction for the wallet in hash order,
// calling f with each one in turn. It stops and returns f's error as soon
// as f returns a non-nil one. This is the bulk-reload seam an external
// rescanner uses to replay Add/Confirm calls against a fresh backend
// without its own cursor over the t-prefixed primary index.
func (s *Store) ForEachTx(ns ReadBucket, f func(*extTXView) error) error {
	prefix := walletPrefixKey(s.wid, tagTx)
	cur := ns.ReadCursor()
	for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
		hash := parseHashKey(k)
		tx, err := decodeExtTX(hash, v)
		if err != nil {
			return err
		}
		if err := f((*extTXView)(tx)); err != nil {
			return err
		}
	}
	return nil
}
