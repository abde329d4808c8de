// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// scanHashKeys collects every hash under a prefix whose suffix is just the
// 32-byte hash (t, p).
func (s *Store) scanHashKeys(ns ReadBucket, prefix []byte) ([]chainhash.Hash, error) {
	cur := ns.ReadCursor()
	var out []chainhash.Hash
	for k, _ := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cur.Next() {
		out = append(out, parseHashKey(k))
	}
	return out, nil
}

// scanAcctHashKeys collects every hash under an account-prefixed key whose
// suffix is (account, hash) (T, P).
func (s *Store) scanAcctHashKeys(ns ReadBucket, prefix []byte) ([]chainhash.Hash, error) {
	cur := ns.ReadCursor()
	var out []chainhash.Hash
	for k, _ := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cur.Next() {
		_, hash := parseAcctPrefixedHashKey(keySuffix(k))
		out = append(out, hash)
	}
	return out, nil
}

// scanOutpointKeys collects every outpoint under a credit-schema prefix.
func (s *Store) scanOutpointKeys(ns ReadBucket, prefix []byte) ([]Outpoint, error) {
	cur := ns.ReadCursor()
	var out []Outpoint
	for k, _ := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cur.Next() {
		hash, index := parseOutpointSuffix(keySuffix(k))
		out = append(out, Outpoint{Hash: hash, Index: index})
	}
	return out, nil
}

// scanRangeHashes collects hashes from an ordinal-prefixed secondary
// index (m, h, M, H) whose leading 4-byte ordinal falls within [start,
// end] (an end of 0 means no upper bound), using extract to pull the ordinal and hash out of each key's
// suffix.
func (s *Store) scanRangeHashes(ns ReadBucket, prefix []byte, start, end uint32, extract func(suffix []byte) (uint32, chainhash.Hash)) ([]chainhash.Hash, error) {
	cur := ns.ReadCursor()
	var out []chainhash.Hash
	for k, _ := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cur.Next() {
		ordinal, hash := extract(keySuffix(k))
		if end != 0 && ordinal > end {
			break
		}
		if ordinal < start {
			continue
		}
		out = append(out, hash)
	}
	return out, nil
}

func parseByHeightKeyHash(suffix []byte) (uint32, chainhash.Hash) {
	height, hash := parseByHeightKey(suffix)
	return uint32(height), hash
}

func parseAcctByHeightKeyHash(suffix []byte) (uint32, chainhash.Hash) {
	_, height, hash := parseAcctByHeightKey(suffix)
	return uint32(height), hash
}

func parseByTimeKeyHash(suffix []byte) (uint32, chainhash.Hash) {
	return parseByTimeKey(suffix)
}

func parseAcctByTimeKeyHash(suffix []byte) (uint32, chainhash.Hash) {
	acct, ps, hash := parseAcctByTimeKey(suffix)
	_ = acct
	return ps, hash
}
