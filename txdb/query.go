// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// RangeOptions bounds a range query over a time- or height-ordered
// secondary index. An End of 0 means no upper bound.
type RangeOptions struct {
	Start   uint32
	End     uint32
	Limit   int
	Reverse bool
}

func (o RangeOptions) apply(hashes []chainhash.Hash) []chainhash.Hash {
	if o.Reverse {
		for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
			hashes[i], hashes[j] = hashes[j], hashes[i]
		}
	}
	if o.Limit > 0 && len(hashes) > o.Limit {
		hashes = hashes[:o.Limit]
	}
	return hashes
}

// GetHistoryHashes returns every indexed transaction hash for the wallet,
// in hash order (prefix t).
func (s *Store) GetHistoryHashes(ns ReadBucket) ([]chainhash.Hash, error) {
	return s.scanHashKeys(ns, walletPrefixKey(s.wid, tagTx))
}

// GetAccountHistoryHashes is the account-scoped counterpart of
// GetHistoryHashes (prefix T[account]).
func (s *Store) GetAccountHistoryHashes(ns ReadBucket, account uint32) ([]chainhash.Hash, error) {
	prefix := walletKey(s.wid, tagAcctTx, appendUint32(nil, account))
	return s.scanAcctHashKeys(ns, prefix)
}

// GetPendingHashes returns every unconfirmed transaction hash.
func (s *Store) GetPendingHashes(ns ReadBucket) ([]chainhash.Hash, error) {
	return s.scanHashKeys(ns, walletPrefixKey(s.wid, tagPending))
}

// GetAccountPendingHashes is the account-scoped counterpart of
// GetPendingHashes.
func (s *Store) GetAccountPendingHashes(ns ReadBucket, account uint32) ([]chainhash.Hash, error) {
	prefix := walletKey(s.wid, tagAcctPending, appendUint32(nil, account))
	return s.scanAcctHashKeys(ns, prefix)
}

// GetHeightRangeHashes returns hashes from the height-ordered index within
// [opts.Start, opts.End]. This is deliberately a distinct method from the
// account-scoped variant rather than an overload on an optional account
// parameter.
func (s *Store) GetHeightRangeHashes(ns ReadBucket, opts RangeOptions) ([]chainhash.Hash, error) {
	prefix := walletPrefixKey(s.wid, tagByHeight)
	hashes, err := s.scanRangeHashes(ns, prefix, opts.Start, opts.End, parseByHeightKeyHash)
	if err != nil {
		return nil, err
	}
	return opts.apply(hashes), nil
}

// GetAccountHeightRangeHashes is the account-scoped counterpart of
// GetHeightRangeHashes.
func (s *Store) GetAccountHeightRangeHashes(ns ReadBucket, account uint32, opts RangeOptions) ([]chainhash.Hash, error) {
	prefix := walletKey(s.wid, tagAcctHeight, appendUint32(nil, account))
	hashes, err := s.scanRangeHashes(ns, prefix, opts.Start, opts.End, parseAcctByHeightKeyHash)
	if err != nil {
		return nil, err
	}
	return opts.apply(hashes), nil
}

// GetRangeHashes returns hashes from the ps-ordered index within
// [opts.Start, opts.End].
func (s *Store) GetRangeHashes(ns ReadBucket, opts RangeOptions) ([]chainhash.Hash, error) {
	prefix := walletPrefixKey(s.wid, tagByTime)
	hashes, err := s.scanRangeHashes(ns, prefix, opts.Start, opts.End, parseByTimeKeyHash)
	if err != nil {
		return nil, err
	}
	return opts.apply(hashes), nil
}

// GetAccountRangeHashes is the account-scoped counterpart of
// GetRangeHashes.
func (s *Store) GetAccountRangeHashes(ns ReadBucket, account uint32, opts RangeOptions) ([]chainhash.Hash, error) {
	prefix := walletKey(s.wid, tagAcctByTime, appendUint32(nil, account))
	hashes, err := s.scanRangeHashes(ns, prefix, opts.Start, opts.End, parseAcctByTimeKeyHash)
	if err != nil {
		return nil, err
	}
	return opts.apply(hashes), nil
}

// GetOutpoints returns every outpoint indexed under the credit schema,
// unspent or spent.
func (s *Store) GetOutpoints(ns ReadBucket) ([]Outpoint, error) {
	prefix := walletPrefixKey(s.wid, tagCredit)
	return s.scanOutpointKeys(ns, prefix)
}

// GetAccountOutpoints is the account-scoped counterpart of GetOutpoints.
func (s *Store) GetAccountOutpoints(ns ReadBucket, account uint32) ([]Outpoint, error) {
	prefix := walletKey(s.wid, tagAcctCredit, appendUint32(nil, account))
	cur := ns.ReadCursor()
	var out []Outpoint
	for k, _ := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cur.Next() {
		_, hash, index := parseAcctCreditKey(keySuffix(k))
		out = append(out, Outpoint{Hash: hash, Index: index})
	}
	return out, nil
}

// GetCredits returns every credit indexed for the wallet, populating the
// coin cache for each as it scans.
func (s *Store) GetCredits(ns ReadBucket) ([]Credit, error) {
	prefix := walletPrefixKey(s.wid, tagCredit)
	cur := ns.ReadCursor()
	var out []Credit
	for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
		hash, index := parseOutpointSuffix(keySuffix(k))
		credit, err := DecodeCredit(v)
		if err != nil {
			return nil, err
		}
		credit.Coin.Outpoint = Outpoint{Hash: hash, Index: index}
		s.cache.set(coinCacheKey(hash, index), v)
		out = append(out, credit)
	}
	return out, nil
}

// GetCoins returns every unspent, unlocked credit as a spendable Coin.
func (s *Store) GetCoins(ns ReadBucket) ([]Coin, error) {
	credits, err := s.GetCredits(ns)
	if err != nil {
		return nil, err
	}
	var coins []Coin
	for _, c := range credits {
		if c.Spent {
			continue
		}
		coins = append(coins, c.Coin)
	}
	return filterLocked(s, coins), nil
}

// GetAccountCoins is the account-scoped counterpart of GetCoins.
func (s *Store) GetAccountCoins(ns ReadBucket, account uint32) ([]Coin, error) {
	prefix := walletKey(s.wid, tagAcctCredit, appendUint32(nil, account))
	cur := ns.ReadCursor()
	var coins []Coin
	for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
		_, hash, index := parseAcctCreditKey(keySuffix(k))
		credit, err := DecodeCredit(v)
		if err != nil {
			return nil, err
		}
		if credit.Spent {
			continue
		}
		credit.Coin.Outpoint = Outpoint{Hash: hash, Index: index}
		coins = append(coins, credit.Coin)
	}
	return filterLocked(s, coins), nil
}

// GetSpentCredits is the exported counterpart of the internal
// getSpentCredits helper, returning an array aligned with tx's inputs
// (nil entries mean that input has no recorded undo coin).
func (s *Store) GetSpentCredits(ns ReadBucket, hash chainhash.Hash) ([]*Credit, error) {
	return s.getSpentCredits(ns, hash)
}

// GetBalance returns the committed wallet-wide balance, the fast path
// that reads straight from TXDBState without scanning.
func (s *Store) GetBalance() Balance {
	return balanceFromState(s.state)
}

// GetAccountBalance computes a balance by summing that account's credits,
// since per-account running counters are not maintained (only the
// wallet-wide TXDBState is).
func (s *Store) GetAccountBalance(ns ReadBucket, account uint32) (Balance, error) {
	prefix := walletKey(s.wid, tagAcctCredit, appendUint32(nil, account))
	cur := ns.ReadCursor()
	var bal Balance
	for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
		credit, err := DecodeCredit(v)
		if err != nil {
			return Balance{}, err
		}
		if !credit.Spent {
			bal.Unconfirmed += btcutil.Amount(credit.Coin.Value)
			bal.CoinCount++
		}
		if credit.Coin.Height != mempoolHeight {
			bal.Confirmed += btcutil.Amount(credit.Coin.Value)
		}
	}
	return bal, nil
}

// FillHistory attaches to each of tx's inputs the Coin it spent, read from
// the undo coin recorded for that input, leaving nil entries for inputs
// this wallet never owned.
func (s *Store) FillHistory(ns ReadBucket, tx *extTX) ([]*Coin, error) {
	coins := make([]*Coin, len(tx.MsgTx.TxIn))
	for i := range tx.MsgTx.TxIn {
		undo, err := s.getUndo(ns, tx.Hash, uint32(i))
		if err != nil {
			return nil, err
		}
		if undo != nil {
			coins[i] = &undo.Coin
		}
	}
	return coins, nil
}

// FillCoins attaches to each of tx's outputs the Coin it created, read
// from the live credit, leaving nil entries for outputs this wallet does
// not own or that have already been removed.
func (s *Store) FillCoins(ns ReadBucket, tx *extTX) ([]*Coin, error) {
	coins := make([]*Coin, len(tx.MsgTx.TxOut))
	for i := range tx.MsgTx.TxOut {
		credit, err := s.getCredit(ns, tx.Hash, uint32(i))
		if err != nil {
			return nil, err
		}
		if credit != nil {
			coins[i] = &credit.Coin
		}
	}
	return coins, nil
}

// GetDetails builds the full Details projection for hash: resolved
// addresses, values, and wallet path for every input and output, plus the
// sorted account set touched.
func (s *Store) GetDetails(ns ReadBucket, hash chainhash.Hash) (*Details, error) {
	tx, err := s.getTX(ns, hash)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, nil
	}

	details := &Details{
		Hash:    hash,
		Tx:      tx.MsgTx,
		Height:  tx.Height,
		PS:      tx.PS,
		Inputs:  make([]DetailsMember, len(tx.MsgTx.TxIn)),
		Outputs: make([]DetailsMember, len(tx.MsgTx.TxOut)),
	}

	if !isCoinbaseTx(tx.MsgTx) {
		for i := range tx.MsgTx.TxIn {
			undo, err := s.getUndo(ns, hash, uint32(i))
			if err != nil {
				return nil, err
			}
			if undo == nil {
				continue
			}
			addr, path, _, err := s.resolver.GetPath(undo.Coin.Script)
			if err != nil {
				return nil, err
			}
			details.Inputs[i] = DetailsMember{Address: addr, Value: undo.Coin.Value, Path: path}
			if path != nil {
				details.addAccount(path.Account)
			}
		}
	}

	for i, out := range tx.MsgTx.TxOut {
		addr, path, ok, err := s.resolver.GetPath(out.PkScript)
		if err != nil {
			return nil, err
		}
		if !ok {
			details.Outputs[i] = DetailsMember{Address: addr}
			continue
		}
		details.Outputs[i] = DetailsMember{Address: addr, Value: out.Value, Path: path}
		details.addAccount(path.Account)
	}

	return details, nil
}

// Zap range-scans the ps-ordered index for transactions first seen no
// later than now-age and removes every one of them still unconfirmed, returning the
// hashes it removed.
func (s *Store) Zap(ns Bucket, age time.Duration, now time.Time) ([]chainhash.Hash, error) {
	end := uint32(now.Add(-age).Unix())
	hashes, err := s.GetRangeHashes(ns, RangeOptions{Start: 0, End: end})
	if err != nil {
		return nil, err
	}
	var removed []chainhash.Hash
	for _, hash := range hashes {
		tx, err := s.getTX(ns, hash)
		if err != nil {
			return nil, err
		}
		if tx == nil || !tx.IsMempool() {
			continue
		}
		if err := s.Remove(ns, hash); err != nil {
			return nil, err
		}
		removed = append(removed, hash)
	}
	return removed, nil
}
