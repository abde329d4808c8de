// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestGetCoinsExcludesLockedOutpoints(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	scriptA := p2pkhScript(20)
	scriptB := p2pkhScript(21)
	r.add(scriptA, 0)
	r.add(scriptB, 0)

	txA := coinbaseTx(1e7, scriptA)
	txB := coinbaseTx(2e7, scriptB)

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		if err := s.Add(ns, txA, nil, time.Unix(1, 0)); err != nil {
			return err
		}
		return nil
	})
	update(t, db, func(ns Bucket) error {
		return s.Add(ns, txB, nil, time.Unix(2, 0))
	})

	s.LockOutpoint(Outpoint{Hash: txA.TxHash(), Index: 0})
	require.True(t, s.IsLockedOutpoint(Outpoint{Hash: txA.TxHash(), Index: 0}))

	view(t, db, func(ns ReadBucket) error {
		coins, err := s.GetCoins(ns)
		require.NoError(t, err)
		require.Len(t, coins, 1)
		require.Equal(t, int64(2e7), coins[0].Value)
		return nil
	})

	s.UnlockAllOutpoints()
	view(t, db, func(ns ReadBucket) error {
		coins, err := s.GetCoins(ns)
		require.NoError(t, err)
		require.Len(t, coins, 2)
		return nil
	})
}

func TestGetHeightRangeHashesFiltersAndOrders(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	update(t, db, func(ns Bucket) error {
		return s.Open(ns)
	})

	var hashAt20 chainhash.Hash
	var byHeight []chainhash.Hash
	for i, h := range []int32{10, 20, 30} {
		script := p2pkhScript(byte(30 + i))
		r.add(script, 0)
		tx := coinbaseTx(int64(1e6*(i+1)), script)
		block := &BlockMeta{Height: h, Time: uint32(h)}
		update(t, db, func(ns Bucket) error {
			return s.Add(ns, tx, block, time.Unix(int64(h), 0))
		})
		if h == 20 {
			hashAt20 = tx.TxHash()
		}
		byHeight = append(byHeight, tx.TxHash())
	}

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetHeightRangeHashes(ns, RangeOptions{Start: 15, End: 25})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, hashAt20, got[0])
		return nil
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetHeightRangeHashes(ns, RangeOptions{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.Equal(t, byHeight, got)
		return nil
	})
}

func TestZapRemovesStaleMempoolTxOnly(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	staleScript := p2pkhScript(40)
	freshScript := p2pkhScript(41)
	r.add(staleScript, 0)
	r.add(freshScript, 0)

	stale := coinbaseTx(1e6, staleScript)
	fresh := coinbaseTx(2e6, freshScript)

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		if err := s.Add(ns, stale, nil, time.Unix(1000, 0)); err != nil {
			return err
		}
		return s.Add(ns, fresh, nil, time.Unix(100000, 0))
	})

	update(t, db, func(ns Bucket) error {
		hashes, err := s.Zap(ns, time.Hour, time.Unix(100100, 0))
		require.NoError(t, err)
		require.Len(t, hashes, 1)
		require.Equal(t, stale.TxHash(), hashes[0])
		return nil
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, stale.TxHash())
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = s.GetTX(ns, fresh.TxHash())
		require.NoError(t, err)
		require.NotNil(t, got)
		return nil
	})
}

func TestForEachTxVisitsEveryIndexedTx(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	update(t, db, func(ns Bucket) error {
		return s.Open(ns)
	})

	want := make(map[chainhash.Hash]bool)
	for i := 0; i < 3; i++ {
		script := p2pkhScript(byte(60 + i))
		r.add(script, 0)
		tx := coinbaseTx(int64(1e6), script)
		update(t, db, func(ns Bucket) error {
			return s.Add(ns, tx, nil, time.Unix(int64(i+1), 0))
		})
		want[tx.TxHash()] = false
	}

	view(t, db, func(ns ReadBucket) error {
		return s.ForEachTx(ns, func(tx *extTXView) error {
			_, ok := want[tx.Hash]
			require.True(t, ok, "unexpected hash %v", tx.Hash)
			want[tx.Hash] = true
			return nil
		})
	})

	for hash, seen := range want {
		require.True(t, seen, "never visited %v", hash)
	}
}

func TestCreditWritesAndRemovesDirectoryOutpointMap(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	resolver := newFakeResolver()
	dir := newFakeDirectory()
	s := NewStore(1, resolver, dir, NewEvents(), Options{})

	script := p2pkhScript(70)
	resolver.add(script, 0)
	tx := coinbaseTx(1e6, script)
	op := Outpoint{Hash: tx.TxHash(), Index: 0}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, tx, nil, time.Unix(1, 0))
	})

	m, err := dir.GetOutpointMap(op.Hash, op.Index)
	require.NoError(t, err)
	_, ok := m[1]
	require.True(t, ok, "directory should record this wallet against the credit's outpoint")

	update(t, db, func(ns Bucket) error {
		return s.Remove(ns, tx.TxHash())
	})

	m, err = dir.GetOutpointMap(op.Hash, op.Index)
	require.NoError(t, err)
	require.Empty(t, m, "directory entry should be gone once the credit is removed")
}

func TestBalanceInvariantAcrossConfirmAndSpend(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	recvScript := p2pkhScript(50)
	r.add(recvScript, 0)
	fundTx := coinbaseTx(1e8, recvScript)
	fundHash := fundTx.TxHash()
	block := &BlockMeta{Height: 5, Time: 5}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, fundTx, block, time.Unix(5, 0))
	})

	changeScript := p2pkhScript(51)
	r.add(changeScript, 0)
	spend := spendTx(fundHash, 0, &wire.TxOut{Value: 6e7, PkScript: changeScript})
	spendBlock := &BlockMeta{Height: 6, Time: 6}

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, spend, spendBlock, time.Unix(6, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		coins, err := s.GetCoins(ns)
		require.NoError(t, err)
		var sum int64
		for _, c := range coins {
			sum += c.Value
		}
		bal := s.GetBalance()
		require.EqualValues(t, sum, bal.Confirmed)
		require.EqualValues(t, sum, bal.Unconfirmed)
		require.EqualValues(t, len(coins), bal.CoinCount)
		return nil
	})
}
