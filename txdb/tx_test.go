// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestAddFreshMempoolTx(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	script := p2pkhScript(1)
	addr := r.add(script, 0)
	tx := coinbaseTx(5e7, script)
	hash := tx.TxHash()

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, tx, nil, time.Unix(1000, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, hash)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.True(t, got.IsMempool())

		coins, err := s.GetCoins(ns)
		require.NoError(t, err)
		require.Len(t, coins, 1)
		require.Equal(t, int64(5e7), coins[0].Value)

		details, err := s.GetDetails(ns, hash)
		require.NoError(t, err)
		require.Equal(t, addr, details.Outputs[0].Address)
		return nil
	})

	bal := s.GetBalance()
	require.EqualValues(t, 1, bal.TxCount)
	require.EqualValues(t, 1, bal.CoinCount)
	require.EqualValues(t, 5e7, bal.Unconfirmed)
	require.EqualValues(t, 0, bal.Confirmed)
}

func TestConfirmMovesBalance(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	script := p2pkhScript(2)
	r.add(script, 0)
	tx := coinbaseTx(3e7, script)
	hash := tx.TxHash()

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, tx, nil, time.Unix(1000, 0))
	})

	block := &BlockMeta{Height: 100, Time: 2000}
	update(t, db, func(ns Bucket) error {
		return s.Confirm(ns, hash, block)
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, hash)
		require.NoError(t, err)
		require.False(t, got.IsMempool())
		require.Equal(t, int32(100), got.Height)
		return nil
	})

	bal := s.GetBalance()
	require.EqualValues(t, 3e7, bal.Confirmed)
	require.EqualValues(t, 3e7, bal.Unconfirmed)
}

func TestMempoolSpendOfConfirmedCoin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	recvScript := p2pkhScript(3)
	r.add(recvScript, 0)
	fundTx := coinbaseTx(1e8, recvScript)
	fundHash := fundTx.TxHash()
	block := &BlockMeta{Height: 50, Time: 1000}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, fundTx, block, time.Unix(1000, 0))
	})

	changeScript := p2pkhScript(4)
	r.add(changeScript, 0)
	spend := spendTx(fundHash, 0, &wire.TxOut{Value: 9e7, PkScript: changeScript})
	spendHash := spend.TxHash()

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, spend, nil, time.Unix(1500, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		undo, err := s.getSpentCredits(ns, spendHash)
		require.NoError(t, err)
		require.Len(t, undo, 1)

		credit, err := s.getCredit(ns, fundHash, 0)
		require.NoError(t, err)
		require.NotNil(t, credit)
		require.True(t, credit.Spent)

		tx, err := s.GetTX(ns, spendHash)
		require.NoError(t, err)
		require.NotNil(t, tx)
		return nil
	})

	bal := s.GetBalance()
	require.EqualValues(t, 2, bal.TxCount)
	// fund coin consumed, one new change coin.
	require.EqualValues(t, 1, bal.CoinCount)
}

func TestDoubleSpendConflictInMempool(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	recvScript := p2pkhScript(5)
	r.add(recvScript, 0)
	fundTx := coinbaseTx(1e8, recvScript)
	fundHash := fundTx.TxHash()
	block := &BlockMeta{Height: 10, Time: 500}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, fundTx, block, time.Unix(500, 0))
	})

	outA := p2pkhScript(6)
	outB := p2pkhScript(7)
	r.add(outA, 0)
	r.add(outB, 0)

	spendA := spendTx(fundHash, 0, &wire.TxOut{Value: 5e7, PkScript: outA})
	spendB := spendTx(fundHash, 0, &wire.TxOut{Value: 4e7, PkScript: outB})
	hashA := spendA.TxHash()
	hashB := spendB.TxHash()

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, spendA, nil, time.Unix(600, 0))
	})
	update(t, db, func(ns Bucket) error {
		return s.Add(ns, spendB, nil, time.Unix(700, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		a, err := s.GetTX(ns, hashA)
		require.NoError(t, err)
		require.Nil(t, a)

		b, err := s.GetTX(ns, hashB)
		require.NoError(t, err)
		require.NotNil(t, b)
		return nil
	})
}

func TestDisconnectReturnsTxToMempool(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	script := p2pkhScript(8)
	r.add(script, 0)
	tx := coinbaseTx(2e7, script)
	hash := tx.TxHash()
	block := &BlockMeta{Height: 200, Time: 900}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, tx, block, time.Unix(900, 0))
	})

	update(t, db, func(ns Bucket) error {
		return s.Disconnect(ns, hash)
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, hash)
		require.NoError(t, err)
		require.True(t, got.IsMempool())
		return nil
	})

	bal := s.GetBalance()
	require.EqualValues(t, 0, bal.Confirmed)
	require.EqualValues(t, 2e7, bal.Unconfirmed)
}

func TestRBFTaintedReplacementIsIgnoredUntilConfirmed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{})

	recvScript := p2pkhScript(9)
	r.add(recvScript, 0)
	fundTx := coinbaseTx(1e8, recvScript)
	fundHash := fundTx.TxHash()
	block := &BlockMeta{Height: 10, Time: 500}

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, fundTx, block, time.Unix(500, 0))
	})

	out1 := p2pkhScript(10)
	r.add(out1, 0)
	original := spendTx(fundHash, 0, &wire.TxOut{Value: 5e7, PkScript: out1})
	origHash := original.TxHash()

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, original, nil, time.Unix(600, 0))
	})

	out2 := p2pkhScript(11)
	r.add(out2, 0)
	replacement := spendTx(fundHash, 0, &wire.TxOut{Value: 4e7, PkScript: out2})
	replacement.TxIn[0].Sequence = 0xfffffffd
	replHash := replacement.TxHash()

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, replacement, nil, time.Unix(700, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		orig, err := s.GetTX(ns, origHash)
		require.NoError(t, err)
		require.NotNil(t, orig, "original should still stand, replacement deferred as RBF")

		repl, err := s.GetTX(ns, replHash)
		require.NoError(t, err)
		require.Nil(t, repl)
		return nil
	})

	// Confirming the replacement should evict the conflicting original.
	replBlock := &BlockMeta{Height: 11, Time: 800}
	update(t, db, func(ns Bucket) error {
		return s.Add(ns, replacement, replBlock, time.Unix(700, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		orig, err := s.GetTX(ns, origHash)
		require.NoError(t, err)
		require.Nil(t, orig)

		repl, err := s.GetTX(ns, replHash)
		require.NoError(t, err)
		require.NotNil(t, repl)
		return nil
	})
}

func TestOrphanInputResolvedOnceParentArrives(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s, r := newTestStore(Options{Resolution: true})

	recvScript := p2pkhScript(12)
	r.add(recvScript, 0)
	fundTx := coinbaseTx(6e7, recvScript)
	fundHash := fundTx.TxHash()

	pubKey := make([]byte, 33)
	pubKey[0] = 0x02
	for i := 1; i < 33; i++ {
		pubKey[i] = byte(i)
	}
	pkHash := btcutil.Hash160(pubKey)
	ownedScript := append([]byte{0x76, 0xa9, 0x14}, pkHash...)
	ownedScript = append(ownedScript, 0x88, 0xac)
	r.add(ownedScript, 0)

	sigScript := append([]byte{0x47}, make([]byte, 0x47)...)
	sigScript = append(sigScript, 0x21)
	sigScript = append(sigScript, pubKey...)
	orphanSpend := spendTx(fundHash, 0, &wire.TxOut{Value: 5e7, PkScript: p2pkhScript(13)})
	orphanSpend.TxIn[0].SignatureScript = sigScript
	orphanHash := orphanSpend.TxHash()

	update(t, db, func(ns Bucket) error {
		require.NoError(t, s.Open(ns))
		return s.Add(ns, orphanSpend, nil, time.Unix(1000, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, orphanHash)
		require.NoError(t, err)
		require.Nil(t, got, "orphan should not be indexed until its prevout resolves")

		fund, err := s.GetTX(ns, fundHash)
		require.NoError(t, err)
		require.Nil(t, fund)
		return nil
	})

	update(t, db, func(ns Bucket) error {
		return s.Add(ns, fundTx, nil, time.Unix(999, 0))
	})

	view(t, db, func(ns ReadBucket) error {
		got, err := s.GetTX(ns, orphanHash)
		require.NoError(t, err)
		require.NotNil(t, got, "orphan should be resolved once its prevout is indexed")
		return nil
	})
}
