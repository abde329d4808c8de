// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// requireRoundTrip fails the test with a full dump of both sides when a
// decoded record doesn't match what was encoded, the same way wtxmgr's
// table-driven tests report a mismatched struct.
func requireRoundTrip(t *testing.T, want, got interface{}) {
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant: %s\ngot:  %s", spew.Sdump(want), spew.Sdump(got))
	}
}

func TestOutpointRoundTrip(t *testing.T) {
	var h chainhash.Hash
	h[0] = 0xaa
	op := Outpoint{Hash: h, Index: 7}
	got, err := DecodeOutpoint(op.Bytes())
	require.NoError(t, err)
	require.Equal(t, op, got)
}

func TestCoinRoundTrip(t *testing.T) {
	c := Coin{
		Value:    123456789,
		Script:   []byte{0x76, 0xa9, 0x14, 1, 2, 3},
		Height:   mempoolHeight,
		Coinbase: true,
	}
	got, err := DecodeCoin(c.Bytes())
	require.NoError(t, err)
	got.Outpoint = c.Outpoint
	requireRoundTrip(t, c, got)
}

func TestCreditRoundTrip(t *testing.T) {
	c := Credit{
		Coin: Coin{
			Value:  5000,
			Script: []byte{0x01, 0x02},
			Height: 42,
		},
		Spent: true,
	}
	got, err := DecodeCredit(c.Bytes())
	require.NoError(t, err)
	requireRoundTrip(t, c, got)
}

func TestBlockRecordRoundTrip(t *testing.T) {
	var h1, h2 chainhash.Hash
	h1[0] = 1
	h2[0] = 2
	rec := BlockRecord{
		Height:       500,
		Time:         1700000000,
		Transactions: []chainhash.Hash{h1, h2},
	}
	got, err := DecodeBlockRecord(rec.Bytes())
	require.NoError(t, err)
	requireRoundTrip(t, rec, got)
}

func TestBlockRecordRemoveTx(t *testing.T) {
	var h1, h2 chainhash.Hash
	h1[0] = 1
	h2[0] = 2
	rec := BlockRecord{Transactions: []chainhash.Hash{h1, h2}}
	require.False(t, rec.removeTx(h1))
	require.Equal(t, []chainhash.Hash{h2}, rec.Transactions)
	require.True(t, rec.removeTx(h2))
	require.Empty(t, rec.Transactions)
}

func TestTXDBStateRoundTrip(t *testing.T) {
	st := TXDBState{TxCount: 3, CoinCount: 5, Unconfirmed: 100, Confirmed: 200}
	got, err := DecodeTXDBState(st.Bytes())
	require.NoError(t, err)
	require.Equal(t, st, got)
}

func TestExtTXRoundTrip(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex}})
	tx.AddTxOut(&wire.TxOut{Value: 5000, PkScript: []byte{1, 2, 3}})
	hash := tx.TxHash()

	var blockHash chainhash.Hash
	blockHash[0] = 9
	ext := &extTX{
		MsgTx:     tx,
		Hash:      hash,
		PS:        1000,
		Height:    200,
		BlockHash: blockHash,
		BlockTime: 2000,
		Index:     3,
	}
	b, err := ext.Bytes()
	require.NoError(t, err)

	got, err := decodeExtTX(hash, b)
	require.NoError(t, err)
	require.Equal(t, ext.Hash, got.Hash)
	require.Equal(t, ext.PS, got.PS)
	require.Equal(t, ext.Height, got.Height)
	require.Equal(t, ext.BlockHash, got.BlockHash)
	require.Equal(t, ext.BlockTime, got.BlockTime)
	require.Equal(t, ext.Index, got.Index)
	require.Equal(t, ext.MsgTx.TxHash(), got.MsgTx.TxHash())
}

func TestDetailsAddAccountSortedUnique(t *testing.T) {
	d := &Details{}
	d.addAccount(3)
	d.addAccount(1)
	d.addAccount(2)
	d.addAccount(1)
	require.Equal(t, []uint32{1, 2, 3}, d.Accounts)
}
