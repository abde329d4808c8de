// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
)

var namespaceKey = []byte("txdb")

// testDB opens a fresh bolt-backed walletdb in a temp directory and returns
// the top-level bucket used by every test, plus a cleanup func.
func testDB(t *testing.T) (walletdb.DB, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "txdb_test")
	if err != nil {
		t.Fatal(err)
	}
	db, err := walletdb.Create("bdb", filepath.Join(dir, "txdb.db"), true, 0)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(namespaceKey)
		return err
	})
	if err != nil {
		db.Close()
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}

func update(t *testing.T, db walletdb.DB, f func(ns walletdb.ReadWriteBucket) error) {
	t.Helper()
	err := walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		return f(tx.ReadWriteBucket(namespaceKey))
	})
	if err != nil {
		t.Fatal(err)
	}
}

func view(t *testing.T, db walletdb.DB, f func(ns walletdb.ReadBucket) error) {
	t.Helper()
	err := walletdb.View(db, func(tx walletdb.ReadTx) error {
		return f(tx.ReadBucket(namespaceKey))
	})
	if err != nil {
		t.Fatal(err)
	}
}

// fakeResolver is a PathResolver backed by an explicit script table, built
// up by tests with add before any Store call that needs to recognize it.
type fakeResolver struct {
	byScript map[string]fakeResolved
}

type fakeResolved struct {
	addr    string
	account uint32
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{byScript: make(map[string]fakeResolved)}
}

func (r *fakeResolver) add(script []byte, account uint32) string {
	addr := fmt.Sprintf("addr-%d-%x", account, script[:4])
	r.byScript[string(script)] = fakeResolved{addr: addr, account: account}
	return addr
}

func (r *fakeResolver) GetPath(pkScript []byte) (string, *Path, bool, error) {
	v, ok := r.byScript[string(pkScript)]
	if !ok {
		return "", nil, false, nil
	}
	return v.addr, &Path{Account: v.account}, true, nil
}

func (r *fakeResolver) HasPath(pkScript []byte) (bool, error) {
	_, ok := r.byScript[string(pkScript)]
	return ok, nil
}

// fakeDirectory is an in-memory WalletDirectory.
type fakeDirectory struct {
	outpoints map[Outpoint]OutpointMap
	blocks    map[int32]BlockMap
	height    int32
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		outpoints: make(map[Outpoint]OutpointMap),
		blocks:    make(map[int32]BlockMap),
	}
}

func (d *fakeDirectory) GetOutpointMap(hash chainhash.Hash, index uint32) (OutpointMap, error) {
	return d.outpoints[Outpoint{Hash: hash, Index: index}], nil
}

func (d *fakeDirectory) WriteOutpointMap(wid uint32, hash chainhash.Hash, index uint32, m OutpointMap) error {
	d.outpoints[Outpoint{Hash: hash, Index: index}] = m
	return nil
}

func (d *fakeDirectory) UnwriteOutpointMap(wid uint32, hash chainhash.Hash, index uint32) error {
	delete(d.outpoints, Outpoint{Hash: hash, Index: index})
	return nil
}

func (d *fakeDirectory) GetBlockMap(height int32) (BlockMap, error) {
	return d.blocks[height], nil
}

func (d *fakeDirectory) WriteBlockMap(wid uint32, height int32, m BlockMap) error {
	d.blocks[height] = m
	return nil
}

func (d *fakeDirectory) UnwriteBlockMap(wid uint32, height int32) error {
	delete(d.blocks, height)
	return nil
}

func (d *fakeDirectory) ChainHeight() int32 { return d.height }

// newTestStore builds a Store wired to fresh fake collaborators, along with
// the resolver so the test can register addresses it wants recognized.
func newTestStore(opts Options) (*Store, *fakeResolver) {
	resolver := newFakeResolver()
	dir := newFakeDirectory()
	events := NewEvents()
	s := NewStore(1, resolver, dir, events, opts)
	return s, resolver
}

// p2pkhScript builds a minimal deterministic P2PKH-shaped script for test
// fixtures; it does not need to be spendable since fakeResolver recognizes
// it by exact byte match rather than by parsing.
func p2pkhScript(seed byte) []byte {
	script := make([]byte, 25)
	script[0] = 0x76 // OP_DUP
	script[1] = 0xa9 // OP_HASH160
	script[2] = 0x14 // push 20
	for i := 0; i < 20; i++ {
		script[3+i] = seed + byte(i)
	}
	script[23] = 0x88 // OP_EQUALVERIFY
	script[24] = 0xac // OP_CHECKSIG
	return script
}

// coinbaseTx builds a single-output coinbase transaction paying value to
// pkScript.
func coinbaseTx(value int64, pkScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x00, 0x00},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: value, PkScript: pkScript})
	return tx
}

// spendTx builds a transaction spending prev's output index prevIndex,
// paying the given outputs.
func spendTx(prev chainhash.Hash, prevIndex uint32, outs ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: prev, Index: prevIndex},
		SignatureScript:  []byte{0x51},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for _, o := range outs {
		tx.AddTxOut(o)
	}
	return tx
}
