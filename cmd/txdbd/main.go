// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	flags "github.com/jessevdk/go-flags"

	"github.com/asoltys/btctxdb/txdb"
)

const defaultNet = "mainnet"

var (
	defaultDataDir = btcutil.AppDataDir("txdbd", false)
	defaultDbPath  = filepath.Join(defaultDataDir, defaultNet, "txdb.db")
	defaultLogFile = filepath.Join(defaultDataDir, "logs", "txdbd.log")
)

// opts holds every flag shared across subcommands; the subcommands
// themselves are registered on the go-flags parser in main.
var opts struct {
	DbPath      string `long:"db" description:"Path to the wallet txdb database"`
	WalletID    uint32 `long:"walletid" default:"1" description:"Wallet id to operate the store as"`
	Resolution  bool   `long:"resolution" description:"Enable SPV orphan-input resolution"`
	Verify      bool   `long:"verify" description:"Verify resolved orphan inputs against the script engine"`
	CacheSize   uint   `long:"cachesize" description:"Coin cache capacity (0 for the package default)"`
	Watch       []string `long:"watch" description:"Hex-encoded output script to recognize as owned; may be repeated. With none given, every script is treated as owned under account 0"`
	DebugLevel  string `long:"debuglevel" default:"info" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogFile     string `long:"logfile" description:"Path to the log file"`
}

func main() {
	opts.DbPath = defaultDbPath
	opts.LogFile = defaultLogFile

	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("add", "Index a raw transaction read from stdin", "", &addCmd{})
	parser.AddCommand("confirm", "Mark a pending transaction confirmed", "", &confirmCmd{})
	parser.AddCommand("disconnect", "Revert a confirmed transaction back to mempool", "", &disconnectCmd{})
	parser.AddCommand("balance", "Print the wallet's committed balance", "", &balanceCmd{})
	parser.AddCommand("history", "List every indexed transaction hash", "", &historyCmd{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// openStore opens the bolt-backed walletdb at opts.DbPath, creating it (and
// the top-level namespace bucket) if necessary, and returns a Store opened
// against it along with the database handle, which the caller closes.
// Opening runs in its own walletdb update transaction; each subcommand then
// runs its store call inside a further transaction of its own.
func openStore() (*txdb.Store, walletdb.DB, error) {
	if err := os.MkdirAll(filepath.Dir(opts.DbPath), 0700); err != nil {
		return nil, nil, err
	}
	db, err := walletdb.Create("bdb", opts.DbPath, true, time.Duration(0))
	if err != nil {
		if db, err = walletdb.Open("bdb", opts.DbPath, true, 0); err != nil {
			return nil, nil, fmt.Errorf("failed to open txdb database: %w", err)
		}
	}

	resolver, err := newWatchResolver(opts.Watch)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	directory := newMemDirectory()
	events := txdb.NewEvents()
	subscribeEventLog(events)

	store := txdb.NewStore(opts.WalletID, resolver, directory, events, txdb.Options{
		Resolution: opts.Resolution,
		Verify:     opts.Verify,
		CacheSize:  opts.CacheSize,
	})

	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		ns, err := tx.CreateTopLevelBucket(namespaceKey)
		if err != nil {
			return err
		}
		return store.Open(ns)
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

var namespaceKey = []byte("txdb")

func withWriteBucket(db walletdb.DB, f func(ns txdb.Bucket) error) error {
	return walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		return f(tx.ReadWriteBucket(namespaceKey))
	})
}

func withReadBucket(db walletdb.DB, f func(ns txdb.ReadBucket) error) error {
	return walletdb.View(db, func(tx walletdb.ReadTx) error {
		return f(tx.ReadBucket(namespaceKey))
	})
}

// subscribeEventLog wires every topic the store publishes to a one-line
// log message, so a run of the CLI shows the write pipeline's commit-time
// effects without the caller needing to inspect the database afterward.
func subscribeEventLog(events *txdb.Events) {
	events.Subscribe(txdb.EventTx, func(tx interface{}, details interface{}) {
		log.Infof("tx indexed")
	})
	events.Subscribe(txdb.EventConfirmed, func(tx interface{}, accts interface{}) {
		log.Infof("tx confirmed")
	})
	events.Subscribe(txdb.EventUnconfirmed, func(tx interface{}, accts interface{}) {
		log.Infof("tx disconnected back to mempool")
	})
	events.Subscribe(txdb.EventRemoveTx, func(tx interface{}, accts interface{}) {
		log.Infof("tx removed")
	})
	events.Subscribe(txdb.EventConflict, func(tx interface{}) {
		log.Warnf("tx evicted by a conflicting replacement")
	})
	events.Subscribe(txdb.EventBalance, func(bal txdb.Balance, details interface{}) {
		log.Infof("balance updated: unconfirmed=%v confirmed=%v", bal.Unconfirmed, bal.Confirmed)
	})
}
