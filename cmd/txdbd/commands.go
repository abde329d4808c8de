// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/asoltys/btctxdb/txdb"
)

// readRawTx deserializes a raw transaction from stdin, accepting either
// hex text or the raw wire bytes directly.
func readRawTx() (*wire.MsgTx, error) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction from stdin: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	decoded := raw
	if d, err := hex.DecodeString(string(raw)); err == nil {
		decoded = d
	}

	tx := new(wire.MsgTx)
	if err := tx.Deserialize(bytes.NewReader(decoded)); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return tx, nil
}

// addCmd indexes a raw transaction piped in on stdin, optionally as
// already confirmed in a block.
type addCmd struct {
	Height    int32  `long:"height" default:"-1" description:"Block height the transaction confirmed in; -1 for a mempool transaction"`
	BlockHash string `long:"blockhash" description:"Hex block hash, required when --height is set"`
}

func (c *addCmd) Execute(args []string) error {
	if err := initLogRotator(opts.LogFile, opts.DebugLevel); err != nil {
		return err
	}
	tx, err := readRawTx()
	if err != nil {
		return err
	}

	var block *txdb.BlockMeta
	if c.Height >= 0 {
		if c.BlockHash == "" {
			return fmt.Errorf("--blockhash is required when --height is set")
		}
		hash, err := chainhash.NewHashFromStr(c.BlockHash)
		if err != nil {
			return fmt.Errorf("invalid --blockhash: %w", err)
		}
		block = &txdb.BlockMeta{Hash: *hash, Height: c.Height, Time: uint32(time.Now().Unix())}
	}

	store, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	err = withWriteBucket(db, func(ns txdb.Bucket) error {
		return store.Add(ns, tx, block, time.Now())
	})
	if err != nil {
		return err
	}
	fmt.Println(tx.TxHash())
	return nil
}

// confirmCmd marks a pending transaction as confirmed in a block.
type confirmCmd struct {
	Hash      string `long:"hash" required:"true" description:"Hex transaction hash to confirm"`
	Height    int32  `long:"height" required:"true" description:"Block height the transaction confirmed in"`
	BlockHash string `long:"blockhash" required:"true" description:"Hex block hash"`
}

func (c *confirmCmd) Execute(args []string) error {
	if err := initLogRotator(opts.LogFile, opts.DebugLevel); err != nil {
		return err
	}
	hash, err := chainhash.NewHashFromStr(c.Hash)
	if err != nil {
		return fmt.Errorf("invalid --hash: %w", err)
	}
	blockHash, err := chainhash.NewHashFromStr(c.BlockHash)
	if err != nil {
		return fmt.Errorf("invalid --blockhash: %w", err)
	}
	block := &txdb.BlockMeta{Hash: *blockHash, Height: c.Height, Time: uint32(time.Now().Unix())}

	store, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return withWriteBucket(db, func(ns txdb.Bucket) error {
		return store.Confirm(ns, *hash, block)
	})
}

// disconnectCmd reverts a confirmed transaction back to mempool.
type disconnectCmd struct {
	Hash string `long:"hash" required:"true" description:"Hex transaction hash to disconnect"`
}

func (c *disconnectCmd) Execute(args []string) error {
	if err := initLogRotator(opts.LogFile, opts.DebugLevel); err != nil {
		return err
	}
	hash, err := chainhash.NewHashFromStr(c.Hash)
	if err != nil {
		return fmt.Errorf("invalid --hash: %w", err)
	}

	store, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return withWriteBucket(db, func(ns txdb.Bucket) error {
		return store.Disconnect(ns, *hash)
	})
}

// balanceCmd prints the wallet's committed balance.
type balanceCmd struct{}

func (c *balanceCmd) Execute(args []string) error {
	if err := initLogRotator(opts.LogFile, opts.DebugLevel); err != nil {
		return err
	}
	store, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	bal := store.GetBalance()
	fmt.Printf("transactions: %d\ncoins:        %d\nunconfirmed:  %v\nconfirmed:    %v\n",
		bal.TxCount, bal.CoinCount, bal.Unconfirmed, bal.Confirmed)
	return nil
}

// historyCmd lists every indexed transaction hash.
type historyCmd struct {
	PendingOnly bool `long:"pending" description:"List only unconfirmed transactions"`
}

func (c *historyCmd) Execute(args []string) error {
	if err := initLogRotator(opts.LogFile, opts.DebugLevel); err != nil {
		return err
	}
	store, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return withReadBucket(db, func(ns txdb.ReadBucket) error {
		var hashes []chainhash.Hash
		var err error
		if c.PendingOnly {
			hashes, err = store.GetPendingHashes(ns)
		} else {
			hashes, err = store.GetHistoryHashes(ns)
		}
		if err != nil {
			return err
		}
		for _, h := range hashes {
			fmt.Println(h)
		}
		return nil
	})
}
