// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/asoltys/btctxdb/txdb"
)

// log is the CLI's own subsystem logger; txdb's package-level logger is
// wired to the same backend via UseLogger so store and CLI messages land
// in the same rotated file.
var log = btclog.Disabled

var logRotator *rotator.Rotator

// initLogRotator opens (creating parent directories as needed) a rotating
// file logger at logFile and points both the CLI's and txdb's loggers at
// it, the way a btcd/btcwallet daemon entry point wires up subsystem
// loggers against a shared backend.
func initLogRotator(logFile, debugLevel string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r

	pr, pw := io.Pipe()
	go func() {
		if err := r.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr, "failed to run file rotator: %v\n", err)
		}
	}()

	backend := btclog.NewBackend(io.MultiWriter(os.Stdout, pw))
	level, ok := btclog.LevelFromString(debugLevel)
	if !ok {
		level = btclog.LevelInfo
	}

	log = backend.Logger("TXDBD")
	log.SetLevel(level)

	txdbLog := backend.Logger("TXDB")
	txdbLog.SetLevel(level)
	txdb.UseLogger(txdbLog)

	return nil
}
