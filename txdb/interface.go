// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcwallet/walletdb"
)

// AddressParams is the address-encoding handle consumed from the network
// parameters collaborator. It is opaque to the store: resolving a pkScript
// to an address and a wallet path is entirely delegated to PathResolver,
// which is expected to have been constructed with a matching AddressParams
// value. The store only threads it through Options so callers can swap
// networks without touching store internals.
type AddressParams interface {
	Name() string
}

// PathResolver maps an output script to the wallet account path that owns
// it, or reports that the script belongs to no known path. Key derivation
// and address generation themselves are out of scope for the store; this
// is the seam across which that collaborator is consumed.
type PathResolver interface {
	// GetPath resolves pkScript to the address it pays and, if the
	// address is ours, the account path that owns it. ok is false when
	// the script is not recognized as belonging to any wallet address.
	GetPath(pkScript []byte) (addr string, path *Path, ok bool, err error)

	// HasPath reports whether pkScript belongs to a known wallet address,
	// without the cost of fully resolving its path.
	HasPath(pkScript []byte) (bool, error)
}

// OutpointMap records which wallets reference a given outpoint, keyed by
// wallet id. It is maintained by the global wallet directory collaborator,
// not by the store itself; the store only reads and writes through it.
type OutpointMap map[uint32]struct{}

// BlockMap records which wallets have a confirmed transaction at a given
// height.
type BlockMap map[uint32]struct{}

// WalletDirectory is the global, cross-wallet collaborator that tracks
// which wallets reference each outpoint and each block height. The
// external walletdb serializes access to it; the store writes through it
// transactionally as part of the same batch as its own KV writes.
type WalletDirectory interface {
	GetOutpointMap(hash chainhash.Hash, index uint32) (OutpointMap, error)
	WriteOutpointMap(wid uint32, hash chainhash.Hash, index uint32, m OutpointMap) error
	UnwriteOutpointMap(wid uint32, hash chainhash.Hash, index uint32) error

	GetBlockMap(height int32) (BlockMap, error)
	WriteBlockMap(wid uint32, height int32, m BlockMap) error
	UnwriteBlockMap(wid uint32, height int32) error

	// ChainHeight is the current chain tip height. The store itself does
	// not call it.
	ChainHeight() int32
}

// Bucket is the KV interface the store reads and writes through. It is
// satisfied directly by walletdb.ReadWriteBucket; Store never creates its
// own transactions or buckets, since cross-wallet mutual exclusion belongs
// to the external walletdb, not to the store.
type Bucket = walletdb.ReadWriteBucket

// ReadBucket is the read-only counterpart used by query-layer methods that
// never need to write.
type ReadBucket = walletdb.ReadBucket

// Cursor and ReadCursor mirror walletdb's cursor interfaces so the rest of
// the package can name them without repeating the walletdb selector.
type Cursor = walletdb.ReadWriteCursor
type ReadCursor = walletdb.ReadCursor
