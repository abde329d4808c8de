// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockMeta identifies the block a confirmed transaction was mined in.
type BlockMeta struct {
	Hash   chainhash.Hash
	Height int32
	Time   uint32
}

// binary_LE is the byte order used for all *value* encodings (record
// bytes, as opposed to key bytes, which always use big-endian so that
// byte-lexicographic order tracks numeric order for range scans).
var binary_LE = binary.LittleEndian

// Options configures a Store's optional behavior.
type Options struct {
	// Resolution enables SPV-mode orphan-input tracking (C4): when an
	// input whose previous output hasn't been seen yet reveals a public
	// key the resolver recognizes, the whole transaction is held back
	// instead of its unseen inputs being indexed as bare spent markers.
	Resolution bool

	// Verify re-verifies an orphan's spending script once its previous
	// output arrives, before accepting the resolution.
	Verify bool

	// Network is the address-encoding handle for the wallet's network.
	// The store carries it but does not read it: DetailsMember.Address is
	// whatever PathResolver.GetPath returns, with or without a Network.
	Network AddressParams

	// CacheSize bounds the coin cache (C3). Zero selects the default of
	// 10,000 entries, matching wtxmgr's cache cap.
	CacheSize uint

	// OrphanCap bounds the orphan tracker (C4)'s global orphan count
	// before the whole table is purged as a DoS guard. Zero selects the
	// default of 20.
	OrphanCap int
}

func (o Options) withDefaults() Options {
	if o.CacheSize == 0 {
		o.CacheSize = defaultCacheSize
	}
	if o.OrphanCap == 0 {
		o.OrphanCap = defaultOrphanCap
	}
	return o
}

const (
	defaultCacheSize = 10000
	defaultOrphanCap = 20
)
