// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Naming
//
// Functions here follow wtxmgr's `Op[Raw]Type[Field]` convention: key
// builds the on-disk key bytes for a schema entry, parse decodes one back
// into its typed components. All multi-byte integers embedded in keys use
// big-endian so that byte-lexicographic order matches numeric order, which
// range scans over height/time/account depend on.

// byteOrder is the fixed endianness for all ordered key components.
var byteOrder = binary.BigEndian

// Schema tags. Each tag selects a secondary index or primary record kept
// under a wallet's namespace; see keys.go doc comment for the wire layout.
const (
	tagTx          byte = 't' // extended tx payload by hash
	tagCredit      byte = 'c' // credit by outpoint
	tagUndo        byte = 'd' // undo coin by spender outpoint
	tagSpent       byte = 's' // spent marker by prevout
	tagPending     byte = 'p' // pending flag by hash
	tagByTime      byte = 'm' // by ps, hash
	tagByHeight    byte = 'h' // by height, hash
	tagAcctTx      byte = 'T' // by account, hash
	tagAcctPending byte = 'P' // pending by account
	tagAcctByTime  byte = 'M' // by account, ps, hash
	tagAcctHeight  byte = 'H' // by account, height, hash
	tagAcctCredit  byte = 'C' // credit by account, outpoint
	tagRBF         byte = 'r' // replace-by-fee marker
	tagBlock       byte = 'b' // block record by height
	tagState       byte = 'R' // singleton TXDBState
)

// walletPrefix is the fixed leading tag that scopes every key to a wallet.
const walletPrefix byte = 't'

const (
	hashSize = chainhash.HashSize // 32
)

// walletKey returns tag 0x74 ++ BE32(wid) ++ inner, the common prefix of
// every key belonging to wallet wid. Appending an inner schema tag and its
// suffix yields a full key; the prefix alone is used to delimit range scans
// across a whole wallet (e.g. when a wallet is being dropped).
func walletKey(wid uint32, inner byte, suffix []byte) []byte {
	k := make([]byte, 0, 1+4+1+len(suffix))
	k = append(k, walletPrefix)
	k = appendUint32(k, wid)
	k = append(k, inner)
	k = append(k, suffix...)
	return k
}

// walletPrefixKey returns the prefix shared by every key of wallet wid
// tagged with inner, without a suffix. Used to seek/range-scan an index.
func walletPrefixKey(wid uint32, inner byte) []byte {
	return walletKey(wid, inner, nil)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	byteOrder.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendHash(b []byte, h *chainhash.Hash) []byte {
	return append(b, h[:]...)
}

// outpointSuffix encodes hash ++ BE32(index), the common suffix shape used
// by credit, undo, and spent-marker keys.
func outpointSuffix(hash *chainhash.Hash, index uint32) []byte {
	b := make([]byte, 0, hashSize+4)
	b = appendHash(b, hash)
	b = appendUint32(b, index)
	return b
}

func parseOutpointSuffix(suffix []byte) (chainhash.Hash, uint32) {
	var h chainhash.Hash
	copy(h[:], suffix[:hashSize])
	return h, byteOrder.Uint32(suffix[hashSize : hashSize+4])
}

// keyTx returns the key for the extended tx record: t[wid][tagTx][hash].
func keyTx(wid uint32, hash *chainhash.Hash) []byte {
	return walletKey(wid, tagTx, hash[:])
}

// keyCredit returns the key for an unspent-or-spent credit: c[outpoint].
func keyCredit(wid uint32, hash *chainhash.Hash, index uint32) []byte {
	return walletKey(wid, tagCredit, outpointSuffix(hash, index))
}

// keyUndo returns the key for an undo coin, indexed by the *spender's*
// outpoint (hash of the spending tx, index of the spending input).
func keyUndo(wid uint32, spenderHash *chainhash.Hash, spenderIndex uint32) []byte {
	return walletKey(wid, tagUndo, outpointSuffix(spenderHash, spenderIndex))
}

// keySpent returns the key for a spent marker, indexed by the outpoint
// that was spent (the previous output, not the spender's).
func keySpent(wid uint32, prevHash *chainhash.Hash, prevIndex uint32) []byte {
	return walletKey(wid, tagSpent, outpointSuffix(prevHash, prevIndex))
}

// keyPending returns the key for the pending-tx marker: p[hash].
func keyPending(wid uint32, hash *chainhash.Hash) []byte {
	return walletKey(wid, tagPending, hash[:])
}

// keyByTime returns the key for the ps-ordered secondary index.
func keyByTime(wid uint32, ps uint32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 4+hashSize)
	suffix = appendUint32(suffix, ps)
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagByTime, suffix)
}

// keyByHeight returns the key for the height-ordered secondary index.
func keyByHeight(wid uint32, height int32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 4+hashSize)
	suffix = appendUint32(suffix, uint32(height))
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagByHeight, suffix)
}

// keyAcctTx returns the key for the by-account history index: T[acct,hash].
func keyAcctTx(wid uint32, acct uint32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 4+hashSize)
	suffix = appendUint32(suffix, acct)
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagAcctTx, suffix)
}

// keyAcctPending returns the key for the by-account pending index.
func keyAcctPending(wid uint32, acct uint32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 4+hashSize)
	suffix = appendUint32(suffix, acct)
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagAcctPending, suffix)
}

// keyAcctByTime returns the key for the by-account, by-ps index.
func keyAcctByTime(wid uint32, acct, ps uint32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 8+hashSize)
	suffix = appendUint32(suffix, acct)
	suffix = appendUint32(suffix, ps)
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagAcctByTime, suffix)
}

// keyAcctByHeight returns the key for the by-account, by-height index.
func keyAcctByHeight(wid uint32, acct uint32, height int32, hash *chainhash.Hash) []byte {
	suffix := make([]byte, 0, 8+hashSize)
	suffix = appendUint32(suffix, acct)
	suffix = appendUint32(suffix, uint32(height))
	suffix = appendHash(suffix, hash)
	return walletKey(wid, tagAcctHeight, suffix)
}

// keyAcctCredit returns the key for the by-account credit index.
func keyAcctCredit(wid uint32, acct uint32, hash *chainhash.Hash, index uint32) []byte {
	suffix := make([]byte, 0, 4+hashSize+4)
	suffix = appendUint32(suffix, acct)
	suffix = append(suffix, outpointSuffix(hash, index)...)
	return walletKey(wid, tagAcctCredit, suffix)
}

// keyRBF returns the key for the replace-by-fee taint marker.
func keyRBF(wid uint32, hash *chainhash.Hash) []byte {
	return walletKey(wid, tagRBF, hash[:])
}

// keyBlock returns the key for a block record, indexed by height.
func keyBlock(wid uint32, height int32) []byte {
	suffix := make([]byte, 4)
	byteOrder.PutUint32(suffix, uint32(height))
	return walletKey(wid, tagBlock, suffix)
}

// keyState returns the key for the singleton TXDBState record.
func keyState(wid uint32) []byte {
	return walletKey(wid, tagState, nil)
}

// parseHashKey extracts the trailing hash from a key whose suffix is just
// a 32-byte hash (tx, pending, rbf).
func parseHashKey(k []byte) chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], k[len(k)-hashSize:])
	return h
}

// parseByHeightKey extracts (height, hash) from an h/H-tagged key suffix.
func parseByHeightKey(suffix []byte) (int32, chainhash.Hash) {
	height := int32(byteOrder.Uint32(suffix[:4]))
	var h chainhash.Hash
	copy(h[:], suffix[4:4+hashSize])
	return height, h
}

// parseByTimeKey extracts (ps, hash) from an m/M-tagged key suffix.
func parseByTimeKey(suffix []byte) (uint32, chainhash.Hash) {
	ps := byteOrder.Uint32(suffix[:4])
	var h chainhash.Hash
	copy(h[:], suffix[4:4+hashSize])
	return ps, h
}

// parseAcctPrefixedHashKey extracts (account, hash) from a T/P-tagged key
// suffix.
func parseAcctPrefixedHashKey(suffix []byte) (uint32, chainhash.Hash) {
	acct := byteOrder.Uint32(suffix[:4])
	var h chainhash.Hash
	copy(h[:], suffix[4:4+hashSize])
	return acct, h
}

// parseAcctByHeightKey extracts (account, height, hash) from an H-tagged
// key suffix.
func parseAcctByHeightKey(suffix []byte) (uint32, int32, chainhash.Hash) {
	acct := byteOrder.Uint32(suffix[:4])
	height := int32(byteOrder.Uint32(suffix[4:8]))
	var h chainhash.Hash
	copy(h[:], suffix[8:8+hashSize])
	return acct, height, h
}

// parseAcctByTimeKey extracts (account, ps, hash) from an M-tagged key
// suffix.
func parseAcctByTimeKey(suffix []byte) (uint32, uint32, chainhash.Hash) {
	acct := byteOrder.Uint32(suffix[:4])
	ps := byteOrder.Uint32(suffix[4:8])
	var h chainhash.Hash
	copy(h[:], suffix[8:8+hashSize])
	return acct, ps, h
}

// parseAcctCreditKey extracts (account, hash, index) from a C-tagged key
// suffix.
func parseAcctCreditKey(suffix []byte) (uint32, chainhash.Hash, uint32) {
	acct := byteOrder.Uint32(suffix[:4])
	hash, index := parseOutpointSuffix(suffix[4:])
	return acct, hash, index
}

// innerTag returns the schema tag byte of a full wallet-scoped key, i.e.
// the byte immediately following tag+wallet-id.
func innerTag(k []byte) byte {
	return k[5]
}

// keySuffix returns the bytes following tag+wallet-id+inner-tag.
func keySuffix(k []byte) []byte {
	return k[6:]
}
