// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// mempoolHeight is the sentinel height recorded for an output or
// transaction that has not yet been confirmed in a block.
const mempoolHeight = -1

// Outpoint identifies a transaction output by the hash of its owning
// transaction and its output index.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Bytes returns the canonical value-encoding of an outpoint: hash followed
// by the output index in little-endian. This is distinct from the
// big-endian ordering used for the same fields when they appear in a key,
// where lexicographic order must match numeric order for range scans.
func (o Outpoint) Bytes() []byte {
	b := make([]byte, hashSize+4)
	copy(b, o.Hash[:])
	binary_LE.PutUint32(b[hashSize:], o.Index)
	return b
}

// DecodeOutpoint parses the value-encoding produced by Outpoint.Bytes.
func DecodeOutpoint(b []byte) (Outpoint, error) {
	if len(b) < hashSize+4 {
		return Outpoint{}, storeError(ErrData, "short outpoint", nil)
	}
	var o Outpoint
	copy(o.Hash[:], b[:hashSize])
	o.Index = binary_LE.Uint32(b[hashSize : hashSize+4])
	return o, nil
}

// Coin is an output materialized from a transaction, along with enough
// context to know whether it is still live in the UTXO set from this
// wallet's perspective.
type Coin struct {
	Outpoint   Outpoint
	Value      int64
	Script     []byte
	Height     int32 // mempoolHeight (-1) if not yet confirmed
	Coinbase   bool
}

// Bytes returns the binary encoding of a Coin's value fields. The outpoint
// is not included: callers always know it from the key the Coin was
// stored or looked up under.
func (c *Coin) Bytes() []byte {
	b := make([]byte, 0, 8+4+1+4+len(c.Script))
	var tmp8 [8]byte
	binary_LE.PutUint64(tmp8[:], uint64(c.Value))
	b = append(b, tmp8[:]...)

	var tmp4 [4]byte
	binary_LE.PutUint32(tmp4[:], uint32(c.Height))
	b = append(b, tmp4[:]...)

	if c.Coinbase {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}

	binary_LE.PutUint32(tmp4[:], uint32(len(c.Script)))
	b = append(b, tmp4[:]...)
	b = append(b, c.Script...)
	return b
}

// DecodeCoin parses the encoding produced by Coin.Bytes. The caller must
// fill in Outpoint from the surrounding key.
func DecodeCoin(b []byte) (Coin, error) {
	if len(b) < 17 {
		return Coin{}, storeError(ErrData, "short coin", nil)
	}
	var c Coin
	c.Value = int64(binary_LE.Uint64(b[0:8]))
	c.Height = int32(binary_LE.Uint32(b[8:12]))
	c.Coinbase = b[12] != 0
	scriptLen := binary_LE.Uint32(b[13:17])
	if uint32(len(b)-17) < scriptLen {
		return Coin{}, storeError(ErrData, "short coin script", nil)
	}
	c.Script = append([]byte(nil), b[17:17+scriptLen]...)
	return c, nil
}

// IsMempool reports whether the coin has not yet been confirmed.
func (c *Coin) IsMempool() bool { return c.Height == mempoolHeight }

// Credit is a Coin this wallet owns, plus whether a mempool spend of it has
// already been observed. A spent credit is still counted toward the
// confirmed balance but excluded from spendable-coin enumeration.
type Credit struct {
	Coin  Coin
	Spent bool
}

// Bytes returns the binary encoding of a Credit: the Coin encoding
// followed by a single spent-flag byte.
func (c *Credit) Bytes() []byte {
	coinBytes := c.Coin.Bytes()
	b := make([]byte, len(coinBytes)+1)
	copy(b, coinBytes)
	if c.Spent {
		b[len(coinBytes)] = 1
	}
	return b
}

// DecodeCredit parses the encoding produced by Credit.Bytes.
func DecodeCredit(b []byte) (Credit, error) {
	if len(b) < 1 {
		return Credit{}, storeError(ErrData, "short credit", nil)
	}
	coin, err := DecodeCoin(b[:len(b)-1])
	if err != nil {
		return Credit{}, err
	}
	return Credit{Coin: coin, Spent: b[len(b)-1] != 0}, nil
}

// BlockRecord is the persisted summary of a block that contains at least
// one transaction relevant to this wallet.
type BlockRecord struct {
	Hash         chainhash.Hash
	Height       int32
	Time         uint32
	Transactions []chainhash.Hash
}

// Bytes returns the binary encoding of a BlockRecord: block hash, height,
// unix time, transaction count, then the transaction hashes in order.
func (b *BlockRecord) Bytes() []byte {
	out := make([]byte, 0, hashSize+4+4+4+hashSize*len(b.Transactions))
	out = append(out, b.Hash[:]...)
	var tmp4 [4]byte
	binary_LE.PutUint32(tmp4[:], uint32(b.Height))
	out = append(out, tmp4[:]...)
	binary_LE.PutUint32(tmp4[:], b.Time)
	out = append(out, tmp4[:]...)
	binary_LE.PutUint32(tmp4[:], uint32(len(b.Transactions)))
	out = append(out, tmp4[:]...)
	for _, h := range b.Transactions {
		out = append(out, h[:]...)
	}
	return out
}

// DecodeBlockRecord parses the encoding produced by BlockRecord.Bytes.
func DecodeBlockRecord(v []byte) (BlockRecord, error) {
	if len(v) < hashSize+12 {
		return BlockRecord{}, storeError(ErrData, "short block record", nil)
	}
	var rec BlockRecord
	copy(rec.Hash[:], v[:hashSize])
	off := hashSize
	rec.Height = int32(binary_LE.Uint32(v[off : off+4]))
	off += 4
	rec.Time = binary_LE.Uint32(v[off : off+4])
	off += 4
	n := binary_LE.Uint32(v[off : off+4])
	off += 4
	if len(v) < off+int(n)*hashSize {
		return BlockRecord{}, storeError(ErrData, "short block record tx list", nil)
	}
	rec.Transactions = make([]chainhash.Hash, n)
	for i := range rec.Transactions {
		copy(rec.Transactions[i][:], v[off:off+hashSize])
		off += hashSize
	}
	return rec, nil
}

// removeTx drops a hash from a block record's transaction list, returning
// whether the record is now empty (and so should be deleted entirely).
func (b *BlockRecord) removeTx(hash chainhash.Hash) (empty bool) {
	for i, h := range b.Transactions {
		if h == hash {
			b.Transactions = append(b.Transactions[:i], b.Transactions[i+1:]...)
			break
		}
	}
	return len(b.Transactions) == 0
}

// TXDBState is the persisted singleton counter record for a wallet.
type TXDBState struct {
	TxCount     uint64
	CoinCount   uint64
	Unconfirmed uint64
	Confirmed   uint64
}

// Bytes returns the binary encoding of a TXDBState: four little-endian
// uint64 counters.
func (s TXDBState) Bytes() []byte {
	b := make([]byte, 32)
	binary_LE.PutUint64(b[0:8], s.TxCount)
	binary_LE.PutUint64(b[8:16], s.CoinCount)
	binary_LE.PutUint64(b[16:24], s.Unconfirmed)
	binary_LE.PutUint64(b[24:32], s.Confirmed)
	return b
}

// DecodeTXDBState parses the encoding produced by TXDBState.Bytes.
func DecodeTXDBState(b []byte) (TXDBState, error) {
	if len(b) < 32 {
		return TXDBState{}, storeError(ErrData, "short txdb state", nil)
	}
	return TXDBState{
		TxCount:     binary_LE.Uint64(b[0:8]),
		CoinCount:   binary_LE.Uint64(b[8:16]),
		Unconfirmed: binary_LE.Uint64(b[16:24]),
		Confirmed:   binary_LE.Uint64(b[24:32]),
	}, nil
}

// clone returns a copy of the state, used as the pending draft a batch
// mutates before it is committed in place of the previous committed state.
func (s TXDBState) clone() TXDBState { return s }

// Balance is the externally visible view of a wallet's (or account's)
// coin totals.
type Balance struct {
	TxCount     uint64
	CoinCount   uint64
	Unconfirmed btcutil.Amount
	Confirmed   btcutil.Amount
}

// Path is the resolved wallet account path for an address we own. It is
// opaque outside the wallet's key-derivation subsystem beyond the account
// index, which is all the TXDB schema needs for its per-account indices.
type Path struct {
	Account uint32
}

// DetailsMember is the per-input or per-output projection built while
// indexing a transaction: the resolved address, value, and wallet path (if
// any) for that input or output.
type DetailsMember struct {
	Address string
	Value   int64
	Path    *Path // nil if this input/output is not ours
}

// Owned reports whether this member belongs to a wallet account.
func (m DetailsMember) Owned() bool { return m.Path != nil }

// Details is the full per-transaction projection returned by queries:
// resolved addresses and values for every input and output, plus the
// sorted set of accounts the transaction touches.
type Details struct {
	Hash     chainhash.Hash
	Tx       *wire.MsgTx
	Height   int32
	PS       uint32
	Inputs   []DetailsMember
	Outputs  []DetailsMember
	Accounts []uint32
}

// addAccount inserts acct into the Details' sorted, deduplicated account
// set.
func (d *Details) addAccount(acct uint32) {
	for _, a := range d.Accounts {
		if a == acct {
			return
		}
	}
	d.Accounts = append(d.Accounts, acct)
	// Keep the set sorted; the set is small (wallet account counts are
	// small in practice) so an insertion sort is adequate.
	for i := len(d.Accounts) - 1; i > 0 && d.Accounts[i-1] > d.Accounts[i]; i-- {
		d.Accounts[i-1], d.Accounts[i] = d.Accounts[i], d.Accounts[i-1]
	}
}

// extTX is the in-memory representation of a wallet-indexed transaction:
// the canonical wire transaction plus the wallet-local metadata appended
// by the extended encoding.
type extTX struct {
	MsgTx     *wire.MsgTx
	Hash      chainhash.Hash
	PS        uint32 // pending-seen: local unix time of first sight, never mutated
	Height    int32  // mempoolHeight (-1) if unconfirmed
	BlockHash chainhash.Hash
	BlockTime uint32
	Index     uint32 // position within the block
}

// Bytes returns the extended encoding: canonical tx bytes, followed by
// ps, height, block hash, block time, and index.
func (t *extTX) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.MsgTx.Serialize(&buf); err != nil {
		return nil, storeError(ErrData, "failed to serialize tx", err)
	}
	tail := make([]byte, 4+4+hashSize+4+4)
	off := 0
	binary_LE.PutUint32(tail[off:], t.PS)
	off += 4
	binary_LE.PutUint32(tail[off:], uint32(t.Height))
	off += 4
	copy(tail[off:], t.BlockHash[:])
	off += hashSize
	binary_LE.PutUint32(tail[off:], t.BlockTime)
	off += 4
	binary_LE.PutUint32(tail[off:], t.Index)
	buf.Write(tail)
	return buf.Bytes(), nil
}

// decodeExtTX parses the extended encoding produced by extTX.Bytes.
func decodeExtTX(hash chainhash.Hash, b []byte) (*extTX, error) {
	const tailLen = 4 + 4 + hashSize + 4 + 4
	if len(b) < tailLen {
		return nil, storeError(ErrData, "short extended tx record", nil)
	}
	txBytes, tail := b[:len(b)-tailLen], b[len(b)-tailLen:]

	msgTx := new(wire.MsgTx)
	if err := msgTx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, storeError(ErrData, fmt.Sprintf("failed to deserialize tx %v", hash), err)
	}

	t := &extTX{MsgTx: msgTx, Hash: hash}
	off := 0
	t.PS = binary_LE.Uint32(tail[off:])
	off += 4
	t.Height = int32(binary_LE.Uint32(tail[off:]))
	off += 4
	copy(t.BlockHash[:], tail[off:off+hashSize])
	off += hashSize
	t.BlockTime = binary_LE.Uint32(tail[off:])
	off += 4
	t.Index = binary_LE.Uint32(tail[off:])
	return t, nil
}

// IsMempool reports whether the transaction has not yet been confirmed.
func (t *extTX) IsMempool() bool { return t.Height == mempoolHeight }
