// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"math"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Add is the write entry point for both mempool and confirmed
// transactions. block is nil for a mempool transaction. seen is the
// wallet-local time of first sight, recorded as ps on a fresh insert and
// otherwise ignored.
func (s *Store) Add(ns Bucket, tx *wire.MsgTx, block *BlockMeta, seen time.Time) error {
	s.start()
	if err := s.add(ns, tx, block, seen); err != nil {
		s.drop()
		return err
	}
	return s.commit(ns)
}

// Confirm marks a mempool transaction as confirmed in block.
func (s *Store) Confirm(ns Bucket, hash chainhash.Hash, block *BlockMeta) error {
	s.start()
	if err := s.confirm(ns, hash, block); err != nil {
		s.drop()
		return err
	}
	return s.commit(ns)
}

// Disconnect reverts a confirmed transaction back to mempool, the inverse
// of Confirm. Used when the block it was mined in is reorganized away.
func (s *Store) Disconnect(ns Bucket, hash chainhash.Hash) error {
	s.start()
	if err := s.disconnect(ns, hash); err != nil {
		s.drop()
		return err
	}
	return s.commit(ns)
}

// Remove wipes a transaction and every descendant that spends one of its
// outputs, recursively.
func (s *Store) Remove(ns Bucket, hash chainhash.Hash) error {
	tx, err := s.getTX(ns, hash)
	if err != nil {
		return err
	}
	if tx == nil {
		return nil
	}
	return s.removeRecursiveTx(ns, tx)
}

// Abandon requires hash to currently be a pending (mempool) transaction,
// then removes it and its descendants.
func (s *Store) Abandon(ns Bucket, hash chainhash.Hash) error {
	if ns.Get(keyPending(s.wid, &hash)) == nil {
		return storeError(ErrPrecondition, "abandon: transaction is not pending", nil)
	}
	return s.Remove(ns, hash)
}

// add is the unexported body of the Add entry point: it dispatches
// between an already-indexed transaction (no-op or confirm-in-place),
// a transaction tainted by a still-pending RBF replacement, and a fresh
// insert.
func (s *Store) add(ns Bucket, tx *wire.MsgTx, block *BlockMeta, seen time.Time) error {
	hash := tx.TxHash()

	existing, err := s.getTX(ns, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		switch {
		case !existing.IsMempool():
			return nil
		case block == nil:
			return nil
		default:
			return s.confirm(ns, hash, block)
		}
	}

	if block == nil {
		if s.isRBF(ns, tx) {
			s.put(keyRBF(s.wid, &hash), []byte{1})
			return nil
		}
		ok, err := s.removeConflicts(ns, tx, true)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return s.insert(ns, tx, nil, seen)
	}

	if _, err := s.removeConflicts(ns, tx, false); err != nil {
		return err
	}
	s.del(keyRBF(s.wid, &hash))
	return s.insert(ns, tx, block, seen)
}

// insert indexes a freshly-seen transaction: it records the tx itself,
// resolves and credits/spends each input and output against the wallet's
// own key paths, and updates the pending balance.
func (s *Store) insert(ns Bucket, tx *wire.MsgTx, block *BlockMeta, seen time.Time) error {
	hash := tx.TxHash()
	height := int32(mempoolHeight)
	if block != nil {
		height = block.Height
	}
	ps := uint32(seen.Unix())
	coinbase := isCoinbaseTx(tx)

	details := &Details{
		Hash:    hash,
		Tx:      tx,
		Height:  height,
		PS:      ps,
		Inputs:  make([]DetailsMember, len(tx.TxIn)),
		Outputs: make([]DetailsMember, len(tx.TxOut)),
	}

	touched := false

	if !coinbase && s.opts.Resolution {
		deferred, err := s.deferOrphans(ns, tx, hash, block, ps)
		if err != nil {
			return err
		}
		if deferred {
			s.clear()
			return nil
		}
	}

	if !coinbase {
		for i, in := range tx.TxIn {
			prev := in.PreviousOutPoint
			credit, err := s.getCredit(ns, prev.Hash, prev.Index)
			if err != nil {
				return err
			}
			if credit == nil {
				s.put(keySpent(s.wid, &prev.Hash, prev.Index),
					Outpoint{Hash: hash, Index: uint32(i)}.Bytes())
				continue
			}
			touched = true

			addr, path, _, err := s.resolver.GetPath(credit.Coin.Script)
			if err != nil {
				return err
			}

			s.spendCredit(prev.Hash, prev.Index, hash, uint32(i), credit)
			s.b.decCoin()
			s.b.addUnconfirmed(-credit.Coin.Value)
			if block == nil {
				credit.Spent = true
				if err := s.saveCredit(prev.Hash, prev.Index, credit); err != nil {
					return err
				}
			} else {
				s.b.addConfirmed(-credit.Coin.Value)
				if err := s.removeCredit(prev.Hash, prev.Index, credit); err != nil {
					return err
				}
			}

			details.Inputs[i] = DetailsMember{Address: addr, Value: credit.Coin.Value, Path: path}
			if path != nil {
				details.addAccount(path.Account)
			}
		}
	}

	for i, out := range tx.TxOut {
		addr, path, ok, err := s.resolver.GetPath(out.PkScript)
		if err != nil {
			return err
		}
		if !ok {
			details.Outputs[i] = DetailsMember{Address: addr}
		} else {
			touched = true

			resolved, err := s.resolveInput(ns, hash, uint32(i), out.Value, out.PkScript, block)
			if err != nil {
				return err
			}
			if !resolved {
				credit := &Credit{Coin: Coin{
					Outpoint: Outpoint{Hash: hash, Index: uint32(i)},
					Value:    out.Value,
					Script:   out.PkScript,
					Height:   height,
					Coinbase: coinbase,
				}}
				if err := s.saveCredit(hash, uint32(i), credit); err != nil {
					return err
				}
				s.b.incCoin()
				s.b.addUnconfirmed(out.Value)
				if block != nil {
					s.b.addConfirmed(out.Value)
				}
			}

			details.Outputs[i] = DetailsMember{Address: addr, Value: out.Value, Path: path}
			details.addAccount(path.Account)
		}

		// An orphan may be waiting on this exact outpoint regardless of
		// whether it belongs to this wallet: the heuristic that stashed it
		// only recognized the spending input, not the prevout it guessed
		// at. resolveOrphans discards the guess if no credit materialized.
		if s.opts.Resolution {
			if err := s.resolveOrphans(ns, Outpoint{Hash: hash, Index: uint32(i)}); err != nil {
				return err
			}
		}
	}

	if !touched {
		s.clear()
		return nil
	}

	ext := &extTX{MsgTx: tx, Hash: hash, PS: ps, Height: height}
	if block != nil {
		ext.BlockHash = block.Hash
		ext.BlockTime = block.Time
	}
	rec, err := ext.Bytes()
	if err != nil {
		return err
	}
	s.put(keyTx(s.wid, &hash), rec)
	s.put(keyByTime(s.wid, ps, &hash), nil)
	if block == nil {
		s.put(keyPending(s.wid, &hash), nil)
	} else {
		s.put(keyByHeight(s.wid, height, &hash), nil)
	}
	for _, acct := range details.Accounts {
		s.put(keyAcctTx(s.wid, acct, &hash), nil)
		s.put(keyAcctByTime(s.wid, acct, ps, &hash), nil)
		if block == nil {
			s.put(keyAcctPending(s.wid, acct, &hash), nil)
		} else {
			s.put(keyAcctByHeight(s.wid, acct, height, &hash), nil)
		}
	}

	if block != nil {
		if err := s.addToBlock(ns, *block, hash); err != nil {
			return err
		}
	}

	s.b.incTx()

	for _, in := range tx.TxIn {
		delete(s.locked, Outpoint{Hash: in.PreviousOutPoint.Hash, Index: in.PreviousOutPoint.Index})
	}

	s.emit(EventTx, ext, details)
	s.emit(EventBalance, s.pendingBalance(), details)
	return nil
}

// confirm is the unexported body of the Confirm entry point.
func (s *Store) confirm(ns Bucket, hash chainhash.Hash, block *BlockMeta) error {
	assert(block != nil, "confirm called with a nil block")
	tx, err := s.getTX(ns, hash)
	if err != nil {
		return err
	}
	if tx == nil || !tx.IsMempool() {
		return storeError(ErrPrecondition, "confirm: transaction is not pending", nil)
	}

	spent, err := s.getSpentCredits(ns, hash)
	if err != nil {
		return err
	}
	if !isCoinbaseTx(tx.MsgTx) {
		for i, in := range tx.MsgTx.TxIn {
			prev := in.PreviousOutPoint
			if i < len(spent) && spent[i] != nil {
				s.b.addConfirmed(-spent[i].Coin.Value)
				if err := s.removeCredit(prev.Hash, prev.Index, spent[i]); err != nil {
					return err
				}
				continue
			}
			credit, err := s.getCredit(ns, prev.Hash, prev.Index)
			if err != nil {
				return err
			}
			if credit == nil {
				continue
			}
			s.spendCredit(prev.Hash, prev.Index, hash, uint32(i), credit)
			s.b.decCoin()
			s.b.addUnconfirmed(-credit.Coin.Value)
			s.b.addConfirmed(-credit.Coin.Value)
			if err := s.removeCredit(prev.Hash, prev.Index, credit); err != nil {
				return err
			}
		}
	}

	for i := range tx.MsgTx.TxOut {
		credit, err := s.getCredit(ns, hash, uint32(i))
		if err != nil {
			return err
		}
		if credit == nil {
			continue
		}
		credit.Coin.Height = block.Height
		if err := s.saveCredit(hash, uint32(i), credit); err != nil {
			return err
		}
		s.b.addConfirmed(credit.Coin.Value)
		if credit.Spent {
			undo, err := s.getUndoByOutput(ns, hash, uint32(i))
			if err != nil {
				return err
			}
			if undo != nil {
				undo.Coin.Height = block.Height
				s.saveUndo(undo.spenderHash, undo.spenderIndex, &undo.Credit)
			}
		}
	}

	s.del(keyRBF(s.wid, &hash))

	tx.Height = block.Height
	tx.BlockHash = block.Hash
	tx.BlockTime = block.Time
	rec, err := tx.Bytes()
	if err != nil {
		return err
	}
	s.put(keyTx(s.wid, &hash), rec)
	s.del(keyPending(s.wid, &hash))
	s.put(keyByHeight(s.wid, block.Height, &hash), nil)

	accts, err := s.accountsForTx(ns, hash, tx.MsgTx)
	if err != nil {
		return err
	}
	for _, acct := range accts {
		s.del(keyAcctPending(s.wid, acct, &hash))
		s.put(keyAcctByHeight(s.wid, acct, block.Height, &hash), nil)
	}

	if err := s.addToBlock(ns, *block, hash); err != nil {
		return err
	}

	s.emit(EventConfirmed, tx, accts)
	s.emit(EventBalance, s.pendingBalance(), accts)
	return nil
}

// disconnect is the unexported body of the Disconnect entry point.
func (s *Store) disconnect(ns Bucket, hash chainhash.Hash) error {
	tx, err := s.getTX(ns, hash)
	if err != nil {
		return err
	}
	if tx == nil || tx.IsMempool() {
		return storeError(ErrPrecondition, "disconnect: transaction is not confirmed", nil)
	}
	block := BlockMeta{Hash: tx.BlockHash, Height: tx.Height, Time: tx.BlockTime}

	if !isCoinbaseTx(tx.MsgTx) {
		for i, in := range tx.MsgTx.TxIn {
			prev := in.PreviousOutPoint
			undo, err := s.getUndo(ns, hash, uint32(i))
			if err != nil {
				return err
			}
			if undo == nil {
				continue
			}
			undo.Spent = true
			s.b.addConfirmed(undo.Coin.Value)
			if err := s.saveCredit(prev.Hash, prev.Index, undo); err != nil {
				return err
			}
		}
	}

	for i := range tx.MsgTx.TxOut {
		credit, err := s.getCredit(ns, hash, uint32(i))
		if err != nil {
			return err
		}
		if credit != nil {
			credit.Coin.Height = mempoolHeight
			s.b.addConfirmed(-credit.Coin.Value)
			if err := s.saveCredit(hash, uint32(i), credit); err != nil {
				return err
			}
			continue
		}
		undo, err := s.getUndoByOutput(ns, hash, uint32(i))
		if err != nil {
			return err
		}
		if undo != nil {
			undo.Coin.Height = mempoolHeight
			s.saveUndo(undo.spenderHash, undo.spenderIndex, &undo.Credit)
		}
	}

	if err := s.removeFromBlock(ns, block, hash); err != nil {
		return err
	}

	tx.Height = mempoolHeight
	tx.BlockHash = chainhash.Hash{}
	tx.BlockTime = 0
	rec, err := tx.Bytes()
	if err != nil {
		return err
	}
	s.put(keyTx(s.wid, &hash), rec)
	s.del(keyByHeight(s.wid, block.Height, &hash))
	s.put(keyPending(s.wid, &hash), nil)

	accts, err := s.accountsForTx(ns, hash, tx.MsgTx)
	if err != nil {
		return err
	}
	for _, acct := range accts {
		s.del(keyAcctByHeight(s.wid, acct, block.Height, &hash))
		s.put(keyAcctPending(s.wid, acct, &hash), nil)
	}

	s.emit(EventUnconfirmed, tx, accts)
	s.emit(EventBalance, s.pendingBalance(), accts)
	return nil
}

// erase wipes every trace of tx regardless of confirmation state.
func (s *Store) erase(ns Bucket, tx *extTX) error {
	hash := tx.Hash
	mined := !tx.IsMempool()

	if !isCoinbaseTx(tx.MsgTx) {
		for i, in := range tx.MsgTx.TxIn {
			prev := in.PreviousOutPoint
			undo, err := s.getUndo(ns, hash, uint32(i))
			if err != nil {
				return err
			}
			if undo != nil {
				s.b.incCoin()
				s.b.addUnconfirmed(undo.Coin.Value)
				if mined {
					s.b.addConfirmed(undo.Coin.Value)
				}
				s.del(keySpent(s.wid, &prev.Hash, prev.Index))
				s.del(keyUndo(s.wid, &hash, uint32(i)))
				undo.Spent = false
				if err := s.saveCredit(prev.Hash, prev.Index, undo); err != nil {
					return err
				}
			} else {
				s.del(keySpent(s.wid, &prev.Hash, prev.Index))
			}
		}
	}

	for i := range tx.MsgTx.TxOut {
		credit, err := s.getCredit(ns, hash, uint32(i))
		if err != nil {
			return err
		}
		if credit == nil {
			continue
		}
		if err := s.removeCredit(hash, uint32(i), credit); err != nil {
			return err
		}
		s.b.decCoin()
		s.b.addUnconfirmed(-credit.Coin.Value)
		if mined {
			s.b.addConfirmed(-credit.Coin.Value)
		}
	}

	s.del(keyRBF(s.wid, &hash))
	s.del(keyTx(s.wid, &hash))
	s.del(keyByTime(s.wid, tx.PS, &hash))
	if mined {
		s.del(keyByHeight(s.wid, tx.Height, &hash))
	} else {
		s.del(keyPending(s.wid, &hash))
	}

	accts, err := s.accountsForTx(ns, hash, tx.MsgTx)
	if err != nil {
		return err
	}
	for _, acct := range accts {
		s.del(keyAcctTx(s.wid, acct, &hash))
		s.del(keyAcctByTime(s.wid, acct, tx.PS, &hash))
		if mined {
			s.del(keyAcctByHeight(s.wid, acct, tx.Height, &hash))
		} else {
			s.del(keyAcctPending(s.wid, acct, &hash))
		}
	}

	if mined {
		block := BlockMeta{Hash: tx.BlockHash, Height: tx.Height, Time: tx.BlockTime}
		if err := s.removeFromBlock(ns, block, hash); err != nil {
			return err
		}
	}

	s.b.decTx()
	s.emit(EventRemoveTx, tx, accts)
	s.emit(EventBalance, s.pendingBalance(), accts)
	return nil
}

// removeRecursiveTx erases tx and, first, every descendant spending one of
// its outputs. Each erase runs in its own start/commit sub-batch so a long
// spend chain does not hold one unbounded batch in memory.
func (s *Store) removeRecursiveTx(ns Bucket, tx *extTX) error {
	hash := tx.Hash
	for i := range tx.MsgTx.TxOut {
		v := ns.Get(keySpent(s.wid, &hash, uint32(i)))
		if v == nil {
			continue
		}
		spenderOp, err := DecodeOutpoint(v)
		if err != nil {
			return err
		}
		spender, err := s.getTX(ns, spenderOp.Hash)
		if err != nil {
			return err
		}
		if spender == nil {
			continue
		}
		if err := s.removeRecursiveTx(ns, spender); err != nil {
			return err
		}
	}

	s.start()
	if err := s.erase(ns, tx); err != nil {
		s.drop()
		return err
	}
	return s.commit(ns)
}

// removeConflicts gathers, for each input of tx, any existing spender and
// decides whether the incoming tx may proceed. When conf is true (tx is
// about to be inserted as mempool) and any conflicting spender is already
// confirmed, it aborts by returning ok=false without removing anything.
func (s *Store) removeConflicts(ns Bucket, tx *wire.MsgTx, conf bool) (ok bool, err error) {
	if isCoinbaseTx(tx) {
		return true, nil
	}
	hash := tx.TxHash()

	var spenders []*extTX
	for _, in := range tx.TxIn {
		prev := in.PreviousOutPoint
		v := ns.Get(keySpent(s.wid, &prev.Hash, prev.Index))
		if v == nil {
			continue
		}
		spenderOp, err := DecodeOutpoint(v)
		if err != nil {
			return false, err
		}
		if spenderOp.Hash == hash {
			continue
		}
		spender, err := s.getTX(ns, spenderOp.Hash)
		if err != nil {
			return false, err
		}
		if spender == nil {
			continue
		}
		if conf && !spender.IsMempool() {
			return false, nil
		}
		spenders = append(spenders, spender)
	}

	for _, spender := range spenders {
		if err := s.removeConflict(ns, spender); err != nil {
			return false, err
		}
	}
	return true, nil
}

// removeConflict drops the in-progress batch, recursively removes the
// conflicting spender in its own sub-batches, then reopens a fresh batch
// so the caller's body can resume. This is the only place a batch is
// rotated mid-call.
func (s *Store) removeConflict(ns Bucket, spender *extTX) error {
	s.drop()
	if err := s.removeRecursiveTx(ns, spender); err != nil {
		s.start()
		return err
	}
	s.start()
	s.emit(EventConflict, spender)
	return nil
}

// resolveInput checks whether output (hash, index) resolves a previously
// recorded bare spent marker, i.e. the spending tx arrived before this
// output did. If so the spender's undo coin is written (unless one is
// already recorded) and resolved is true; the caller must not also create a fresh credit for the output.
func (s *Store) resolveInput(ns Bucket, hash chainhash.Hash, index uint32, value int64, script []byte, block *BlockMeta) (resolved bool, err error) {
	v := ns.Get(keySpent(s.wid, &hash, index))
	if v == nil {
		return false, nil
	}
	spenderOp, err := DecodeOutpoint(v)
	if err != nil {
		return false, err
	}
	spender, err := s.getTX(ns, spenderOp.Hash)
	if err != nil {
		return false, err
	}
	if spender == nil {
		return false, nil
	}
	height := int32(mempoolHeight)
	if block != nil {
		height = block.Height
	}
	undo, err := s.getUndo(ns, spenderOp.Hash, spenderOp.Index)
	if err != nil {
		return false, err
	}
	if undo == nil {
		c := &Credit{Coin: Coin{
			Outpoint: Outpoint{Hash: hash, Index: index},
			Value:    value,
			Script:   script,
			Height:   height,
		}}
		s.spendCredit(hash, index, spenderOp.Hash, spenderOp.Index, c)
	}
	if spender.IsMempool() {
		credit := &Credit{Coin: Coin{
			Outpoint: Outpoint{Hash: hash, Index: index},
			Value:    value,
			Script:   script,
			Height:   height,
		}, Spent: true}
		if err := s.saveCredit(hash, index, credit); err != nil {
			return false, err
		}
		s.b.incCoin()
		if block != nil {
			s.b.addConfirmed(value)
		}
	}
	return true, nil
}

// deferOrphans is the SPV entry point into the orphan tracker: if
// any of tx's inputs spend a prevout this wallet hasn't indexed yet, and
// the input's signature script or witness reveals a public key the
// resolver recognizes, the whole transaction is stashed rather than
// partially indexed — insert has no way to tell whether the unresolved
// prevout belongs to the wallet, so it cannot safely touch counters for
// the inputs it can resolve until every input clears. deferred is true
// when at least one input was stashed.
func (s *Store) deferOrphans(ns ReadBucket, tx *wire.MsgTx, hash chainhash.Hash, block *BlockMeta, ps uint32) (deferred bool, err error) {
	for _, in := range tx.TxIn {
		prev := in.PreviousOutPoint
		credit, err := s.getCredit(ns, prev.Hash, prev.Index)
		if err != nil {
			return false, err
		}
		if credit == nil && s.recognizesInput(in) {
			deferred = true
			break
		}
	}
	if !deferred {
		return false, nil
	}

	height := int32(mempoolHeight)
	if block != nil {
		height = block.Height
	}
	ext := &extTX{MsgTx: tx, Hash: hash, PS: ps, Height: height}
	if block != nil {
		ext.BlockHash = block.Hash
		ext.BlockTime = block.Time
	}
	for i, in := range tx.TxIn {
		prev := in.PreviousOutPoint
		credit, err := s.getCredit(ns, prev.Hash, prev.Index)
		if err != nil {
			return false, err
		}
		if credit != nil {
			continue
		}
		s.put(keySpent(s.wid, &prev.Hash, prev.Index),
			Outpoint{Hash: hash, Index: uint32(i)}.Bytes())
		s.orphans.add(Outpoint{Hash: prev.Hash, Index: prev.Index}, ext, uint32(i), block)
	}
	return true, nil
}

// resolveOrphans re-attempts insertion of every orphan waiting on op now
// that op has been indexed. A stashed transaction is only re-inserted once
// every one of its orphaned inputs has cleared, and then only if it
// survives verification when options.verify is set.
func (s *Store) resolveOrphans(ns Bucket, op Outpoint) error {
	credit, err := s.getCredit(ns, op.Hash, op.Index)
	if err != nil {
		return err
	}
	for _, e := range s.orphans.resolve(op) {
		if !s.orphans.resolved(e.tx.Hash) {
			continue
		}
		if credit == nil {
			// The heuristic that stashed this orphan guessed wrong: the
			// prevout it matched against was never ours.
			continue
		}
		if s.opts.Verify && !s.verifyInput(e.tx.MsgTx, e.inputIndex, &credit.Coin) {
			log.Warnf("txdb: orphan %v input %d failed verification against resolved prevout, dropping",
				e.tx.Hash, e.inputIndex)
			continue
		}
		if err := s.insert(ns, e.tx.MsgTx, e.block, time.Unix(int64(e.tx.PS), 0)); err != nil {
			return err
		}
	}
	return nil
}

// verifyInput runs the full script engine for tx's input at inputIndex
// against the now-known previous output coin, so an orphan resolved from
// scriptSig heuristics alone cannot be accepted on a false-positive match.
func (s *Store) verifyInput(tx *wire.MsgTx, inputIndex uint32, coin *Coin) bool {
	prevOut := &wire.TxOut{Value: coin.Value, PkScript: coin.Script}
	fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	vm, err := txscript.NewEngine(
		prevOut.PkScript, tx, int(inputIndex), txscript.StandardVerifyFlags,
		nil, sigHashes, prevOut.Value, fetcher,
	)
	if err != nil {
		return false
	}
	return vm.Execute() == nil
}

// recognizesInput reports whether in's signature script or witness reveals
// a public key whose P2PKH script the resolver recognizes as a wallet
// address. This is the only way an SPV wallet can guess that an input with
// an unseen prevout might be its own.
func (s *Store) recognizesInput(in *wire.TxIn) bool {
	if len(in.Witness) == 2 {
		if s.recognizesPubKey(in.Witness[1]) {
			return true
		}
	}
	pushes, err := txscript.PushedData(in.SignatureScript)
	if err == nil && len(pushes) > 0 {
		if s.recognizesPubKey(pushes[len(pushes)-1]) {
			return true
		}
	}
	return false
}

func (s *Store) recognizesPubKey(pk []byte) bool {
	if len(pk) != 33 && len(pk) != 65 {
		return false
	}
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(pk)).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return false
	}
	ok, err := s.resolver.HasPath(script)
	return err == nil && ok
}

// isRBF reports whether tx opts into replace-by-fee, or spends any
// outpoint whose parent tx is already tainted as an RBF replacement.
func (s *Store) isRBF(ns ReadBucket, tx *wire.MsgTx) bool {
	for _, in := range tx.TxIn {
		if in.Sequence < math.MaxUint32-1 {
			return true
		}
	}
	for _, in := range tx.TxIn {
		hash := in.PreviousOutPoint.Hash
		if ns.Get(keyRBF(s.wid, &hash)) != nil {
			return true
		}
	}
	return false
}

func isCoinbaseTx(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := tx.TxIn[0].PreviousOutPoint
	return prev.Index == math.MaxUint32 && prev.Hash == (chainhash.Hash{})
}
