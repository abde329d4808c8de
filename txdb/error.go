// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import "fmt"

// ErrorCode identifies a kind of error returned by the txdb package.
type ErrorCode int

const (
	// ErrDatabase indicates an error with the underlying KV store.  The
	// batch that produced it has already been dropped; committed state
	// is unchanged.
	ErrDatabase ErrorCode = iota

	// ErrData indicates corrupt or unexpected on-disk data was read back
	// out of the store.
	ErrData

	// ErrPrecondition indicates the caller violated a precondition of the
	// operation, e.g. confirming a transaction that isn't pending, or
	// abandoning one that is already mined.
	ErrPrecondition

	// ErrInvariant indicates an invariant the store depends on does not
	// hold, e.g. a spent marker with no backing undo coin.  This should
	// never happen against an uncorrupted store; see assert.
	ErrInvariant

	// ErrNotFound indicates a benign lookup miss.  Callers should treat
	// this as an empty result, not a failure.
	ErrNotFound
)

var errorCodeStrings = map[ErrorCode]string{
	ErrDatabase:     "ErrDatabase",
	ErrData:         "ErrData",
	ErrPrecondition: "ErrPrecondition",
	ErrInvariant:    "ErrInvariant",
	ErrNotFound:     "ErrNotFound",
}

func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error satisfies the error interface and describes a txdb failure.
type Error struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

func (e Error) Unwrap() error {
	return e.Err
}

func storeError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// assert panics with an ErrInvariant-coded Error when cond is false.  It
// encodes a state that cannot occur in a correct implementation; it is not a
// user-visible failure mode and should never fire against an uncorrupted
// store.
func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(storeError(ErrInvariant, fmt.Sprintf(format, args...), nil))
	}
}
