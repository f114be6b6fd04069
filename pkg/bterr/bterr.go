// Package bterr defines the fixed set of error kinds the tree engine and its
// collaborators can return. Each kind is a plain sentinel error so callers
// use errors.Is; I/O failures are wrapped with fmt.Errorf("...: %w", err) so
// the underlying os error survives alongside the kind.
package bterr

import "errors"

var (
	// ErrInvalidArgument is returned for a null/absent required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIncompatibleVersion is returned when an on-disk tree_order exceeds
	// the compiled order, or block_size/header_size don't match the
	// compiled layout.
	ErrIncompatibleVersion = errors.New("incompatible version")

	// ErrCorrupt is returned when a decoded block's checksum doesn't match
	// its contents. Distinct from ErrIncompatibleVersion: the layout is
	// structurally fine, the bytes are not what was written.
	ErrCorrupt = errors.New("corrupt block")

	// ErrNoMemory is returned when the node buffer could not be allocated.
	ErrNoMemory = errors.New("no memory")

	// ErrTreeEmpty is returned by operations that require a non-empty tree.
	ErrTreeEmpty = errors.New("tree is empty")

	// ErrCreateFile, ErrOpenFile, ErrCloseFile, ErrReadFile, ErrWriteFile,
	// and ErrMoveFile mirror the reference implementation's I/O error kinds.
	ErrCreateFile = errors.New("cannot create index file")
	ErrOpenFile   = errors.New("cannot open index file")
	ErrCloseFile  = errors.New("cannot close index file")
	ErrReadFile   = errors.New("cannot read index file")
	ErrWriteFile  = errors.New("cannot write index file")
	ErrMoveFile   = errors.New("cannot move within index file")

	// ErrBusy is returned when a reentrant call is attempted while another
	// engine operation is already in flight. See the reentrancy guard
	// described in the resource model.
	ErrBusy = errors.New("engine operation already in progress")
)
