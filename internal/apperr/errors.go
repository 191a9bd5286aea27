// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("checksum mismatch")
	ErrUnparseable       = errors.New("unparseable payload")
	ErrInvalidNote       = errors.New("invalid note")
	ErrUnknownNote       = errors.New("unknown note")
	ErrCommitFailed      = errors.New("commit failed")
	ErrAlignPrecondition = errors.New("align requires at least two selected notes")
	ErrInvalidAxis       = errors.New("invalid axis")
)
