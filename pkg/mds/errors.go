package mds

import (
	"errors"
	"fmt"
)

// Kind classifies a metadata store failure. The HTTP layer maps each kind
// to its own status code, so the classification must survive wrapping.
type Kind int

const (
	// KindConnect means the session could not be established.
	KindConnect Kind = iota + 1

	// KindExec means a statement failed to execute.
	KindExec

	// KindCommit means pending mutations failed to commit.
	KindCommit
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindExec:
		return "execute"
	case KindCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Error is a classified metadata store failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mds %s failed: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsConnect reports whether err is a metadata connect failure.
func IsConnect(err error) bool { return hasKind(err, KindConnect) }

// IsExec reports whether err is a metadata execute failure.
func IsExec(err error) bool { return hasKind(err, KindExec) }

// IsCommit reports whether err is a metadata commit failure.
func IsCommit(err error) bool { return hasKind(err, KindCommit) }

func hasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
