package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnreachable = errors.New("bookmark service unreachable")
	ErrDecode      = errors.New("malformed bookmark service response")
)

// Kind classifies a service failure.
type Kind int

const (
	// KindUnreachable covers transport failures, timeouts and non-success statuses.
	KindUnreachable Kind = iota + 1
	// KindDecode means the body did not have the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	if k == KindDecode {
		return ErrDecode
	}
	return ErrUnreachable
}

// Error is returned by every Service call that fails.
// It matches ErrUnreachable or ErrDecode with errors.Is depending on its Kind.
type Error struct {
	Kind Kind
	Op   string // e.g. "list bookmarks"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func unreachable(op string, err error) *Error {
	return &Error{Kind: KindUnreachable, Op: op, Err: err}
}

func decodeFailure(op string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

// KindOf returns the Kind of err, or 0 if err is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}
