package types

import (
	"fmt"
)

// ErrMalformedInput means the data is structurally invalid: a hash of the
// wrong length, an unknown enum or version tag, a truncated encoding. It is
// detected while decoding, before any verification runs.
type ErrMalformedInput struct {
	Field  string
	Reason error
}

func (e ErrMalformedInput) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed input: %v", e.Reason)
	}
	return fmt.Sprintf("malformed input in %s: %v", e.Field, e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrMalformedInput) Unwrap() error {
	return e.Reason
}

// ErrUnknownVersion is returned for versioned records whose version tag this
// build does not know. Such records are never defaulted.
type ErrUnknownVersion struct {
	Type    string
	Version string
}

func (e ErrUnknownVersion) Error() string {
	return fmt.Sprintf("unknown %s version %s", e.Type, e.Version)
}
