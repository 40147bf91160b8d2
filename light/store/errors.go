package store

import (
	"errors"
	"fmt"
)

// ErrCheckpointNotFound is returned when a store does not have the
// requested checkpoint.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrNonIncreasingHeight is returned when saving a checkpoint that is not
// above the last stored one.
type ErrNonIncreasingHeight struct {
	Last uint64
	Got  uint64
}

func (e ErrNonIncreasingHeight) Error() string {
	return fmt.Sprintf("checkpoint at height %d is not above the last stored one at %d", e.Got, e.Last)
}
