package store

import "github.com/nearlight/nearlight/light"

// Store is anything that can persistently store checkpoints.
type Store interface {
	// SaveCheckpoint saves a checkpoint (h: cp.Height()).
	//
	// cp must be above the last stored checkpoint, otherwise
	// ErrNonIncreasingHeight is returned. Of two concurrent writers at the
	// same height, exactly one succeeds.
	SaveCheckpoint(cp light.Checkpoint) error

	// DeleteCheckpoint deletes the checkpoint at the given height.
	DeleteCheckpoint(height uint64) error

	// Checkpoint returns the checkpoint at the given height.
	//
	// If the checkpoint is not found, ErrCheckpointNotFound is returned.
	Checkpoint(height uint64) (*light.Checkpoint, error)

	// LastCheckpoint returns the last (newest) checkpoint.
	//
	// If the store is empty, nil and nil error are returned.
	LastCheckpoint() (*light.Checkpoint, error)

	// FirstCheckpointHeight returns the first (oldest) checkpoint height.
	//
	// If the store is empty, ErrCheckpointNotFound is returned.
	FirstCheckpointHeight() (uint64, error)

	// CheckpointBefore returns the newest checkpoint below height.
	//
	// If there is none, ErrCheckpointNotFound is returned.
	CheckpointBefore(height uint64) (*light.Checkpoint, error)

	// Prune removes the oldest checkpoints when the store holds more than
	// size of them.
	Prune(size uint16) error

	// Size returns the number of stored checkpoints.
	Size() uint16
}
