package db

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/light/store"
)

const (
	prefixCheckpoint = int64(11)
	prefixSize       = int64(12)
)

type dbs struct {
	db dbm.DB

	mtx  sync.RWMutex
	size uint16
}

var _ store.Store = (*dbs)(nil)

// New returns a Store that wraps any DB.
//
// Checkpoints are stored in their canonical encoding under keys ordered by
// height.
func New(db dbm.DB) store.Store {
	lightStore := &dbs{db: db}

	// retrieve the size of the db
	size := uint16(0)
	bz, err := lightStore.db.Get(sizeKey())
	if err == nil && len(bz) > 0 {
		size = unmarshalSize(bz)
	}
	lightStore.size = size

	return lightStore
}

// SaveCheckpoint persists cp.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) SaveCheckpoint(cp light.Checkpoint) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	last, err := s.last()
	if err != nil {
		return err
	}
	if last != nil && cp.Height() <= last.Height() {
		return store.ErrNonIncreasingHeight{Last: last.Height(), Got: cp.Height()}
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(checkpointKey(cp.Height()), borsh.Marshal(cp)); err != nil {
		return err
	}
	if err := b.Set(sizeKey(), marshalSize(s.size+1)); err != nil {
		return err
	}
	if err := b.WriteSync(); err != nil {
		return err
	}
	s.size++

	return nil
}

// DeleteCheckpoint deletes the checkpoint at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) DeleteCheckpoint(height uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ok, err := s.db.Has(checkpointKey(height))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrCheckpointNotFound
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(checkpointKey(height)); err != nil {
		return err
	}
	if err := b.Set(sizeKey(), marshalSize(s.size-1)); err != nil {
		return err
	}
	if err := b.WriteSync(); err != nil {
		return err
	}
	s.size--

	return nil
}

// Checkpoint retrieves the checkpoint at the given height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Checkpoint(height uint64) (*light.Checkpoint, error) {
	bz, err := s.db.Get(checkpointKey(height))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return nil, store.ErrCheckpointNotFound
	}
	return decodeCheckpoint(bz)
}

// LastCheckpoint returns the newest checkpoint, or nil if the store is
// empty.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LastCheckpoint() (*light.Checkpoint, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.last()
}

func (s *dbs) last() (*light.Checkpoint, error) {
	itr, err := s.db.ReverseIterator(
		checkpointKey(0),
		checkpointKeyEnd(),
	)
	if err != nil {
		panic(err)
	}
	defer itr.Close()

	if itr.Valid() {
		return decodeCheckpoint(itr.Value())
	}

	return nil, itr.Error()
}

// FirstCheckpointHeight returns the oldest stored height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) FirstCheckpointHeight() (uint64, error) {
	itr, err := s.db.Iterator(
		checkpointKey(0),
		checkpointKeyEnd(),
	)
	if err != nil {
		panic(err)
	}
	defer itr.Close()

	if itr.Valid() {
		return parseCheckpointKey(itr.Key())
	}
	if err := itr.Error(); err != nil {
		return 0, err
	}
	return 0, store.ErrCheckpointNotFound
}

// CheckpointBefore iterates over checkpoints until it finds one below
// height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) CheckpointBefore(height uint64) (*light.Checkpoint, error) {
	if height == 0 {
		return nil, store.ErrCheckpointNotFound
	}

	itr, err := s.db.ReverseIterator(
		checkpointKey(0),
		checkpointKey(height),
	)
	if err != nil {
		panic(err)
	}
	defer itr.Close()

	if itr.Valid() {
		return decodeCheckpoint(itr.Value())
	}
	if err = itr.Error(); err != nil {
		return nil, err
	}

	return nil, store.ErrCheckpointNotFound
}

// Prune prunes checkpoints (starting from the oldest) when the store
// reaches the given size.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Prune(size uint16) error {
	// 1) Check how many we need to prune.
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sSize := s.size
	if sSize <= size { // nothing to prune
		return nil
	}
	numToPrune := sSize - size

	b := s.db.NewBatch()
	defer b.Close()

	// 2) use an iterator to batch together all the checkpoints that need to
	// be deleted
	if err := s.batchDelete(b, numToPrune); err != nil {
		return err
	}

	// 3) update size
	if err := b.Set(sizeKey(), marshalSize(size)); err != nil {
		return fmt.Errorf("failed to persist size: %w", err)
	}

	// 4) write batch deletion to disk
	if err := b.WriteSync(); err != nil {
		return err
	}
	s.size = size
	return nil
}

func (s *dbs) batchDelete(b dbm.Batch, numToPrune uint16) error {
	itr, err := s.db.Iterator(
		checkpointKey(0),
		checkpointKeyEnd(),
	)
	if err != nil {
		return err
	}
	defer itr.Close()

	for itr.Valid() && numToPrune > 0 {
		if err = b.Delete(itr.Key()); err != nil {
			return err
		}
		itr.Next()
		numToPrune--
	}

	return itr.Error()
}

// Size returns the number of stored checkpoints.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Size() uint16 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.size
}

func decodeCheckpoint(bz []byte) (*light.Checkpoint, error) {
	var cp light.Checkpoint
	if err := borsh.Unmarshal(bz, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func sizeKey() []byte {
	key, err := orderedcode.Append(nil, prefixSize)
	if err != nil {
		panic(err)
	}
	return key
}

func checkpointKey(height uint64) []byte {
	key, err := orderedcode.Append(nil, prefixCheckpoint, height)
	if err != nil {
		panic(err)
	}
	return key
}

// checkpointKeyEnd is the exclusive upper bound of all checkpoint keys,
// whatever their height.
func checkpointKeyEnd() []byte {
	key, err := orderedcode.Append(nil, prefixCheckpoint+1)
	if err != nil {
		panic(err)
	}
	return key
}

func parseCheckpointKey(key []byte) (uint64, error) {
	var (
		prefix int64
		height uint64
	)
	if _, err := orderedcode.Parse(string(key), &prefix, &height); err != nil {
		return 0, fmt.Errorf("failed to parse checkpoint key: %w", err)
	}
	if prefix != prefixCheckpoint {
		return 0, fmt.Errorf("expected checkpoint key, got prefix %d", prefix)
	}
	return height, nil
}

func marshalSize(size uint16) []byte {
	bs := make([]byte, 2)
	binary.BigEndian.PutUint16(bs, size)
	return bs
}

func unmarshalSize(bz []byte) uint16 {
	return binary.BigEndian.Uint16(bz)
}
