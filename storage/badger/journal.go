package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/storage"
)

// JournalRepository implements storage.JournalRepository for BadgerDB.
type JournalRepository struct {
	backend *Backend
}

var _ storage.JournalRepository = (*JournalRepository)(nil)

func newJournalRepository(backend *Backend) (*JournalRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &JournalRepository{backend: backend}, nil
}

// NewJournalRepository creates a journal on an open backend.
//
// Returns storage.JournalRepository interface to enforce abstraction.
func NewJournalRepository(backend *Backend) (storage.JournalRepository, error) {
	return newJournalRepository(backend)
}

// SaveRun validates and persists the state of a run.
func (r *JournalRepository) SaveRun(ctx context.Context, state *core.RunState) error {
	if err := core.ValidateRunState(state); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if state.StartedAt.IsZero() {
			state.StartedAt = now
		}
		state.UpdatedAt = now
		if err := tx.Set(makeRunKey(state.Id), storage.MarshalRunState(state)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadRun retrieves a run by ID.
func (r *JournalRepository) LoadRun(ctx context.Context, id core.ID) (*core.RunState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var state *core.RunState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalRunState(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ListRuns returns every recorded run, most recently updated first.
func (r *JournalRepository) ListRuns(ctx context.Context) ([]*core.RunState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var runs []*core.RunState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runStatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				state, err := storage.UnmarshalRunState(val)
				if err != nil {
					return err
				}
				runs = append(runs, state)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(runs, func(a, b *core.RunState) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return runs, nil
}

// DeleteRun removes a run.
func (r *JournalRepository) DeleteRun(ctx context.Context, id core.ID) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the backend is owned and closed by the caller.
func (r *JournalRepository) Close() error {
	return nil
}
