package resource

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and local seeding.
type MemoryRepository[T Record[T]] struct {
	mu       sync.RWMutex
	storage  []T
	onCreate func(T) T

	// BeforeDelete lets callers emulate foreign key restrictions.
	BeforeDelete func(id string) error
}

// NewMemoryRepository copies seed; onCreate, when set, stamps derived fields on insert.
func NewMemoryRepository[T Record[T]](seed []T, onCreate func(T) T) *MemoryRepository[T] {
	r := &MemoryRepository[T]{
		storage:  make([]T, 0, len(seed)),
		onCreate: onCreate,
	}
	for _, rec := range seed {
		if rec.RecordVersion() == 0 {
			rec = rec.WithVersion(1)
		}
		r.storage = append(r.storage, rec)
	}
	return r
}

func (r *MemoryRepository[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, len(r.storage))
	copy(out, r.storage)
	return out, nil
}

func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.storage[i], nil
	}
	return zero, ErrNotFound
}

func (r *MemoryRepository[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.RecordID() == "" {
		rec = rec.WithID(uuid.NewString())
	} else if r.indexOf(rec.RecordID()) >= 0 {
		return zero, ErrDuplicate
	}
	rec = rec.WithVersion(1)
	if r.onCreate != nil {
		rec = r.onCreate(rec)
	}
	r.storage = append(r.storage, rec)
	return rec, nil
}

func (r *MemoryRepository[T]) Update(ctx context.Context, rec T, ifVersion int) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(rec.RecordID())
	if i < 0 {
		return zero, ErrNotFound
	}
	current := r.storage[i].RecordVersion()
	if ifVersion > 0 && ifVersion != current {
		return zero, ErrConflict
	}
	rec = rec.WithVersion(current + 1)
	r.storage[i] = rec
	return rec, nil
}

func (r *MemoryRepository[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	if r.BeforeDelete != nil {
		if err := r.BeforeDelete(id); err != nil {
			return err
		}
	}
	r.storage = append(r.storage[:i], r.storage[i+1:]...)
	return nil
}

func (r *MemoryRepository[T]) indexOf(id string) int {
	for i, rec := range r.storage {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}
