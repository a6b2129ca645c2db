package resource

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// Service validates input, calls the repository and writes results through
// to the cache so the next read sees them without a round trip.
type Service[T Record[T]] struct {
	repo  Repository[T]
	cache Cache[T]
	group singleflight.Group

	check        func(ctx context.Context, rec T) error
	createCheck  func(ctx context.Context, rec T) error
	beforeDelete func(ctx context.Context, id string) error
	serverIDs    bool
}

type Option[T Record[T]] func(*Service[T])

// WithCheck adds validation that struct tags cannot express.
func WithCheck[T Record[T]](fn func(ctx context.Context, rec T) error) Option[T] {
	return func(s *Service[T]) { s.check = fn }
}

// WithCreateCheck runs after the common checks on Create only.
func WithCreateCheck[T Record[T]](fn func(ctx context.Context, rec T) error) Option[T] {
	return func(s *Service[T]) { s.createCheck = fn }
}

// WithServerIDs drops any id sent with a create so the repository assigns one.
func WithServerIDs[T Record[T]]() Option[T] {
	return func(s *Service[T]) { s.serverIDs = true }
}

// WithDeleteGuard runs before every delete, e.g. to refuse removing referenced rows.
func WithDeleteGuard[T Record[T]](fn func(ctx context.Context, id string) error) Option[T] {
	return func(s *Service[T]) { s.beforeDelete = fn }
}

// NewService wires repo and cache; cache may be nil.
func NewService[T Record[T]](repo Repository[T], cache Cache[T], opts ...Option[T]) *Service[T] {
	s := &Service[T]{repo: repo, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List serves from the cache while it is fresh. Concurrent misses share one query.
func (s *Service[T]) List(ctx context.Context) ([]T, error) {
	if s.cache != nil && s.cache.Fresh() {
		return s.cache.Items(), nil
	}

	v, err, _ := s.group.Do("list", func() (any, error) {
		var gen uint64
		if s.cache != nil {
			gen = s.cache.Generation()
		}
		rows, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		// A write that landed while the query ran is already in the cache
		// but maybe not in rows; leave the slice stale so the next read refetches.
		if s.cache != nil {
			s.cache.ReplaceAllSince(gen, rows)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	rows := v.([]T)
	out := make([]T, len(rows))
	copy(out, rows)
	return out, nil
}

// Refresh drops the cached collection and reloads it.
func (s *Service[T]) Refresh(ctx context.Context) ([]T, error) {
	s.Invalidate()
	return s.List(ctx)
}

func (s *Service[T]) Invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// Get always reads the repository so callers see the current version.
func (s *Service[T]) Get(ctx context.Context, id string) (T, error) {
	if id == "" {
		var zero T
		return zero, Invalid("id", "is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if s.serverIDs {
		rec = rec.WithID("")
	}
	if err := s.validate(ctx, rec); err != nil {
		return zero, err
	}
	if s.createCheck != nil {
		if err := s.createCheck(ctx, rec); err != nil {
			return zero, err
		}
	}
	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return zero, err
	}
	if s.cache != nil {
		s.cache.Add(created)
	}
	return created, nil
}

// Update fully replaces the row. ifVersion 0 means last writer wins.
func (s *Service[T]) Update(ctx context.Context, rec T, ifVersion int) (T, error) {
	var zero T
	if rec.RecordID() == "" {
		return zero, Invalid("id", "is required")
	}
	if err := s.validate(ctx, rec); err != nil {
		return zero, err
	}
	updated, err := s.repo.Update(ctx, rec, ifVersion)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.removeCached(rec.RecordID())
		}
		return zero, err
	}
	if s.cache != nil && !s.cache.ReplaceByID(updated) {
		s.cache.Invalidate()
	}
	return updated, nil
}

func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return Invalid("id", "is required")
	}
	if s.beforeDelete != nil {
		if err := s.beforeDelete(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeCached(id)
	return nil
}

func (s *Service[T]) removeCached(id string) {
	if s.cache != nil {
		s.cache.RemoveByID(id)
	}
}

func (s *Service[T]) validate(ctx context.Context, rec T) error {
	if err := Validate(rec); err != nil {
		return err
	}
	if s.check != nil {
		return s.check(ctx, rec)
	}
	return nil
}
