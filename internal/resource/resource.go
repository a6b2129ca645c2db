package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("record was changed by another request")
	ErrInUse     = errors.New("record is still referenced")
	ErrDuplicate = errors.New("record already exists")
	ErrInvalid   = errors.New("invalid record")
)

// Record is a row addressed by an opaque id and guarded by a version counter.
type Record[T any] interface {
	RecordID() string
	RecordVersion() int
	WithID(id string) T
	WithVersion(v int) T
}

// Repository maps every call onto one database round trip.
// Update with ifVersion > 0 only applies when the stored version matches.
type Repository[T Record[T]] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T, ifVersion int) (T, error)
	Delete(ctx context.Context, id string) error
}

// Cache is the part of a store slice a Service writes through.
// Generation changes on every write or invalidation; ReplaceAllSince only
// applies when it still equals gen.
type Cache[T any] interface {
	Fresh() bool
	Items() []T
	Generation() uint64
	ReplaceAllSince(gen uint64, items []T) bool
	Add(item T)
	ReplaceByID(item T) bool
	RemoveByID(id string) bool
	Invalidate()
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
