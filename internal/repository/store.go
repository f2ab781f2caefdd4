package repository

import (
	"context"
	"errors"

	"crudview/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with an existing one")
)

// Store defines data access for one model using SQL queries only.
// No business logic here, strictly persistence operations.
type Store[T model.Record] interface {
	// New returns an empty, unsaved record.
	New() T

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, q Query) (int, error)

	// List returns the records matching the query, honouring ordering and paging.
	List(ctx context.Context, q Query) ([]T, error)

	// Get returns the single record matching the lookup within the query filters.
	// It returns ErrNotFound when nothing matches.
	Get(ctx context.Context, q Query, lookup Lookup) (T, error)

	// Save inserts the record when its primary key is zero and updates it otherwise.
	// Returns the stored record (may include values set by the DB).
	Save(ctx context.Context, rec T) (T, error)

	// Delete removes the record. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, rec T) error
}

// Op is a filter comparison.
type Op string

const (
	OpExact     Op = "exact"
	OpIContains Op = "icontains"
)

// Filter restricts a query to records whose field matches a value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// PageQuery holds limit/offset pagination parameters. A zero Limit means no limit.
type PageQuery struct {
	Limit  int
	Offset int
}

// Query describes which records to fetch.
type Query struct {
	Filters []Filter
	// OrderBy lists field names; a leading "-" sorts descending.
	OrderBy []string
	PageQuery
}

// Lookup identifies a single record by a field value taken from the URL.
type Lookup struct {
	Field string
	Value string
}

// ConflictError reports which field violated a uniqueness constraint.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return ErrConflict.Error() + " on " + e.Field
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
