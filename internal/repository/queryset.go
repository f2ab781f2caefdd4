package repository

import (
	"context"
	"slices"

	"crudview/internal/model"
)

// Queryset is a lazy description of a set of records backed by a Store.
// Every refinement returns a new Queryset; the receiver is never modified.
type Queryset[T model.Record] struct {
	store Store[T]
	q     Query
}

// NewQueryset returns a queryset over all records of the store.
func NewQueryset[T model.Record](store Store[T]) *Queryset[T] {
	return &Queryset[T]{store: store}
}

// Store returns the backing store.
func (qs *Queryset[T]) Store() Store[T] { return qs.store }

// Query returns a copy of the accumulated query.
func (qs *Queryset[T]) Query() Query {
	return Query{
		Filters:   slices.Clone(qs.q.Filters),
		OrderBy:   slices.Clone(qs.q.OrderBy),
		PageQuery: qs.q.PageQuery,
	}
}

// Clone returns an independent copy of the queryset.
func (qs *Queryset[T]) Clone() *Queryset[T] {
	return &Queryset[T]{store: qs.store, q: qs.Query()}
}

// Filter narrows the queryset.
func (qs *Queryset[T]) Filter(filters ...Filter) *Queryset[T] {
	c := qs.Clone()
	c.q.Filters = append(c.q.Filters, filters...)
	return c
}

// OrderBy replaces the ordering.
func (qs *Queryset[T]) OrderBy(fields ...string) *Queryset[T] {
	c := qs.Clone()
	c.q.OrderBy = slices.Clone(fields)
	return c
}

// Count returns the number of records in the queryset, ignoring any slice.
func (qs *Queryset[T]) Count(ctx context.Context) (int, error) {
	q := qs.Query()
	q.PageQuery = PageQuery{}
	return qs.store.Count(ctx, q)
}

// Exists reports whether the queryset contains at least one record.
func (qs *Queryset[T]) Exists(ctx context.Context) (bool, error) {
	n, err := qs.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// All evaluates the queryset.
func (qs *Queryset[T]) All(ctx context.Context) ([]T, error) {
	return qs.store.List(ctx, qs.Query())
}

// Slice evaluates at most limit records starting at offset.
func (qs *Queryset[T]) Slice(ctx context.Context, offset, limit int) ([]T, error) {
	q := qs.Query()
	q.PageQuery = PageQuery{Limit: limit, Offset: offset}
	return qs.store.List(ctx, q)
}

// Get returns the one record of the queryset matching the lookup.
func (qs *Queryset[T]) Get(ctx context.Context, lookup Lookup) (T, error) {
	return qs.store.Get(ctx, qs.Query(), lookup)
}
