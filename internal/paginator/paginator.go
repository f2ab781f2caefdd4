package paginator

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage is the parent of every page-number error.
	ErrInvalidPage = errors.New("invalid page")
	// ErrPageNotAnInteger is returned when the requested page is not a number.
	ErrPageNotAnInteger = fmt.Errorf("%w: that page number is not an integer", ErrInvalidPage)
	// ErrEmptyPage is returned when the requested page holds no results.
	ErrEmptyPage = fmt.Errorf("%w: empty page", ErrInvalidPage)
)

// Source is a countable, sliceable sequence of objects, typically a queryset.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Slice(ctx context.Context, offset, limit int) ([]T, error)
}

// Paginator splits a source into pages of PerPage objects.
type Paginator[T any] struct {
	src     Source[T]
	perPage int
	orphans int
	// allowEmptyFirstPage lets page 1 exist when the source is empty.
	allowEmptyFirstPage bool
	count               int
}

// Option configures a Paginator.
type Option func(*options)

type options struct {
	orphans             int
	allowEmptyFirstPage bool
}

// WithOrphans merges a final page holding at most n objects into the previous one.
func WithOrphans(n int) Option {
	return func(o *options) { o.orphans = n }
}

// WithAllowEmptyFirstPage controls whether an empty source still has page 1. Default: true.
func WithAllowEmptyFirstPage(allow bool) Option {
	return func(o *options) { o.allowEmptyFirstPage = allow }
}

// New counts the source and returns a paginator over it.
func New[T any](ctx context.Context, src Source[T], perPage int, opts ...Option) (*Paginator[T], error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("per page must be positive, got %d", perPage)
	}
	o := options{allowEmptyFirstPage: true}
	for _, opt := range opts {
		opt(&o)
	}
	count, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Paginator[T]{
		src:                 src,
		perPage:             perPage,
		orphans:             o.orphans,
		allowEmptyFirstPage: o.allowEmptyFirstPage,
		count:               count,
	}, nil
}

// Count is the total number of objects across all pages.
func (p *Paginator[T]) Count() int { return p.count }

// PerPage is the maximum number of objects on a page.
func (p *Paginator[T]) PerPage() int { return p.perPage }

// NumPages is the total number of pages.
func (p *Paginator[T]) NumPages() int {
	if p.count == 0 && !p.allowEmptyFirstPage {
		return 0
	}
	hits := max(1, p.count-p.orphans)
	return (hits + p.perPage - 1) / p.perPage
}

// PageRange lists the 1-based page numbers.
func (p *Paginator[T]) PageRange() []int {
	n := p.NumPages()
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ValidateNumber checks that number names an existing page.
func (p *Paginator[T]) ValidateNumber(number int) (int, error) {
	if number < 1 {
		return 0, fmt.Errorf("%w: that page number is less than 1", ErrEmptyPage)
	}
	if number > p.NumPages() {
		if number == 1 && p.allowEmptyFirstPage {
			return number, nil
		}
		return 0, fmt.Errorf("%w: that page contains no results", ErrEmptyPage)
	}
	return number, nil
}

// Page fetches the objects of the given 1-based page.
func (p *Paginator[T]) Page(ctx context.Context, number int) (*Page[T], error) {
	number, err := p.ValidateNumber(number)
	if err != nil {
		return nil, err
	}
	bottom := (number - 1) * p.perPage
	top := bottom + p.perPage
	if top+p.orphans >= p.count {
		top = p.count
	}
	var objects []T
	if top > bottom {
		objects, err = p.src.Slice(ctx, bottom, top-bottom)
		if err != nil {
			return nil, err
		}
	}
	return &Page[T]{ObjectList: objects, Number: number, Paginator: p}, nil
}

// Page is one slice of a paginated source.
type Page[T any] struct {
	ObjectList []T
	Number     int
	Paginator  *Paginator[T]
}

func (pg *Page[T]) HasNext() bool       { return pg.Number < pg.Paginator.NumPages() }
func (pg *Page[T]) HasPrevious() bool   { return pg.Number > 1 }
func (pg *Page[T]) HasOtherPages() bool { return pg.HasNext() || pg.HasPrevious() }

func (pg *Page[T]) NextPageNumber() (int, error) {
	return pg.Paginator.ValidateNumber(pg.Number + 1)
}

func (pg *Page[T]) PreviousPageNumber() (int, error) {
	return pg.Paginator.ValidateNumber(pg.Number - 1)
}

// StartIndex is the 1-based index of the first object on the page.
func (pg *Page[T]) StartIndex() int {
	if pg.Paginator.Count() == 0 {
		return 0
	}
	return pg.Paginator.PerPage()*(pg.Number-1) + 1
}

// EndIndex is the 1-based index of the last object on the page.
func (pg *Page[T]) EndIndex() int {
	if pg.Number == pg.Paginator.NumPages() {
		return pg.Paginator.Count()
	}
	return pg.Number * pg.Paginator.PerPage()
}

func (pg *Page[T]) String() string {
	return fmt.Sprintf("<Page %d of %d>", pg.Number, pg.Paginator.NumPages())
}
