package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"crudview/internal/model"
	"crudview/internal/repository"
)

// Factory builds a filter set from query parameters over a base queryset.
type Factory[T model.Record] func(data url.Values, qs *repository.Queryset[T]) *FilterSet[T]

// Option configures filter sets built by ForFields.
type Option func(*options)

type options struct {
	lookups map[string]repository.Op
}

// WithLookup sets the comparison used for a field. Default: exact.
func WithLookup(field string, op repository.Op) Option {
	return func(o *options) { o.lookups[field] = op }
}

// FilterSet narrows a queryset using request query parameters, one parameter per field.
type FilterSet[T model.Record] struct {
	fields  []model.Field
	lookups map[string]repository.Op
	data    url.Values
	base    *repository.Queryset[T]
	errs    map[string]string
	qs      *repository.Queryset[T]
}

// ForFields returns a Factory filtering on the named fields of meta.
func ForFields[T model.Record](meta *model.Meta, fields []string, opts ...Option) (Factory[T], error) {
	declared, err := meta.FieldsFor(fields)
	if err != nil {
		return nil, err
	}
	o := options{lookups: make(map[string]repository.Op)}
	for _, opt := range opts {
		opt(&o)
	}
	return func(data url.Values, qs *repository.Queryset[T]) *FilterSet[T] {
		return &FilterSet[T]{fields: declared, lookups: o.lookups, data: data, base: qs}
	}, nil
}

// IsBound reports whether any filter parameter was supplied.
func (fs *FilterSet[T]) IsBound() bool {
	for _, f := range fs.fields {
		if fs.data.Get(f.Name) != "" {
			return true
		}
	}
	return false
}

// Qs returns the filtered queryset. Values that cannot be converted to the field's
// type are ignored and reported by Errors.
func (fs *FilterSet[T]) Qs() *repository.Queryset[T] {
	if fs.qs != nil {
		return fs.qs
	}
	fs.errs = make(map[string]string)
	var filters []repository.Filter
	for _, f := range fs.fields {
		raw := strings.TrimSpace(fs.data.Get(f.Name))
		if raw == "" || (f.Kind == model.KindBool && raw == "unknown") {
			continue
		}
		v, err := convert(f, raw)
		if err != nil {
			fs.errs[f.Name] = err.Error()
			continue
		}
		op := fs.lookups[f.Name]
		if op == "" {
			op = repository.OpExact
		}
		filters = append(filters, repository.Filter{Field: f.Name, Op: op, Value: v})
	}
	fs.qs = fs.base.Filter(filters...)
	return fs.qs
}

// Errors reports parameters that could not be applied.
func (fs *FilterSet[T]) Errors() map[string]string {
	fs.Qs()
	return fs.errs
}

// BoundFilter is a filter input ready for rendering.
type BoundFilter struct {
	Name    string
	Label   string
	Value   string
	Widget  string
	Choices []Choice
	Error   string
}

// Choice is one option of a select widget.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Fields returns the filter inputs with their current values.
func (fs *FilterSet[T]) Fields() []BoundFilter {
	errs := fs.Errors()
	out := make([]BoundFilter, 0, len(fs.fields))
	for _, f := range fs.fields {
		bf := BoundFilter{
			Name:   f.Name,
			Label:  f.Label(),
			Value:  fs.data.Get(f.Name),
			Widget: "text",
			Error:  errs[f.Name],
		}
		switch f.Kind {
		case model.KindBool:
			bf.Widget = "select"
			for _, c := range []Choice{{"unknown", "Unknown", false}, {"true", "Yes", false}, {"false", "No", false}} {
				c.Selected = c.Value == bf.Value || (c.Value == "unknown" && bf.Value == "")
				bf.Choices = append(bf.Choices, c)
			}
		case model.KindInt:
			bf.Widget = "number"
		}
		out = append(out, bf)
	}
	return out
}

func convert(f model.Field, raw string) (any, error) {
	switch f.Kind {
	case model.KindBool:
		return strconv.ParseBool(raw)
	case model.KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case model.KindUUID:
		return uuid.Parse(raw)
	default:
		return raw, nil
	}
}
