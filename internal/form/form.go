package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"reflect"
	"strings"

	"crudview/internal/model"
	"crudview/internal/repository"
)

// ErrInvalid is returned by Save when the form has validation errors.
var ErrInvalid = errors.New("form is not valid")

// Files maps field names to uploaded files, as found in a parsed multipart form.
type Files map[string][]*multipart.FileHeader

// Uploader stores uploaded files and removes them again on rollback.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string, size int64) (model.FileInfo, error)
	Discard(ctx context.Context, key string) error
}

// CleanFunc runs after every field has been cleaned. It may adjust cleaned values
// and report errors keyed by field name; the empty key holds non-field errors.
type CleanFunc func(cleaned map[string]any) map[string]string

// Factory builds a form for the given request data and instance.
// Unbound forms are built with nil data and files.
type Factory[T model.Record] func(data url.Values, files Files, instance T) *Form[T]

// Form is a model form: it validates request data for a set of model fields
// and saves the result onto a record.
type Form[T model.Record] struct {
	Instance T
	Clean    CleanFunc

	meta     *model.Meta
	fields   []model.Field
	data     url.Values
	files    Files
	bound    bool
	store    repository.Store[T]
	uploader Uploader

	validated bool
	errs      map[string][]string
	cleaned   map[string]any
}

// ModelFactory returns a Factory for the named fields of the store's model.
// An unknown field name is reported immediately.
func ModelFactory[T model.Record](store repository.Store[T], fields []string, uploader Uploader) (Factory[T], error) {
	meta := store.New().Meta()
	declared, err := meta.FieldsFor(fields)
	if err != nil {
		return nil, err
	}
	return func(data url.Values, files Files, instance T) *Form[T] {
		if isNil(instance) {
			instance = store.New()
		}
		return &Form[T]{
			Instance: instance,
			meta:     meta,
			fields:   declared,
			data:     data,
			files:    files,
			bound:    data != nil || files != nil,
			store:    store,
			uploader: uploader,
		}
	}, nil
}

// IsBound reports whether the form was built from submitted data.
func (f *Form[T]) IsBound() bool { return f.bound }

// IsMultipart reports whether the form needs a multipart encoding.
func (f *Form[T]) IsMultipart() bool {
	for _, fld := range f.fields {
		if fld.Kind == model.KindFile {
			return true
		}
	}
	return false
}

// IsValid cleans the submitted data and reports whether it passed validation.
// Unbound forms are never valid.
func (f *Form[T]) IsValid() bool {
	if !f.bound {
		return false
	}
	f.fullClean()
	return len(f.errs) == 0
}

// Errors returns validation errors keyed by field name. The empty key holds non-field errors.
func (f *Form[T]) Errors() map[string][]string {
	if f.bound {
		f.fullClean()
	}
	return f.errs
}

// NonFieldErrors returns errors not tied to a single field.
func (f *Form[T]) NonFieldErrors() []string {
	return f.Errors()[""]
}

// Cleaned returns the converted value of a field after validation.
func (f *Form[T]) Cleaned(field string) (any, bool) {
	v, ok := f.cleaned[field]
	return v, ok
}

// AddError attaches an error message to a field, or to the form when field is empty.
func (f *Form[T]) AddError(field, msg string) {
	if f.errs == nil {
		f.errs = make(map[string][]string)
	}
	f.errs[field] = append(f.errs[field], msg)
}

func (f *Form[T]) fullClean() {
	if f.validated {
		return
	}
	f.validated = true
	f.cleaned = make(map[string]any, len(f.fields))
	for _, fld := range f.fields {
		v, err := f.cleanField(fld)
		if err != nil {
			f.AddError(fld.Name, err.Error())
			continue
		}
		f.cleaned[fld.Name] = v
	}
	if f.Clean != nil {
		for field, msg := range f.Clean(f.cleaned) {
			f.AddError(field, msg)
		}
	}
}

func (f *Form[T]) cleanField(fld model.Field) (any, error) {
	if fld.Kind == model.KindFile {
		if fhs := f.files[fld.Name]; len(fhs) > 0 && fhs[0] != nil {
			return fhs[0], nil
		}
		current, _ := f.Instance.Get(fld.Name)
		if fld.Required && model.FormatValue(current) == "" {
			return nil, errRequired
		}
		return nil, nil
	}
	return clean(fld, f.data.Get(fld.Name), f.data.Has(fld.Name))
}

// Save applies the cleaned data to the instance and persists it. Files are uploaded
// first and removed again if the record cannot be stored. A uniqueness conflict is
// reported as a field error as well as returned.
func (f *Form[T]) Save(ctx context.Context) (T, error) {
	var zero T
	if !f.IsValid() {
		return zero, ErrInvalid
	}

	var uploaded, replaced []string
	for _, fld := range f.fields {
		v := f.cleaned[fld.Name]
		if fld.Kind != model.KindFile {
			if err := f.Instance.Set(fld.Name, v); err != nil {
				return zero, err
			}
			continue
		}
		fh, ok := v.(*multipart.FileHeader)
		if !ok {
			continue
		}
		previous, _ := f.Instance.Get(fld.Name)
		info, err := f.upload(ctx, fh)
		if err != nil {
			f.discard(ctx, uploaded)
			return zero, err
		}
		uploaded = append(uploaded, info.Key)
		if prev := model.FormatValue(previous); prev != "" {
			replaced = append(replaced, prev)
		}
		if fr, ok := any(f.Instance).(model.FileReceiver); ok {
			fr.AttachFile(fld.Name, info)
		} else if err := f.Instance.Set(fld.Name, info.Key); err != nil {
			f.discard(ctx, uploaded)
			return zero, err
		}
	}

	saved, err := f.store.Save(ctx, f.Instance)
	if err != nil {
		f.discard(ctx, uploaded)
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			f.AddError(conflict.Field, f.uniqueMessage(conflict.Field))
		}
		return zero, err
	}
	f.discard(ctx, replaced)
	f.Instance = saved
	return saved, nil
}

func (f *Form[T]) upload(ctx context.Context, fh *multipart.FileHeader) (model.FileInfo, error) {
	if f.uploader == nil {
		return model.FileInfo{}, errors.New("form has file fields but no uploader")
	}
	r, err := fh.Open()
	if err != nil {
		return model.FileInfo{}, fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()
	return f.uploader.Upload(ctx, r, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
}

// discard is best effort; an orphaned object is preferable to masking the original error.
func (f *Form[T]) discard(ctx context.Context, keys []string) {
	if f.uploader == nil {
		return
	}
	for _, k := range keys {
		_ = f.uploader.Discard(ctx, k)
	}
}

func (f *Form[T]) uniqueMessage(field string) string {
	if field == "" {
		return fmt.Sprintf("%s already exists.", capitalize(f.meta.VerboseName))
	}
	label := field
	if fld, err := f.meta.Field(field); err == nil {
		label = fld.Label()
	}
	return fmt.Sprintf("%s with this %s already exists.", capitalize(f.meta.VerboseName), capitalize(label))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
