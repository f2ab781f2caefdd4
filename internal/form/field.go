package form

import (
	"time"

	"crudview/internal/model"
)

// BoundField is a form field ready for rendering.
type BoundField struct {
	Name      string
	Label     string
	Widget    string
	Value     string
	Checked   bool
	Required  bool
	MaxLength int
	Errors    []string
}

// Fields returns the form fields in declaration order. Bound forms show the
// submitted data; unbound forms show the instance's current values.
func (f *Form[T]) Fields() []BoundField {
	errs := f.Errors()
	out := make([]BoundField, 0, len(f.fields))
	for _, fld := range f.fields {
		bf := BoundField{
			Name:      fld.Name,
			Label:     fld.Label(),
			Widget:    widgetFor(fld.Kind),
			Required:  fld.Required,
			MaxLength: fld.MaxLength,
			Errors:    errs[fld.Name],
		}
		switch {
		case fld.Kind == model.KindFile:
			// file inputs cannot be prefilled
		case f.bound:
			bf.Value = f.data.Get(fld.Name)
			bf.Checked = fld.Kind == model.KindBool && cleanBool(bf.Value, f.data.Has(fld.Name))
		default:
			v, _ := f.Instance.Get(fld.Name)
			if t, ok := v.(time.Time); ok && !t.IsZero() {
				bf.Value = t.Format("2006-01-02T15:04")
			} else {
				bf.Value = model.FormatValue(v)
			}
			b, _ := v.(bool)
			bf.Checked = b
		}
		out = append(out, bf)
	}
	return out
}

func widgetFor(k model.FieldKind) string {
	switch k {
	case model.KindText:
		return "textarea"
	case model.KindURL:
		return "url"
	case model.KindBool:
		return "checkbox"
	case model.KindInt:
		return "number"
	case model.KindTime:
		return "datetime-local"
	case model.KindFile:
		return "file"
	default:
		return "text"
	}
}
