package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownField is returned when a field name is not declared on a model.
var ErrUnknownField = errors.New("unknown field")

// PKAlias is the lookup name that always refers to the primary key field.
const PKAlias = "pk"

// FieldKind describes how a field value is parsed, validated and rendered.
type FieldKind int

const (
	KindString FieldKind = iota
	KindText
	KindURL
	KindBool
	KindInt
	KindUUID
	KindTime
	KindFile
)

// Field describes a single model attribute.
type Field struct {
	Name        string
	VerboseName string
	Kind        FieldKind
	Required    bool
	MaxLength   int
	Unique      bool
	// Editable is false for values managed by the system (primary keys, timestamps).
	Editable bool
}

// Label returns the verbose name, falling back to a humanized field name.
func (f Field) Label() string {
	if f.VerboseName != "" {
		return f.VerboseName
	}
	return strings.ReplaceAll(f.Name, "_", " ")
}

// Meta holds the options describing a model: its naming and its fields.
// It is the Go counterpart of what web frameworks usually attach to model classes.
type Meta struct {
	AppLabel          string
	ObjectName        string
	VerboseName       string
	VerboseNamePlural string
	Table             string
	PK                string
	Fields            []Field
}

// ModelName is the lower-cased object name, used in URLs and template paths.
func (m *Meta) ModelName() string {
	return strings.ToLower(m.ObjectName)
}

// Field returns the declared field with the given name. The "pk" alias resolves to
// the primary key field.
func (m *Meta) Field(name string) (Field, error) {
	if name == PKAlias {
		name = m.PK
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%s has no field named %q: %w", m.ObjectName, name, ErrUnknownField)
}

// FieldsFor returns the declared fields for the given names, preserving order.
func (m *Meta) FieldsFor(names []string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f, err := m.Field(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Record is implemented by every model instance handled by the CRUD views.
type Record interface {
	Meta() *Meta
	// Get returns the value of the named field. The "pk" alias is accepted.
	Get(field string) (any, error)
	// Set assigns a value that has already been converted to the field's Go type.
	Set(field string, value any) error
}

// FileInfo describes an uploaded file after it has been written to storage.
type FileInfo struct {
	Key         string
	Filename    string
	Size        int64
	ContentType string
}

// FileReceiver is implemented by records that keep metadata about uploaded files.
type FileReceiver interface {
	AttachFile(field string, info FileInfo)
}

// PK returns the primary key value of a record.
func PK(r Record) any {
	v, err := r.Get(r.Meta().PK)
	if err != nil {
		return nil
	}
	return v
}

// IsZeroPK reports whether the record has not been persisted yet.
func IsZeroPK(r Record) bool {
	switch v := PK(r).(type) {
	case nil:
		return true
	case int64:
		return v == 0
	case int:
		return v == 0
	case string:
		return v == ""
	case uuid.UUID:
		return v == uuid.Nil
	default:
		return false
	}
}

// ValueToString renders a field value for display.
func ValueToString(r Record, field string) (string, error) {
	v, err := r.Get(field)
	if err != nil {
		return "", err
	}
	return FormatValue(v), nil
}

// FormatValue renders a Go field value the way it is shown in pages and forms.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case uuid.UUID:
		return t.String()
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
