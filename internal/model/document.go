package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document represents a stored file in the system.
// The file content lives in object storage; StoragePath is its object key.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	StoragePath string    `json:"storage_path"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

var documentMeta = &Meta{
	AppLabel:          "library",
	ObjectName:        "Document",
	VerboseName:       "document",
	VerboseNamePlural: "documents",
	Table:             "documents",
	PK:                "id",
	Fields: []Field{
		{Name: "id", VerboseName: "ID", Kind: KindUUID},
		{Name: "title", VerboseName: "title", Kind: KindString, Required: true, MaxLength: 255, Editable: true},
		{Name: "storage_path", VerboseName: "file", Kind: KindFile, Required: true, Unique: true, Editable: true},
		{Name: "filename", VerboseName: "original filename", Kind: KindString, MaxLength: 255},
		{Name: "size", VerboseName: "size", Kind: KindInt},
		{Name: "content_type", VerboseName: "content type", Kind: KindString, MaxLength: 255},
		{Name: "created_at", VerboseName: "created at", Kind: KindTime},
	},
}

// DocumentMeta returns the model options shared by all documents.
func DocumentMeta() *Meta { return documentMeta }

func (d *Document) Meta() *Meta { return documentMeta }

func (d *Document) Get(field string) (any, error) {
	switch field {
	case "id", PKAlias:
		return d.ID, nil
	case "title":
		return d.Title, nil
	case "storage_path":
		return d.StoragePath, nil
	case "filename":
		return d.Filename, nil
	case "size":
		return d.Size, nil
	case "content_type":
		return d.ContentType, nil
	case "created_at":
		return d.CreatedAt, nil
	}
	return nil, fmt.Errorf("document %q: %w", field, ErrUnknownField)
}

func (d *Document) Set(field string, value any) error {
	var ok bool
	switch field {
	case "id", PKAlias:
		d.ID, ok = value.(uuid.UUID)
	case "title":
		d.Title, ok = value.(string)
	case "storage_path":
		d.StoragePath, ok = value.(string)
	case "filename":
		d.Filename, ok = value.(string)
	case "size":
		d.Size, ok = value.(int64)
	case "content_type":
		d.ContentType, ok = value.(string)
	case "created_at":
		d.CreatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("document %q: %w", field, ErrUnknownField)
	}
	if !ok {
		return fmt.Errorf("document %q: unexpected value type %T", field, value)
	}
	return nil
}

// AttachFile records the metadata of an uploaded file.
func (d *Document) AttachFile(field string, info FileInfo) {
	if field != "storage_path" {
		return
	}
	d.StoragePath = info.Key
	d.Filename = info.Filename
	d.Size = info.Size
	d.ContentType = info.ContentType
}

func (d *Document) String() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Filename
}
