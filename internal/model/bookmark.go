package model

import "fmt"

// Bookmark is a saved link.
type Bookmark struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Note      string `json:"note"`
	Favourite bool   `json:"favourite"`
}

var bookmarkMeta = &Meta{
	AppLabel:          "bookmarks",
	ObjectName:        "Bookmark",
	VerboseName:       "bookmark",
	VerboseNamePlural: "bookmarks",
	Table:             "bookmarks",
	PK:                "id",
	Fields: []Field{
		{Name: "id", VerboseName: "ID", Kind: KindInt},
		{Name: "url", VerboseName: "url", Kind: KindURL, Required: true, MaxLength: 200, Unique: true, Editable: true},
		{Name: "title", VerboseName: "title", Kind: KindString, Required: true, MaxLength: 255, Editable: true},
		{Name: "note", VerboseName: "note", Kind: KindText, Editable: true},
		{Name: "favourite", VerboseName: "favourite", Kind: KindBool, Editable: true},
	},
}

// BookmarkMeta returns the model options shared by all bookmarks.
func BookmarkMeta() *Meta { return bookmarkMeta }

func (b *Bookmark) Meta() *Meta { return bookmarkMeta }

func (b *Bookmark) Get(field string) (any, error) {
	switch field {
	case "id", PKAlias:
		return b.ID, nil
	case "url":
		return b.URL, nil
	case "title":
		return b.Title, nil
	case "note":
		return b.Note, nil
	case "favourite":
		return b.Favourite, nil
	}
	return nil, fmt.Errorf("bookmark %q: %w", field, ErrUnknownField)
}

func (b *Bookmark) Set(field string, value any) error {
	var ok bool
	switch field {
	case "id", PKAlias:
		b.ID, ok = value.(int64)
	case "url":
		b.URL, ok = value.(string)
	case "title":
		b.Title, ok = value.(string)
	case "note":
		b.Note, ok = value.(string)
	case "favourite":
		b.Favourite, ok = value.(bool)
	default:
		return fmt.Errorf("bookmark %q: %w", field, ErrUnknownField)
	}
	if !ok {
		return fmt.Errorf("bookmark %q: unexpected value type %T", field, value)
	}
	return nil
}

func (b *Bookmark) String() string {
	if b.Title != "" {
		return b.Title
	}
	return b.URL
}
