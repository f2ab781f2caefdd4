package handler

import (
	"crudview/internal/crud"
	"crudview/internal/filter"
	"crudview/internal/model"
	"crudview/internal/repository"
)

// BookmarkView serves the bookmark pages under /bookmark/.
func BookmarkView(d Deps) *crud.View[*model.Bookmark] {
	return &crud.View[*model.Bookmark]{
		Store:        d.Bookmarks,
		Queryset:     repository.NewQueryset(d.Bookmarks).OrderBy("-id"),
		Fields:       []string{"url", "title", "note", "favourite"},
		PaginateBy:   d.PaginateBy,
		FilterFields: []string{"favourite", "title"},
		FilterOptions: []filter.Option{
			filter.WithLookup("title", repository.OpIContains),
		},
		Templates: d.Templates,
		Logger:    d.Logger.With().Str("view", "bookmark").Logger(),
	}
}

// DocumentView serves the document pages under /document/. Documents are looked up
// by their UUID and their file goes to object storage.
func DocumentView(d Deps) *crud.View[*model.Document] {
	return &crud.View[*model.Document]{
		Store:         d.Documents,
		Queryset:      repository.NewQueryset[*model.Document](d.Documents).OrderBy("-created_at"),
		Fields:        []string{"title", "storage_path"},
		LookupField:   "id",
		PathConverter: "guid",
		Uploader:      d.Uploader,
		PaginateBy:    d.PaginateBy,
		FilterFields:  []string{"title"},
		FilterOptions: []filter.Option{
			filter.WithLookup("title", repository.OpIContains),
		},
		Templates: d.Templates,
		Logger:    d.Logger.With().Str("view", "document").Logger(),
	}
}
