package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"crudview/internal/model"
	"crudview/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookmarkColumns = []string{"id", "url", "title", "note", "favourite"}

func TestRecordPostgres_SaveInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewBookmarkPostgres(db)
	ctx := context.Background()

	b := &model.Bookmark{URL: "https://go.dev/", Title: "Go", Note: "", Favourite: true}
	rows := sqlmock.NewRows(bookmarkColumns).AddRow(1, b.URL, b.Title, b.Note, b.Favourite)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookmarks (url, title, note, favourite) VALUES ($1, $2, $3, $4) RETURNING id, url, title, note, favourite")).
		WithArgs(b.URL, b.Title, b.Note, b.Favourite).
		WillReturnRows(rows)

	result, err := repo.Save(ctx, b)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, "Go", result.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_SaveUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookmarkPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		b := &model.Bookmark{ID: 3, URL: "https://go.dev/", Title: "Go"}
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE bookmarks SET url = $1, title = $2, note = $3, favourite = $4 WHERE id = $5")).
			WithArgs(b.URL, b.Title, b.Note, b.Favourite, b.ID).
			WillReturnRows(sqlmock.NewRows(bookmarkColumns).AddRow(3, b.URL, b.Title, b.Note, b.Favourite))

		result, err := repo.Save(ctx, b)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), result.ID)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery("UPDATE bookmarks").WillReturnError(sql.ErrNoRows)

		_, err := repo.Save(ctx, &model.Bookmark{ID: 9})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unique violation", func(t *testing.T) {
		mock.ExpectQuery("UPDATE bookmarks").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookmarks_url_key"})

		_, err := repo.Save(ctx, &model.Bookmark{ID: 4, URL: "https://dup.example/"})
		assert.ErrorIs(t, err, repository.ErrConflict)
		var conflict *repository.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "url", conflict.Field)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_InsertDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := &model.Document{Title: "Report", StoragePath: "documents/x.pdf", Filename: "x.pdf", Size: 10, ContentType: "application/pdf"}

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO documents \\(id, title, storage_path, filename, size, content_type, created_at\\)").
		WithArgs(sqlmock.AnyArg(), doc.Title, doc.StoragePath, doc.Filename, doc.Size, doc.ContentType, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "storage_path", "filename", "size", "content_type", "created_at"}).
			AddRow(id.String(), doc.Title, doc.StoragePath, doc.Filename, doc.Size, doc.ContentType, now))

	result, err := repo.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)
	assert.Equal(t, now, result.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewBookmarkPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(bookmarkColumns).AddRow(1, "https://go.dev/", "Go", "note", false)

		mock.ExpectQuery("SELECT (.+) FROM bookmarks WHERE id = ?").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		b, err := repo.Get(ctx, repository.Query{}, repository.Lookup{Field: "pk", Value: "1"})

		assert.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, int64(1), b.ID)
		assert.Equal(t, "note", b.Note)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookmarks WHERE id = ?").
			WithArgs(int64(2)).
			WillReturnError(sql.ErrNoRows)

		b, err := repo.Get(ctx, repository.Query{}, repository.Lookup{Field: "pk", Value: "2"})

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, b)
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := repo.Get(ctx, repository.Query{}, repository.Lookup{Field: "pk", Value: "abc"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("within filters", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM bookmarks WHERE favourite = $1 AND id = $2")).
			WithArgs(true, int64(5)).
			WillReturnRows(sqlmock.NewRows(bookmarkColumns).AddRow(5, "https://a/", "A", "", true))

		q := repository.Query{Filters: []repository.Filter{{Field: "favourite", Op: repository.OpExact, Value: true}}}
		b, err := repo.Get(ctx, q, repository.Lookup{Field: "id", Value: "5"})
		assert.NoError(t, err)
		assert.True(t, b.Favourite)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewBookmarkPostgres(db)
	ctx := context.Background()

	t.Run("paged", func(t *testing.T) {
		rows := sqlmock.NewRows(bookmarkColumns).
			AddRow(1, "https://a/", "A", "", false).
			AddRow(2, "https://b/", "B", "", true)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, url, title, note, favourite FROM bookmarks ORDER BY title DESC LIMIT $1 OFFSET $2")).
			WithArgs(10, 20).
			WillReturnRows(rows)

		items, err := repo.List(ctx, repository.Query{OrderBy: []string{"-title"}, PageQuery: repository.PageQuery{Limit: 10, Offset: 20}})

		assert.NoError(t, err)
		assert.Len(t, items, 2)
		assert.True(t, items[1].Favourite)
	})

	t.Run("icontains filter", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM bookmarks WHERE title ILIKE $1 ORDER BY id")).
			WithArgs(`%50\%%`).
			WillReturnRows(sqlmock.NewRows(bookmarkColumns))

		items, err := repo.List(ctx, repository.Query{Filters: []repository.Filter{{Field: "title", Op: repository.OpIContains, Value: "50%"}}})
		assert.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown order field", func(t *testing.T) {
		_, err := repo.List(ctx, repository.Query{OrderBy: []string{"nope"}})
		assert.ErrorIs(t, err, model.ErrUnknownField)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookmarkPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookmarks WHERE favourite = \\$1").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background(), repository.Query{Filters: []repository.Filter{{Field: "favourite", Value: true}}})
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewBookmarkPostgres(db)

	mock.ExpectExec("DELETE FROM bookmarks WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), &model.Bookmark{ID: 1})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
