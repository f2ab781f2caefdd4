package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeta_Field(t *testing.T) {
	m := BookmarkMeta()

	f, err := m.Field("url")
	require.NoError(t, err)
	assert.Equal(t, KindURL, f.Kind)

	pk, err := m.Field(PKAlias)
	require.NoError(t, err)
	assert.Equal(t, "id", pk.Name)

	_, err = m.Field("missing")
	assert.ErrorIs(t, err, ErrUnknownField)

	assert.Equal(t, "bookmark", m.ModelName())
}

func TestMeta_FieldsFor(t *testing.T) {
	fields, err := BookmarkMeta().FieldsFor([]string{"title", "url"})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "title", fields[0].Name)
	assert.Equal(t, "url", fields[1].Name)

	_, err = BookmarkMeta().FieldsFor([]string{"title", "nope"})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestField_Label(t *testing.T) {
	assert.Equal(t, "content type", Field{Name: "content_type"}.Label())
	assert.Equal(t, "file", Field{Name: "storage_path", VerboseName: "file"}.Label())
}

func TestBookmark_GetSet(t *testing.T) {
	b := &Bookmark{}
	assert.True(t, IsZeroPK(b))

	require.NoError(t, b.Set("pk", int64(7)))
	require.NoError(t, b.Set("title", "Go"))
	require.NoError(t, b.Set("favourite", true))
	assert.Error(t, b.Set("title", 42))
	assert.ErrorIs(t, b.Set("nope", "x"), ErrUnknownField)

	assert.Equal(t, int64(7), PK(b))
	assert.False(t, IsZeroPK(b))

	s, err := ValueToString(b, "favourite")
	require.NoError(t, err)
	assert.Equal(t, "True", s)
}

func TestDocument_AttachFile(t *testing.T) {
	d := &Document{}
	assert.True(t, IsZeroPK(d))

	d.AttachFile("storage_path", FileInfo{Key: "documents/a.pdf", Filename: "a.pdf", Size: 3, ContentType: "application/pdf"})
	assert.Equal(t, "documents/a.pdf", d.StoragePath)
	assert.Equal(t, int64(3), d.Size)

	d.AttachFile("other", FileInfo{Key: "ignored"})
	assert.Equal(t, "documents/a.pdf", d.StoragePath)

	id := uuid.New()
	require.NoError(t, d.Set("id", id))
	assert.False(t, IsZeroPK(d))
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "False", FormatValue(false))
	assert.Equal(t, "12", FormatValue(int64(12)))
	assert.Equal(t, "2024-01-02T03:04:05Z", FormatValue(ts))
	assert.Equal(t, "", FormatValue(time.Time{}))
}

func TestLookupModel(t *testing.T) {
	m, err := LookupModel("bookmarks.Bookmark")
	require.NoError(t, err)
	assert.Same(t, BookmarkMeta(), m)

	m, err = LookupModel("library.document")
	require.NoError(t, err)
	assert.Same(t, DocumentMeta(), m)

	for _, label := range []string{"Bookmark", "library.Bookmark", ".Document", "bookmarks."} {
		_, err := LookupModel(label)
		assert.ErrorIs(t, err, ErrUnknownModel, label)
	}
}
