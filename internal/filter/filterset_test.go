package filter

import (
	"net/url"
	"testing"

	"crudview/internal/model"
	"crudview/internal/repository"
	"crudview/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseQueryset() *repository.Queryset[*model.Bookmark] {
	store := &mocks.MockStore[*model.Bookmark]{NewFunc: func() *model.Bookmark { return &model.Bookmark{} }}
	return repository.NewQueryset[*model.Bookmark](store)
}

func TestForFields_UnknownField(t *testing.T) {
	_, err := ForFields[*model.Bookmark](model.BookmarkMeta(), []string{"nope"})
	assert.ErrorIs(t, err, model.ErrUnknownField)
}

func TestFilterSet_Qs(t *testing.T) {
	factory, err := ForFields[*model.Bookmark](model.BookmarkMeta(), []string{"title", "favourite", "id"},
		WithLookup("title", repository.OpIContains))
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      url.Values
		want      []repository.Filter
		wantErrs  map[string]string
		wantBound bool
	}{
		{
			name: "no params",
			data: url.Values{},
		},
		{
			name:      "text and bool",
			data:      url.Values{"title": {"go"}, "favourite": {"true"}},
			want:      []repository.Filter{{Field: "title", Op: repository.OpIContains, Value: "go"}, {Field: "favourite", Op: repository.OpExact, Value: true}},
			wantBound: true,
		},
		{
			name:      "unknown bool ignored",
			data:      url.Values{"favourite": {"unknown"}},
			wantBound: true,
		},
		{
			name:      "invalid int reported",
			data:      url.Values{"id": {"abc"}},
			wantErrs:  map[string]string{"id": `strconv.ParseInt: parsing "abc": invalid syntax`},
			wantBound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := baseQueryset()
			fs := factory(tt.data, base)

			assert.Equal(t, tt.wantBound, fs.IsBound())
			assert.Equal(t, tt.want, fs.Qs().Query().Filters)
			assert.Empty(t, base.Query().Filters)
			for k, v := range tt.wantErrs {
				assert.Equal(t, v, fs.Errors()[k])
			}
		})
	}
}

func TestFilterSet_Fields(t *testing.T) {
	factory, err := ForFields[*model.Bookmark](model.BookmarkMeta(), []string{"title", "favourite"})
	require.NoError(t, err)

	fields := factory(url.Values{"title": {"go"}, "favourite": {"false"}}, baseQueryset()).Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "go", fields[0].Value)
	assert.Equal(t, "text", fields[0].Widget)

	assert.Equal(t, "select", fields[1].Widget)
	require.Len(t, fields[1].Choices, 3)
	assert.False(t, fields[1].Choices[0].Selected)
	assert.True(t, fields[1].Choices[2].Selected)
}
