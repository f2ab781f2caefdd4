package crud

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(c *fiber.Ctx) error { return nil }

func TestRouter_Reverse(t *testing.T) {
	rt := NewRouter(fiber.New(), "/app/")
	rt.Handle("bookmark-list", "/bookmark/", noop)
	rt.Handle("bookmark-detail", "/bookmark/:pk<int>/", noop)
	rt.Handle("document-detail", "/document/:id<guid>/", noop)
	rt.Get("tag", "/tag/:name/", noop)

	tests := []struct {
		name    string
		route   string
		kv      []string
		want    string
		wantErr bool
	}{
		{name: "no params", route: "bookmark-list", want: "/app/bookmark/"},
		{name: "int param", route: "bookmark-detail", kv: []string{"pk", "42"}, want: "/app/bookmark/42/"},
		{name: "guid param", route: "document-detail", kv: []string{"id", "0b5e0c8e-9c1a-4b7e-8a55-9b1d4c1f2a10"}, want: "/app/document/0b5e0c8e-9c1a-4b7e-8a55-9b1d4c1f2a10/"},
		{name: "escaped param", route: "tag", kv: []string{"name", "a b"}, want: "/app/tag/a%20b/"},
		{name: "unknown route", route: "nope", wantErr: true},
		{name: "missing param", route: "bookmark-detail", wantErr: true},
		{name: "constraint mismatch", route: "bookmark-detail", kv: []string{"pk", "abc"}, wantErr: true},
		{name: "extra param", route: "bookmark-list", kv: []string{"pk", "1"}, wantErr: true},
		{name: "odd params", route: "bookmark-detail", kv: []string{"pk"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rt.Reverse(tt.route, tt.kv...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoReverseMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitParam(t *testing.T) {
	key, c := splitParam("pk<int>")
	assert.Equal(t, "pk", key)
	assert.Equal(t, "int", c)

	key, c = splitParam("slug?")
	assert.Equal(t, "slug", key)
	assert.Empty(t, c)
}
