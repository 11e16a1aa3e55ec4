package pkgmeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("structured_author", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "package.json", `{
  "name": "demo",
  "version": "1.0.0",
  "description": "Test styles",
  "author": {"name": "A", "email": "a@example.com", "url": "https://example.com"},
  "homepage": "https://example.com",
  "license": "MIT",
  "devDependencies": {"gulp": "^4.0.0"}
}`)
		md, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, Metadata{
			Name:        "demo",
			Version:     "1.0.0",
			Description: "Test styles",
			Author:      Author{Name: "A", Email: "a@example.com", URL: "https://example.com"},
			Homepage:    "https://example.com",
			License:     "MIT",
		}, md)
	})

	t.Run("string_author", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "package.json", `{
  "name": "demo",
  "author": "Barney Rubble <b@rubble.com> (http://barnyrubble.tumblr.com/)"
}`)
		md, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "Barney Rubble", md.Author.Name)
		assert.Equal(t, "b@rubble.com", md.Author.Email)
		assert.Equal(t, "http://barnyrubble.tumblr.com/", md.Author.URL)
	})

	t.Run("missing_fields_stay_empty", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "package.json", `{"name": "bare"}`)
		md, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "bare", md.Name)
		assert.Empty(t, md.Version)
		assert.Equal(t, Author{}, md.Author)
	})

	t.Run("malformed_json", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "package.json", `{"name": `)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoadOptional(t *testing.T) {
	md, err := LoadOptional(filepath.Join(t.TempDir(), "package.json"))
	require.NoError(t, err)
	assert.Equal(t, Metadata{}, md)
}

func TestParseAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want Author
	}{
		{"Jane Doe", Author{Name: "Jane Doe"}},
		{"Jane Doe <jane@example.com>", Author{Name: "Jane Doe", Email: "jane@example.com"}},
		{"Jane Doe (https://jane.dev)", Author{Name: "Jane Doe", URL: "https://jane.dev"}},
		{"  Jane <j@x.io>  (https://x.io) ", Author{Name: "Jane", Email: "j@x.io", URL: "https://x.io"}},
		{"a < b", Author{Name: "a < b"}},
		{"", Author{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAuthor(tt.in))
		})
	}
}

func TestMerge(t *testing.T) {
	base := Metadata{Name: "demo", Version: "1.0.0", Author: Author{Name: "A", Email: "a@example.com"}}
	got := base.Merge(Metadata{Version: "2.0.0", Author: Author{URL: "https://example.com"}, License: "MIT"})

	assert.Equal(t, Metadata{
		Name:    "demo",
		Version: "2.0.0",
		Author:  Author{Name: "A", Email: "a@example.com", URL: "https://example.com"},
		License: "MIT",
	}, got)
}
