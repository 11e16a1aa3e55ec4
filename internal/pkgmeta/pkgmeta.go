// Package pkgmeta loads the project metadata record that feeds the
// stylesheet banner: name, version, description, author, homepage and
// license. The record is usually a package.json, but any map that koanf
// can hold will do.
package pkgmeta

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const DefaultFile = "package.json"

type Author struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email"`
	URL   string `koanf:"url"`
}

type Metadata struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Description string `koanf:"description"`
	Author      Author `koanf:"author"`
	Homepage    string `koanf:"homepage"`
	License     string `koanf:"license"`
}

// npm shorthand: "Barney Rubble <b@rubble.com> (http://barnyrubble.tumblr.com/)"
var authorRegex = regexp.MustCompile(`^\s*([^<(]*?)\s*(?:<([^>]*)>)?\s*(?:\(([^)]*)\))?\s*$`)

// ParseAuthor splits an npm-style author string. Strings that don't fit the
// shorthand are kept whole as the name.
func ParseAuthor(s string) Author {
	m := authorRegex.FindStringSubmatch(s)
	if m == nil {
		return Author{Name: strings.TrimSpace(s)}
	}
	return Author{Name: m[1], Email: m[2], URL: m[3]}
}

// Load reads a JSON metadata file (package.json layout).
func Load(path string) (Metadata, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return Metadata{}, fmt.Errorf("failed to load metadata from %s: %w", path, err)
	}
	return FromKoanf(k, "")
}

// LoadOptional is Load, except that a missing file yields empty metadata.
func LoadOptional(path string) (Metadata, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Metadata{}, nil
	}
	return Load(path)
}

// FromKoanf decodes the metadata rooted at path in k.
func FromKoanf(k *koanf.Koanf, path string) (Metadata, error) {
	var md Metadata
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &md,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook:       stringToAuthorHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf(path, &md, unmarshalConf); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}

// Merge returns m with every non-empty field of override applied on top.
func (m Metadata) Merge(override Metadata) Metadata {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Metadata{
		Name:        pick(m.Name, override.Name),
		Version:     pick(m.Version, override.Version),
		Description: pick(m.Description, override.Description),
		Author: Author{
			Name:  pick(m.Author.Name, override.Author.Name),
			Email: pick(m.Author.Email, override.Author.Email),
			URL:   pick(m.Author.URL, override.Author.URL),
		},
		Homepage: pick(m.Homepage, override.Homepage),
		License:  pick(m.License, override.License),
	}
}

func stringToAuthorHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() == reflect.String && t == reflect.TypeOf(Author{}) {
			a := ParseAuthor(data.(string))
			return map[string]interface{}{"name": a.Name, "email": a.Email, "url": a.URL}, nil
		}
		return data, nil
	}
}
