package isp

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return m
}()

func Minify(content string) (string, error) {
	out, err := minifier.String(cssMediaType, content)
	if err != nil {
		return "", fmt.Errorf("error minifying CSS: %w", err)
	}
	return out, nil
}

func contentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}
