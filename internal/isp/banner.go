package isp

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/sjc5/stylepipe/internal/pkgmeta"
)

// Lines keep their trailing spaces; the template is joined rather than
// written as one raw string so editors can't eat them.
var bannerTemplate = template.Must(template.New("banner").Parse(strings.Join([]string{
	`/* * * * * * * * * * * * * * * * * * * * *\ ` + "\n",
	` {{.Name}} v{{.Version}} ` + "\n",
	` {{.Description}} ` + "\n",
	` (c) {{.Year}} {{.Author.Name}} <{{.Author.Email}}> ({{.Author.URL}}) ` + "\n",
	` {{.Homepage}} ` + "\n",
	` Licensed under  {{.License}} ` + "\n",
	`\* * * * * * * * * * * * * * * * * * * * */` + "\n",
}, "")))

type bannerData struct {
	pkgmeta.Metadata
	Year int
}

// RenderBanner renders the license banner for md. Missing fields render
// as empty text.
func RenderBanner(md pkgmeta.Metadata, year int) (string, error) {
	var sb strings.Builder
	if err := bannerTemplate.Execute(&sb, bannerData{Metadata: md, Year: year}); err != nil {
		return "", fmt.Errorf("error rendering banner: %w", err)
	}
	return sb.String(), nil
}

// RenderBanner renders the banner with the configured clock's year.
func (c *Config) RenderBanner() (string, error) {
	c.init()
	return RenderBanner(c.Metadata, c.Now().Year())
}
