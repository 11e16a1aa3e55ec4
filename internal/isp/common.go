package isp

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/sjc5/stylepipe/internal/notify"
)

const (
	defaultSrcDir      = "src"
	defaultDistDir     = "dist"
	defaultPattern     = "**/*.scss"
	defaultConcurrency = 8
	defaultDebounce    = 30 * time.Millisecond
	minSuffix          = ".min"
	cssExt             = ".css"
	partialPrefix      = "_"
)

type cleanDirs struct {
	Root string
	Src  string
	Dist string
}

func (c *Config) init() {
	c.commonInitOnce.Do(func() {
		if c.SrcDir == "" {
			c.SrcDir = defaultSrcDir
		}
		if c.DistDir == "" {
			c.DistDir = defaultDistDir
		}
		if c.Pattern == "" {
			c.Pattern = defaultPattern
		}
		if c.Notifier == nil {
			c.Notifier = notify.Nop{}
		}
		if c.Logger == nil {
			c.Logger = logging.Log
		}
		if c.Compiler == nil {
			c.Compiler = &DartSass{Logger: c.Logger}
		}
		if c.Concurrency <= 0 {
			c.Concurrency = defaultConcurrency
		}
		if c.Now == nil {
			c.Now = time.Now
		}

		root := filepath.Clean(c.RootDir)
		c.cleanDirs = cleanDirs{
			Root: root,
			Src:  filepath.Join(root, filepath.Clean(c.SrcDir)),
			Dist: filepath.Join(root, filepath.Clean(c.DistDir)),
		}
	})
}

func (c *Config) getCleanDirs() cleanDirs {
	c.init()
	return c.cleanDirs
}

func (c *Config) getCleanRootDir() string {
	return c.getCleanDirs().Root
}

func (c *Config) taskName() string {
	c.init()
	return TaskName(c.Pattern)
}

// TaskName is what the developer sees in notifications for a source
// pattern, e.g. "scss" for "**/*.scss".
func TaskName(pattern string) string {
	if pattern == "" {
		pattern = defaultPattern
	}
	ext := strings.TrimPrefix(filepath.Ext(pattern), ".")
	if ext == "" || strings.ContainsAny(ext, "{}*?[]") {
		return "stylesheet"
	}
	return ext
}

// outputName maps "components/button.scss" to "components/button<suffix>.css".
func outputName(relPath, suffix string) string {
	ext := filepath.Ext(relPath)
	return strings.TrimSuffix(relPath, ext) + suffix + cssExt
}

func isPartial(relPath string) bool {
	return strings.HasPrefix(filepath.Base(relPath), partialPrefix)
}
