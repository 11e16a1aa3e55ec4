package isp

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

func (c *Config) getIsMatch(pattern string, path string) bool {
	combined := pattern + "\x00" + path

	if hit, isCached := c.matchResults.Load(combined); isCached {
		return hit
	}

	matches, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path))
	if err != nil {
		c.Logger.Errorf("error: failed to match file: %v", err)
		return false
	}

	actualValue, _ := c.matchResults.LoadOrStore(combined, matches)
	return actualValue
}

func (c *Config) getIsIgnored(path string, ignoredPatterns []string) bool {
	for _, pattern := range ignoredPatterns {
		if c.getIsMatch(pattern, path) {
			return true
		}
	}
	return false
}

// rootedPatterns makes patterns set relative to RootDir comparable with
// event paths.
func (c *Config) rootedPatterns(patterns []string) []string {
	root := c.getCleanRootDir()
	rooted := make([]string, 0, len(patterns))
	for _, p := range patterns {
		rooted = append(rooted, filepath.Join(root, p))
	}
	return rooted
}
