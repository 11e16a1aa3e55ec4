package isp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// FileReport describes the two artifacts written for one source.
type FileReport struct {
	Source   string // relative to the source dir
	FullPath string
	MinPath  string
	FullSize int
	MinSize  int
	GzipSize int // of the minified artifact

	// False when the artifact's bytes were already on disk.
	FullWritten bool
	MinWritten  bool
}

// Report is the outcome of one Build. Files is in source order and only
// lists sources that built; Failed holds a *BuildError per source that
// didn't.
type Report struct {
	Files    []FileReport
	Failed   []error
	Duration time.Duration
}

// Err folds every failure into one error, or nil if there were none.
func (r *Report) Err() error {
	var merr *multierror.Error
	for _, err := range r.Failed {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

type fileResult struct {
	report FileReport
	err    error
}

// Build runs the pipeline once over every source. A failing source does not
// stop the others: each failure is sent to the notifier as its own error,
// and the success notification fires once, after every file is written,
// only when nothing failed. The returned error aggregates the failures.
//
// If ctx is cancelled mid-build, Build returns ctx.Err() and notifies
// nothing.
func (c *Config) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	dirs := c.getCleanDirs()

	sources, err := c.collectSources()
	if err != nil {
		return nil, fmt.Errorf("error collecting sources: %w", err)
	}
	if len(sources) == 0 {
		c.Logger.Warningf("no sources match %s in %s", c.Pattern, dirs.Src)
		return &Report{Duration: time.Since(start)}, nil
	}

	if err := SetupDistDir(dirs.Dist); err != nil {
		return nil, err
	}

	// Rendered per invocation, so a year rollover or metadata swap shows up
	// on the next build.
	banner, err := c.RenderBanner()
	if err != nil {
		return nil, err
	}

	results := make([]fileResult, len(sources))
	sem := semaphore.NewWeighted(c.Concurrency)

	var wg sync.WaitGroup
	for i, rel := range sources {
		wg.Add(1)
		go func(i int, rel string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].err = err
				return
			}
			defer sem.Release(1)
			results[i].report, results[i].err = c.buildFile(ctx, rel, banner)
		}(i, rel)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, res.err)
			continue
		}
		report.Files = append(report.Files, res.report)
	}
	report.Duration = time.Since(start)

	if len(report.Failed) > 0 {
		for _, err := range report.Failed {
			c.Logger.Errorf("%v", err)
			c.notifyError(err)
		}
		return report, report.Err()
	}

	c.Logger.Infof("built %d %s in %s", len(report.Files), pluralize(len(report.Files), "file", "files"), report.Duration.Round(time.Millisecond))
	c.notifySuccess(fmt.Sprintf("%s task complete!", c.taskName()))
	return report, nil
}

// MustBuild is Build for scripts: it panics if the build can't run or any
// source fails.
func (c *Config) MustBuild() *Report {
	report, err := c.Build(context.Background())
	if err != nil {
		panic(err)
	}
	return report
}

func (c *Config) buildFile(ctx context.Context, rel, banner string) (FileReport, error) {
	dirs := c.getCleanDirs()
	report := FileReport{
		Source:   rel,
		FullPath: filepath.Join(dirs.Dist, filepath.FromSlash(outputName(rel, ""))),
		MinPath:  filepath.Join(dirs.Dist, filepath.FromSlash(outputName(rel, minSuffix))),
	}

	srcPath := filepath.Join(dirs.Src, filepath.FromSlash(rel))
	source, err := os.ReadFile(srcPath)
	if err != nil {
		return report, &BuildError{Path: rel, Step: StepRead, Err: err}
	}

	full := &Asset{SrcPath: srcPath, RelPath: rel, CSS: string(source)}
	if err := runSteps(ctx, full, c.fullSteps(banner)); err != nil {
		return report, err
	}
	fullBytes := full.Bytes()
	report.FullSize = len(fullBytes)
	if report.FullWritten, err = writeIfChanged(report.FullPath, fullBytes); err != nil {
		return report, &BuildError{Path: rel, Step: StepWrite, Err: err}
	}

	minified := full.clone()
	if err := runSteps(ctx, minified, c.minSteps()); err != nil {
		return report, err
	}
	minBytes := minified.Bytes()
	report.MinSize = len(minBytes)

	gz, err := GzipSize(minBytes)
	if err != nil {
		c.Logger.Warningf("could not measure gzip size of %s: %v", rel, err)
	}
	report.GzipSize = gz
	c.Logger.Infof("%s %s (gzip %s)", outputName(rel, minSuffix), HumanSize(report.MinSize), HumanSize(gz))

	if report.MinWritten, err = writeIfChanged(report.MinPath, minBytes); err != nil {
		return report, &BuildError{Path: rel, Step: StepWrite, Err: err}
	}
	return report, nil
}

// collectSources lists the sources under the source dir that match the
// pattern, slash separated and sorted. Partials are left out.
func (c *Config) collectSources() ([]string, error) {
	dirs := c.getCleanDirs()
	info, err := os.Stat(dirs.Src)
	if err != nil {
		return nil, fmt.Errorf("error reading source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", dirs.Src)
	}

	matches, err := doublestar.Glob(os.DirFS(dirs.Src), c.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("error matching pattern %q: %w", c.Pattern, err)
	}

	sources := matches[:0]
	for _, m := range matches {
		if isPartial(m) {
			continue
		}
		sources = append(sources, m)
	}
	sort.Strings(sources)
	return sources, nil
}

// SetupDistDir makes sure the output directory exists.
func SetupDistDir(distDir string) error {
	if err := os.MkdirAll(filepath.Clean(distDir), 0755); err != nil {
		return fmt.Errorf("error making dist directory: %w", err)
	}
	return nil
}

// writeIfChanged writes content to path unless path already holds exactly
// content. It reports whether it wrote.
func writeIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(existing) == len(content) && contentHash(existing) == contentHash(content) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("error reading %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("error making directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, fmt.Errorf("error writing %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) notifySuccess(message string) {
	if err := c.Notifier.NotifySuccess(message); err != nil {
		c.Logger.Warningf("notifier: %v", err)
	}
}

func (c *Config) notifyError(err error) {
	if nerr := c.Notifier.NotifyError("Error: " + err.Error()); nerr != nil {
		c.Logger.Warningf("notifier: %v", nerr)
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
