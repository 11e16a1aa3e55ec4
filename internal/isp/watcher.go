package isp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sjc5/kit/pkg/typed"
)

var naiveIgnoreDirPatterns = []string{"**/.git", "**/node_modules"}

// watchSession is the state of one Watch call.
type watchSession struct {
	c         *Config
	watcher   *fsnotify.Watcher
	queue     *rebuildQueue
	callbacks sortedOnChangeCallbacks
	onBuild   func(*Report)

	sourcePattern       string
	ignoredDirPatterns  []string
	ignoredFilePatterns []string
	watchedDirs         typed.SyncMap[string, bool]
}

func (c *Config) watchConfig() WatchConfig {
	c.init()
	var wc WatchConfig
	if c.WatchConfig != nil {
		wc = *c.WatchConfig
	}
	if wc.Debounce <= 0 {
		wc.Debounce = defaultDebounce
	}
	return wc
}

func (c *Config) newWatchSession(watcher *fsnotify.Watcher) *watchSession {
	dirs := c.getCleanDirs()
	wc := c.watchConfig()

	s := &watchSession{
		c:             c,
		watcher:       watcher,
		queue:         newRebuildQueue(),
		callbacks:     sortOnChangeCallbacks(wc.OnChangeCallbacks),
		onBuild:       wc.OnBuildComplete,
		sourcePattern: filepath.Join(dirs.Src, c.Pattern),
	}

	s.ignoredDirPatterns = append(s.ignoredDirPatterns, c.rootedPatterns(naiveIgnoreDirPatterns)...)
	s.ignoredDirPatterns = append(s.ignoredDirPatterns, c.rootedPatterns(wc.IgnorePatterns.Dirs)...)
	// Output never feeds back into the build, even when DistDir sits under SrcDir.
	s.ignoredDirPatterns = append(s.ignoredDirPatterns, dirs.Dist)
	s.ignoredFilePatterns = c.rootedPatterns(wc.IgnorePatterns.Files)

	return s
}

// Watch rebuilds whenever a source under SrcDir is created, written,
// removed or renamed, until ctx is cancelled, and then returns nil.
//
// Builds never overlap. Changes that arrive while a build is running are
// folded into one follow-up build, which starts as soon as the running one
// ends. Build failures are logged and notified, never returned.
func (c *Config) Watch(ctx context.Context) error {
	dirs := c.getCleanDirs()
	wc := c.watchConfig()

	if info, err := os.Stat(dirs.Src); err != nil || !info.IsDir() {
		return fmt.Errorf("error watching %s: source directory not found", dirs.Src)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	s := c.newWatchSession(watcher)
	if err := s.addDirs(dirs.Src); err != nil {
		return fmt.Errorf("error adding directories to watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	debouncer := newDebouncer(wc.Debounce, s.processBatchedEvents)
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		s.runRebuilds(ctx)
	}()
	defer func() {
		cancel()
		debouncer.stop()
		<-runnerDone
	}()

	if wc.BuildOnStart {
		s.queue.push()
	}

	c.Logger.Infof("watching %s", s.sourcePattern)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			debouncer.addEvent(evt)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			c.Logger.Errorf("watcher error: %v", err)
		}
	}
}

// MustWatch is Watch without a way out: it runs until the process ends and
// panics if the watch can't start.
func (c *Config) MustWatch() {
	if err := c.Watch(context.Background()); err != nil {
		c.Logger.Panicf("error: %v", err)
	}
}

func (s *watchSession) addDirs(path string) error {
	return filepath.Walk(path, func(walkedPath string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		if info.IsDir() {
			if s.c.getIsIgnored(walkedPath, s.ignoredDirPatterns) {
				return filepath.SkipDir
			}
			if err := s.watcher.Add(walkedPath); err != nil {
				return fmt.Errorf("error adding directory to watcher: %w", err)
			}
			s.watchedDirs.Store(filepath.Clean(walkedPath), true)
		}
		return nil
	})
}

// processBatchedEvents turns one debounced batch into at most one rebuild
// request.
func (s *watchSession) processBatchedEvents(events []fsnotify.Event) {
	fileChanges := make(map[string]fsnotify.Event)
	for _, evt := range events {
		if prev, ok := fileChanges[evt.Name]; ok {
			evt.Op |= prev.Op
		}
		fileChanges[evt.Name] = evt
	}

	var changed []string
	for _, evt := range fileChanges {
		details := s.getEvtDetails(evt)
		switch {
		case details.isIgnored:
		case details.isDir:
			if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				if err := s.addDirs(evt.Name); err != nil {
					s.c.Logger.Errorf("error: failed to add directory to watcher: %v", err)
					continue
				}
				// It may have arrived with sources already inside.
				changed = append(changed, evt.Name)
			}
		case details.isWatchedDir:
			s.watchedDirs.Store(filepath.Clean(evt.Name), false)
			changed = append(changed, evt.Name)
		case details.isSource && !details.isNonEmptyCHMODOnly:
			changed = append(changed, evt.Name)
		}
	}

	if len(changed) == 0 {
		return
	}
	s.queue.push(changed...)
}

func (s *watchSession) runRebuilds(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue.signal:
			paths, ok := s.queue.take()
			if !ok {
				continue
			}
			s.rebuild(ctx, paths)
		}
	}
}

// rebuild runs one build for a set of changed paths, with the onChange
// callbacks around it.
func (s *watchSession) rebuild(ctx context.Context, paths []string) {
	c := s.c
	if len(paths) > 0 {
		c.Logger.Infof("change detected: %s", strings.Join(c.relToRoot(paths), ", "))
	}

	callbacks := s.callbacks
	if callbacks.exists {
		go c.runConcurrentOnChangeCallbacks(callbacks.stratConcurrentNoWait, paths, false)
		c.simpleRunOnChangeCallbacks(callbacks.stratPre, paths)
	}

	var report *Report
	var buildErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		report, buildErr = c.Build(ctx)
	}()
	c.runConcurrentOnChangeCallbacks(callbacks.stratConcurrent, paths, true)
	wg.Wait()

	if report != nil && s.onBuild != nil && ctx.Err() == nil {
		s.onBuild(report)
	}

	if buildErr != nil {
		if ctx.Err() != nil {
			return
		}
		// Per-file failures were already logged and notified by Build.
		var be *BuildError
		if !errors.As(buildErr, &be) {
			c.Logger.Errorf("error: failed to build: %v", buildErr)
			c.notifyError(buildErr)
		}
		return
	}

	c.simpleRunOnChangeCallbacks(callbacks.stratPost, paths)
}

func (c *Config) relToRoot(paths []string) []string {
	root := c.getCleanRootDir()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		out = append(out, filepath.ToSlash(p))
	}
	return out
}
