package isp

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type evtDetails struct {
	evt                 fsnotify.Event
	isDir               bool
	isIgnored           bool
	isSource            bool // matches the source pattern, partials included
	isWatchedDir        bool // a directory we were watching that went away
	isNonEmptyCHMODOnly bool
}

func (s *watchSession) getEvtDetails(evt fsnotify.Event) *evtDetails {
	c := s.c
	details := &evtDetails{evt: evt}

	fileInfo, _ := os.Stat(evt.Name) // a removed file is still an event worth handling
	details.isDir = fileInfo != nil && fileInfo.IsDir()

	if details.isDir {
		details.isIgnored = c.getIsIgnored(evt.Name, s.ignoredDirPatterns)
		return details
	}

	if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
		if wasWatched, _ := s.watchedDirs.Load(filepath.Clean(evt.Name)); wasWatched {
			details.isWatchedDir = true
			return details
		}
	}

	details.isIgnored = c.getIsIgnored(evt.Name, s.ignoredFilePatterns)
	details.isSource = c.getIsMatch(s.sourcePattern, evt.Name)
	if details.isSource {
		details.isNonEmptyCHMODOnly = c.getIsNonEmptyCHMODOnly(evt)
	}
	return details
}

func (c *Config) getIsEmptyFile(evt fsnotify.Event) bool {
	file, err := os.Open(evt.Name)
	if err != nil {
		c.Logger.Errorf("error: failed to open file: %v", err)
		return false
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		c.Logger.Errorf("error: failed to get file stats: %v", err)
		return false
	}
	return stat.Size() == 0
}

func (c *Config) getIsNonEmptyCHMODOnly(evt fsnotify.Event) bool {
	isSolelyCHMOD := !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename)
	return isSolelyCHMOD && !c.getIsEmptyFile(evt)
}
