// Package notify tells the developer how a build went. The build only sees
// the Notifier interface; the desktop implementation lives here so that
// nothing else has to import a GUI binding.
package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/sjc5/stylepipe/internal/logging"
)

const DefaultTitle = "stylepipe"

// ErrorTitle titles the alert for a failed task: "scss" gives "Scss error".
func ErrorTitle(task string) string {
	if task == "" {
		return "Build error"
	}
	return strings.ToUpper(task[:1]) + task[1:] + " error"
}

type Notifier interface {
	NotifySuccess(message string) error
	NotifyError(message string) error
}

// Desktop posts OS notifications. Errors use an alert, which also plays
// the platform's sound.
type Desktop struct {
	Title      string
	ErrorTitle string
	Icon       string
}

func NewDesktop(task string) *Desktop {
	return &Desktop{Title: DefaultTitle, ErrorTitle: ErrorTitle(task)}
}

func (d *Desktop) NotifySuccess(message string) error {
	if err := beeep.Notify(d.Title, message, d.Icon); err != nil {
		return fmt.Errorf("error posting desktop notification: %w", err)
	}
	return nil
}

func (d *Desktop) NotifyError(message string) error {
	if err := beeep.Alert(d.ErrorTitle, message, d.Icon); err != nil {
		return fmt.Errorf("error posting desktop alert: %w", err)
	}
	return nil
}

// Log writes notifications to a logger. Useful on CI and headless boxes.
type Log struct {
	Logger logging.Logger
}

func (l *Log) NotifySuccess(message string) error {
	l.Logger.Infof("%s", message)
	return nil
}

func (l *Log) NotifyError(message string) error {
	l.Logger.Errorf("%s", message)
	return nil
}

type Nop struct{}

func (Nop) NotifySuccess(string) error { return nil }
func (Nop) NotifyError(string) error   { return nil }

// Fallback tries Primary and hands over to Secondary when it fails, e.g.
// a desktop notifier on a machine without a notification daemon.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

func (f *Fallback) NotifySuccess(message string) error {
	if err := f.Primary.NotifySuccess(message); err != nil {
		return f.Secondary.NotifySuccess(message)
	}
	return nil
}

func (f *Fallback) NotifyError(message string) error {
	if err := f.Primary.NotifyError(message); err != nil {
		return f.Secondary.NotifyError(message)
	}
	return nil
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *Recorder) NotifySuccess(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
	return nil
}

func (r *Recorder) NotifyError(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
	return nil
}

func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = nil
	r.errors = nil
}

// New picks a notifier by name: "desktop" (falling back to log), "log" or
// "none". task names the build in alert titles.
func New(kind, task string, logger logging.Logger) (Notifier, error) {
	switch kind {
	case "desktop", "":
		return &Fallback{Primary: NewDesktop(task), Secondary: &Log{Logger: logger}}, nil
	case "log":
		return &Log{Logger: logger}, nil
	case "none":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown notifier %q (want desktop, log or none)", kind)
}
