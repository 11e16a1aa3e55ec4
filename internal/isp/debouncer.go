package isp

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debouncer collects events and hands them to callback as one batch once
// no new event has arrived for duration.
type debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	callback func([]fsnotify.Event)
	timer    *time.Timer
	events   []fsnotify.Event
	stopped  bool
}

func newDebouncer(duration time.Duration, callback func([]fsnotify.Event)) *debouncer {
	return &debouncer{duration: duration, callback: callback}
}

func (d *debouncer) addEvent(evt fsnotify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events = append(d.events, evt)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	events := d.events
	d.events = nil
	stopped := d.stopped
	d.mu.Unlock()

	if stopped || len(events) == 0 {
		return
	}
	d.callback(events)
}

// stop drops pending events. Batches already handed to callback are not
// interrupted.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.events = nil
	if d.timer != nil {
		d.timer.Stop()
	}
}
