package asset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/intern"
)

// Action is the kind of change a FileEvent reports.
type Action uint8

const (
	Added Action = iota + 1
	Removed
	Modified
	Renamed
)

func (a Action) String() string {
	switch a {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	}
	return "unknown"
}

// FileEvent names a resource and what happened to it.
type FileEvent struct {
	Name   string
	Action Action
}

// Watcher produces file events. Drain is called once per frame from the
// engine goroutine and returns everything queued since the last call.
type Watcher interface {
	Drain() []FileEvent
	Close() error
}

// queue is the hand-off between a watcher goroutine and Drain.
type queue struct {
	mu     sync.Mutex
	events []FileEvent
}

func (q *queue) push(ev FileEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *queue) drain() []FileEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// FSWatcher watches a directory tree with fsnotify.
type FSWatcher struct {
	root string
	w    *fsnotify.Watcher
	q    queue
	log  *zap.Logger
	done chan struct{}
}

// NewFSWatcher starts watching root and every directory below it.
func NewFSWatcher(root string, log *zap.Logger) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &FSWatcher{root: root, w: w, log: log, done: make(chan struct{})}
	if err := fw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}
	go fw.loop()
	return fw, nil
}

func (fw *FSWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.w.Add(p)
	})
}

func (fw *FSWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			fw.handle(ev)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			fw.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (fw *FSWatcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := fw.addTree(ev.Name); err != nil {
				fw.log.Warn("watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
			return
		}
	}

	var action Action
	switch {
	case ev.Has(fsnotify.Write):
		action = Modified
	case ev.Has(fsnotify.Create):
		action = Added
	case ev.Has(fsnotify.Remove):
		action = Removed
	case ev.Has(fsnotify.Rename):
		action = Renamed
	default:
		return
	}

	rel, err := filepath.Rel(fw.root, ev.Name)
	if err != nil {
		return
	}
	fw.q.push(FileEvent{Name: intern.ResourceName(filepath.ToSlash(rel)), Action: action})
}

func (fw *FSWatcher) Drain() []FileEvent { return fw.q.drain() }

func (fw *FSWatcher) Close() error {
	err := fw.w.Close()
	<-fw.done
	return err
}

// PollWatcher probes modification times on the engine goroutine, at most
// once per interval. It works over any Source, including the database
// archive, where no change notifications exist.
type PollWatcher struct {
	src      Source
	names    func() []string
	interval time.Duration
	now      func() time.Time
	last     time.Time
	known    map[string]time.Time
}

// NewPollWatcher polls the names returned by names. Passing
// Store.Resources watches everything currently loaded.
func NewPollWatcher(src Source, names func() []string, interval time.Duration) *PollWatcher {
	return &PollWatcher{
		src:      src,
		names:    names,
		interval: interval,
		now:      time.Now,
		known:    make(map[string]time.Time),
	}
}

// Probe checks every name once. The first sighting of a name only records
// its time.
func (pw *PollWatcher) Probe(names []string) []FileEvent {
	var out []FileEvent
	for _, name := range names {
		mod, err := pw.src.ModTime(name)
		prev, seen := pw.known[name]
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if seen && !prev.IsZero() {
				out = append(out, FileEvent{Name: name, Action: Removed})
			}
			pw.known[name] = time.Time{}
		case err != nil:
			continue
		case !seen:
			pw.known[name] = mod
		case prev.IsZero():
			pw.known[name] = mod
			out = append(out, FileEvent{Name: name, Action: Added})
		case !mod.Equal(prev):
			pw.known[name] = mod
			out = append(out, FileEvent{Name: name, Action: Modified})
		}
	}
	return out
}

func (pw *PollWatcher) Drain() []FileEvent {
	now := pw.now()
	if !pw.last.IsZero() && now.Sub(pw.last) < pw.interval {
		return nil
	}
	pw.last = now
	return pw.Probe(pw.names())
}

func (pw *PollWatcher) Close() error { return nil }
