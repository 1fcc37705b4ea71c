// Package sync keeps the in-memory task list converged with the shared
// file.
//
// The Syncer owns the canonical collection for one session. The interactive
// layer mutates it through the Apply methods; a background loop re-reads
// the file on a fixed interval, three-way merges it against the last synced
// snapshot, and writes back when anything changed. One mutex serializes the
// two, held for a single tick's merge-and-write at most, so user input is
// never blocked across ticks.
package sync

import (
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/bborn/tydo/internal/merge"
	"github.com/bborn/tydo/internal/store"
	"github.com/bborn/tydo/internal/task"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the polling interval between sync ticks.
const DefaultInterval = 500 * time.Millisecond

// Options configures a Syncer.
type Options struct {
	// Interval between ticks. Defaults to DefaultInterval.
	Interval time.Duration
	// OnMerged is called after a tick whose result differs from the
	// session's previous view. The list is a private copy.
	OnMerged func(task.List)
	// Logger defaults to a stderr logger with a "sync" prefix.
	Logger *log.Logger
}

// Syncer reconciles one session's task list with the shared file.
type Syncer struct {
	store    *store.Store
	interval time.Duration
	onMerged func(task.List)
	logger   *log.Logger

	mu      stdsync.Mutex
	base    task.List
	local   task.List
	dirty   bool
	lastMod time.Time

	nudge    chan struct{}
	quit     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	started  bool
	stopOnce stdsync.Once
}

// New creates a Syncer over the given store.
func New(st *store.Store, opts Options) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "sync"})
	}
	return &Syncer{
		store:    st,
		interval: opts.Interval,
		onMerged: opts.OnMerged,
		logger:   opts.Logger,
		nudge:    make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start loads the current file content and launches the background loop.
func (s *Syncer) Start() error {
	snapshot, err := s.store.Read()
	if err != nil {
		// Transient read trouble is not fatal; begin empty and let the
		// first successful tick adopt the file content.
		s.logger.Warn("initial read failed", "err", err)
		snapshot = nil
	}

	s.mu.Lock()
	s.base = snapshot.Clone()
	s.local = snapshot.Clone()
	s.started = true
	s.mu.Unlock()

	s.watchFile()
	go s.run()
	return nil
}

// Stop terminates the loop and attempts one final sync so edits made since
// the last tick are not lost. Idempotent.
func (s *Syncer) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	s.stopOnce.Do(func() {
		close(s.quit)
		<-s.done
		if s.watcher != nil {
			s.watcher.Close()
		}
		s.tick()
	})
}

// Nudge requests an immediate tick without waiting for the interval.
func (s *Syncer) Nudge() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

func (s *Syncer) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.tick()
		case <-s.nudge:
			s.tick()
		}
	}
}

// tick runs one reconcile cycle. Every failure path degrades to "retry on
// the next tick"; a tick never panics and never blocks beyond one
// merge-and-write.
func (s *Syncer) tick() {
	s.mu.Lock()

	// Cheap probe: nothing changed here and the file was not touched.
	modTime := s.store.ModTime()
	if !s.dirty && !modTime.IsZero() && modTime.Equal(s.lastMod) {
		s.mu.Unlock()
		return
	}

	snapshot, err := s.store.Read()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("read failed, will retry", "err", err)
		return
	}

	merged, changed := merge.Merge(s.base, s.local, snapshot)
	if changed {
		if err := s.store.Write(merged); err != nil {
			// Keep base untouched so the next tick re-merges against the
			// same ancestor instead of believing this write landed.
			s.mu.Unlock()
			s.logger.Warn("write failed, will retry", "err", err)
			return
		}
		// Force a full read next tick; a racing write between our rename
		// and a stat here must not be masked by a stale mod time.
		modTime = time.Time{}
	}

	viewChanged := !merged.Equal(s.local)
	s.lastMod = modTime
	s.base = merged
	s.local = merged
	s.dirty = false

	var notify func(task.List)
	var view task.List
	if viewChanged && s.onMerged != nil {
		notify = s.onMerged
		view = merged.Clone()
	}
	s.mu.Unlock()

	if notify != nil {
		notify(view)
	}
}

// Tasks returns a snapshot copy of the session's current view.
func (s *Syncer) Tasks() task.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Clone()
}

// ApplyCreate appends a new task and schedules a sync. Empty text is
// discarded.
func (s *Syncer) ApplyCreate(text string) (task.Task, bool) {
	t := task.New(text)
	if t.Text == "" {
		return task.Task{}, false
	}
	s.mu.Lock()
	s.local = append(s.local, t)
	s.dirty = true
	s.mu.Unlock()
	s.Nudge()
	return t, true
}

// ApplyEdit replaces the display text of a task, preserving its priority
// marker and group prefix.
func (s *Syncer) ApplyEdit(id, display string) bool {
	return s.apply(id, func(t *task.Task) {
		t.SetDisplayText(display)
	})
}

// ApplyToggleDone flips a task's completion flag.
func (s *Syncer) ApplyToggleDone(id string) bool {
	return s.apply(id, func(t *task.Task) {
		t.Done = !t.Done
	})
}

// ApplySetPriority sets the task's priority, or clears it when the task
// already has that priority. PriorityNone always clears.
func (s *Syncer) ApplySetPriority(id string, p task.Priority) bool {
	return s.apply(id, func(t *task.Task) {
		if p == task.PriorityNone {
			t.SetPriority(task.PriorityNone)
			return
		}
		t.TogglePriority(p)
	})
}

// ApplyDelete removes a task from the session's view. The deletion reaches
// the file on the next tick, where an edit by another session may still
// resurrect the task.
func (s *Syncer) ApplyDelete(id string) bool {
	s.mu.Lock()
	before := len(s.local)
	s.local = s.local.Remove(id)
	deleted := len(s.local) != before
	if deleted {
		s.dirty = true
	}
	s.mu.Unlock()
	if deleted {
		s.Nudge()
	}
	return deleted
}

func (s *Syncer) apply(id string, fn func(*task.Task)) bool {
	s.mu.Lock()
	i := s.local.Index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.local[i])
	s.dirty = true
	s.mu.Unlock()
	s.Nudge()
	return true
}

// watchFile nudges the loop when another session rewrites the file, so
// cross-session edits land well under the polling interval. The directory
// is watched rather than the file: atomic replace swaps the inode, which
// would silently drop a watch on the file itself. Any watcher failure
// degrades to pure polling.
func (s *Syncer) watchFile() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Debug("fsnotify unavailable, polling only", "err", err)
		return
	}
	dir := filepath.Dir(s.store.Path())
	if err := os.MkdirAll(dir, 0755); err == nil {
		err = watcher.Add(dir)
	}
	if err != nil {
		s.logger.Debug("watch failed, polling only", "err", err)
		watcher.Close()
		return
	}
	s.watcher = watcher

	name := filepath.Base(s.store.Path())
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.Nudge()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Keep watching; polling covers correctness.
			}
		}
	}()
}
