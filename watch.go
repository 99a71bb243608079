// FILE: lixenwraith/settings/watch.go
package settings

import (
	"context"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxWatchers caps subscriber channels to prevent resource exhaustion.
const DefaultMaxWatchers = 100

// WatchOptions configures configuration-file watching.
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms).
	PollInterval time.Duration

	// Debounce duration to avoid rapid reparses.
	Debounce time.Duration

	// MaxWatchers limits concurrent subscriber channels.
	MaxWatchers int
}

// DefaultWatchOptions returns sensible defaults for file watching.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval: DefaultPollInterval,
		Debounce:     DefaultDebounce,
		MaxWatchers:  DefaultMaxWatchers,
	}
}

type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

// watcher polls the files of the last Parse and reparses them on change.
type watcher struct {
	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	opts          WatchOptions
	files         []string
	state         map[string]fileState
	watching      atomic.Bool
	reloading     atomic.Bool
	subs          map[int64]chan string
	subID         atomic.Int64
	debounceTimer *time.Timer
}

// AutoReparse re-runs Parse whenever any of the most recently parsed
// configuration files changes on disk. It is a no-op when nothing has been
// parsed yet.
func (s *Settings) AutoReparse() {
	s.AutoReparseWithOptions(DefaultWatchOptions())
}

// AutoReparseWithOptions enables automatic reparsing with custom options.
func (s *Settings) AutoReparseWithOptions(opts WatchOptions) {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.parsedFiles) == 0 {
		return
	}
	if s.watcher != nil && !equalFiles(s.watcher.files, s.parsedFiles) {
		s.watcher.stop()
		s.watcher = nil
	}
	if s.watcher != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		files:  append([]string(nil), s.parsedFiles...),
		state:  make(map[string]fileState),
		subs:   make(map[int64]chan string),
	}
	for _, path := range w.files {
		w.state[path] = statFile(path)
	}
	s.watcher = w
	go w.watchLoop(s)
}

// StopAutoReparse stops automatic reparsing.
func (s *Settings) StopAutoReparse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.stop()
		s.watcher = nil
	}
}

// WatchChanges returns a channel receiving the names of settings whose
// effective value changed after a reparse. Automatic reparsing is started
// with default options when not yet running.
func (s *Settings) WatchChanges() <-chan string {
	s.AutoReparse()

	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()

	if w == nil {
		ch := make(chan string)
		close(ch)
		return ch
	}
	return w.subscribe()
}

// IsWatching reports whether automatic reparsing is active.
func (s *Settings) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil && s.watcher.watching.Load()
}

func (w *watcher) watchLoop(s *Settings) {
	if !w.watching.CompareAndSwap(false, true) {
		return
	}
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReparse(s)
		}
	}
}

func (w *watcher) checkAndReparse(s *Settings) {
	changed := false
	for _, path := range w.files {
		now := statFile(path)
		if prev := w.state[path]; now != prev {
			w.state[path] = now
			changed = true
		}
	}
	if !changed {
		return
	}

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
		w.performReparse(s)
	})
	w.mu.Unlock()
}

func (w *watcher) performReparse(s *Settings) {
	if !w.reloading.CompareAndSwap(false, true) {
		return
	}
	defer w.reloading.Store(false)

	before := s.effectiveSnapshot()
	if err := s.Parse(w.files...); err != nil {
		s.logger.Warn("reparse after file change failed", zap.Error(err))
		w.notify("reparse_error")
		return
	}
	after := s.effectiveSnapshot()

	for name, newVal := range after {
		if oldVal, existed := before[name]; !existed || !reflect.DeepEqual(oldVal, newVal) {
			w.notify(name)
		}
	}
	for name := range before {
		if _, exists := after[name]; !exists {
			w.notify(name)
		}
	}
}

func (w *watcher) subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.subs) >= w.opts.MaxWatchers {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch := make(chan string, 10)
	id := w.subID.Add(1)
	w.subs[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subs, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

func (w *watcher) notify(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- name:
		default:
			// Subscriber is not keeping up; drop rather than block.
		}
	}
}

func (w *watcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}

// effectiveSnapshot resolves every registered setting once, for change
// comparison around a reparse. Settings that fail to resolve are omitted.
func (s *Settings) effectiveSnapshot() map[string]any {
	snapshot := make(map[string]any)
	for _, name := range s.Names() {
		value, err := s.Value(name)
		if err != nil || value == nil {
			continue
		}
		snapshot[name] = value
	}
	return snapshot
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
}

func equalFiles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
