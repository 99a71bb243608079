// FILE: lixenwraith/settings/watch_test.go
package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval: MinPollInterval,
		Debounce:     10 * time.Millisecond,
		MaxWatchers:  4,
	}
}

func TestAutoReparse(t *testing.T) {
	t.Run("NoOpWithoutParsedFiles", func(t *testing.T) {
		s := newTestSettings(t)
		s.AutoReparse()
		assert.False(t, s.IsWatching())
	})

	t.Run("StartAndStop", func(t *testing.T) {
		s := newTestSettings(t)
		dir := t.TempDir()
		conf := filepath.Join(dir, "app.conf")
		require.NoError(t, os.WriteFile(conf, []byte("port = 9000\n"), 0o644))
		require.NoError(t, s.Parse(conf))

		s.AutoReparseWithOptions(fastWatchOptions())
		require.Eventually(t, s.IsWatching, 2*time.Second, 10*time.Millisecond)

		s.StopAutoReparse()
		assert.False(t, s.IsWatching())
	})

	t.Run("FileChangeTriggersReparse", func(t *testing.T) {
		s := newTestSettings(t)
		dir := t.TempDir()
		conf := filepath.Join(dir, "app.conf")
		require.NoError(t, os.WriteFile(conf, []byte("port = 9000\n"), 0o644))
		require.NoError(t, s.Parse(conf))

		s.AutoReparseWithOptions(fastWatchOptions())
		defer s.StopAutoReparse()
		ch := s.WatchChanges()

		// Give the poller a moment to record the baseline, then rewrite.
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, os.WriteFile(conf, []byte("port = 12345\nconfdir = /opt/app\n"), 0o644))

		changed := map[string]bool{}
		deadline := time.After(10 * time.Second)
		for !changed["port"] || !changed["confdir"] {
			select {
			case name := <-ch:
				changed[name] = true
			case <-deadline:
				t.Fatalf("timed out waiting for change notifications, got %v", changed)
			}
		}

		port, err := s.IntValue("port")
		require.NoError(t, err)
		assert.Equal(t, 12345, port)
	})

	t.Run("SubscriberCapReturnsClosedChannel", func(t *testing.T) {
		s := newTestSettings(t)
		dir := t.TempDir()
		conf := filepath.Join(dir, "app.conf")
		require.NoError(t, os.WriteFile(conf, []byte("port = 9000\n"), 0o644))
		require.NoError(t, s.Parse(conf))

		opts := fastWatchOptions()
		opts.MaxWatchers = 1
		s.AutoReparseWithOptions(opts)
		defer s.StopAutoReparse()

		_ = s.WatchChanges()
		overflow := s.WatchChanges()
		_, open := <-overflow
		assert.False(t, open, "a subscriber past the cap gets a closed channel")
	})
}
