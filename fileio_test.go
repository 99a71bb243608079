// FILE: lixenwraith/settings/fileio_test.go
package settings

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileSettings builds a fixture whose file and directory settings point
// into a temp dir.
func newFileSettings(t *testing.T) (*Settings, string) {
	t.Helper()
	dir := t.TempDir()
	s := New()
	require.NoError(t, s.Define("main", map[string]map[string]any{
		"name":     {"desc": "app name"},
		"run_mode": {"desc": "run mode"},
		"statedir": {"type": "directory", "default": dir, "desc": "state directory"},
		"statefile": {
			"type":    "file",
			"default": "$statedir/state.txt",
			"mode":    "600",
			"desc":    "state file",
		},
		"report": {"type": "file", "default": "$statedir/report.txt", "desc": "report file"},
		"label":  {"default": "plain", "desc": "not a file at all"},
	}))
	require.NoError(t, s.SetApplicationDefaults(map[string]string{"name": "app", "run_mode": "user"}))
	return s, dir
}

func TestWrite(t *testing.T) {
	t.Run("CreatesFileWithContent", func(t *testing.T) {
		s, dir := newFileSettings(t)
		require.NoError(t, s.Write("report", func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		}))
		data, err := os.ReadFile(filepath.Join(dir, "report.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("HonorsModeMetadata", func(t *testing.T) {
		s, dir := newFileSettings(t)
		require.NoError(t, s.Write("statefile", func(w io.Writer) error {
			_, err := io.WriteString(w, "x")
			return err
		}))
		info, err := os.Stat(filepath.Join(dir, "state.txt"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("TruncatesExistingContent", func(t *testing.T) {
		s, dir := newFileSettings(t)
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("previous longer content"), 0o644))

		require.NoError(t, s.Write("report", func(w io.Writer) error {
			_, err := io.WriteString(w, "new")
			return err
		}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("NonFileSettingRejected", func(t *testing.T) {
		s, _ := newFileSettings(t)
		err := s.Write("label", func(w io.Writer) error { return nil })
		require.ErrorIs(t, err, ErrNotFile)
	})

	t.Run("UnknownSettingRejected", func(t *testing.T) {
		s, _ := newFileSettings(t)
		err := s.Write("never_defined", func(w io.Writer) error { return nil })
		require.ErrorIs(t, err, ErrUnknownSetting)
	})

	t.Run("MissingParentDirectoryFails", func(t *testing.T) {
		s, _ := newFileSettings(t)
		require.NoError(t, s.Set("report", "/nonexistent/deeply/nested/report.txt"))
		err := s.Write("report", func(w io.Writer) error { return nil })
		require.Error(t, err, "parent directories are the realizer's job, not the write path's")
	})
}

func TestWriteSub(t *testing.T) {
	t.Run("WritesBeneathDirectorySetting", func(t *testing.T) {
		s, dir := newFileSettings(t)
		require.NoError(t, s.WriteSub("statedir", "notes.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, "note")
			return err
		}))
		data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "note", string(data))
	})

	t.Run("FileSettingRejected", func(t *testing.T) {
		s, _ := newFileSettings(t)
		err := s.WriteSub("report", "notes.txt", func(w io.Writer) error { return nil })
		require.ErrorIs(t, err, ErrNotFile)
	})
}

func TestReadWriteLock(t *testing.T) {
	t.Run("ReadModifyWrite", func(t *testing.T) {
		s, dir := newFileSettings(t)
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("1"), 0o644))

		require.NoError(t, s.ReadWriteLock("report", func(current []byte) ([]byte, error) {
			assert.Equal(t, "1", string(current))
			return []byte("2"), nil
		}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "2", string(data))

		_, err = os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err), "the temp file must not outlive the rewrite")
	})

	t.Run("CreatesMissingTarget", func(t *testing.T) {
		s, dir := newFileSettings(t)
		require.NoError(t, s.ReadWriteLock("report", func(current []byte) ([]byte, error) {
			assert.Empty(t, current)
			return []byte("fresh"), nil
		}))
		data, err := os.ReadFile(filepath.Join(dir, "report.txt"))
		require.NoError(t, err)
		assert.Equal(t, "fresh", string(data))
	})

	t.Run("StaleTempFileAborts", func(t *testing.T) {
		s, dir := newFileSettings(t)
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))
		require.NoError(t, os.WriteFile(path+".tmp", []byte("leftover"), 0o644))

		err := s.ReadWriteLock("report", func(current []byte) ([]byte, error) {
			return []byte("clobber"), nil
		})
		require.ErrorIs(t, err, ErrStaleTempFile)

		data, rerr := os.ReadFile(path)
		require.NoError(t, rerr)
		assert.Equal(t, "original", string(data), "the target must be left untouched")
	})

	t.Run("CallbackErrorLeavesOriginal", func(t *testing.T) {
		s, dir := newFileSettings(t)
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

		boom := assert.AnError
		err := s.ReadWriteLock("report", func(current []byte) ([]byte, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)

		data, rerr := os.ReadFile(path)
		require.NoError(t, rerr)
		assert.Equal(t, "original", string(data))
		_, serr := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(serr))
	})

	t.Run("ConcurrentRewritesSerialize", func(t *testing.T) {
		s, dir := newFileSettings(t)
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("0"), 0o644))

		const writers = 4
		var inCritical atomic.Bool
		var overlaps atomic.Int32
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			go func() {
				errs <- s.ReadWriteLock("report", func(current []byte) ([]byte, error) {
					if !inCritical.CompareAndSwap(false, true) {
						overlaps.Add(1)
					}
					n, err := strconv.Atoi(string(current))
					if err != nil {
						return nil, err
					}
					time.Sleep(5 * time.Millisecond)
					inCritical.Store(false)
					return []byte(strconv.Itoa(n + 1)), nil
				})
			}()
		}
		for i := 0; i < writers; i++ {
			require.NoError(t, <-errs)
		}

		assert.Zero(t, overlaps.Load(), "rewrites of the same path must not interleave")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(writers), string(data), "every increment must land")
	})

	t.Run("ReplacementHonorsModeMetadata", func(t *testing.T) {
		s, dir := newFileSettings(t)
		require.NoError(t, s.ReadWriteLock("statefile", func(current []byte) ([]byte, error) {
			return []byte("secret"), nil
		}))
		info, err := os.Stat(filepath.Join(dir, "state.txt"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}
