// FILE: lixenwraith/settings/fileio.go
package settings

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// defaultWriteMode is the conservative mode used when a setting carries no
// explicit mode.
const defaultWriteMode os.FileMode = 0o644

// writeUmask keeps newly created files from being group/world-executable
// while the write path runs.
const writeUmask = 0o022

// Write opens (creating if absent) the file named by a file-typed setting
// and hands the open file to fn. The setting's owner/group/mode metadata is
// honored: when running with elevated privilege the file is chowned to that
// identity after the write. Parent directories are not created.
func (s *Settings) Write(name string, fn func(io.Writer) error) error {
	def, path, err := s.fileTarget(name)
	if err != nil {
		return err
	}
	return writeFileAs(path, s.metadataOf(def), fn)
}

// WriteSub writes a file beneath a directory-typed setting, inheriting the
// directory setting's ownership metadata.
func (s *Settings) WriteSub(name, file string, fn func(io.Writer) error) error {
	def, dir, err := s.fileTarget(name)
	if err != nil {
		return err
	}
	if def.Type() != TypeDirectory {
		return fmt.Errorf("%w: %s is not a directory setting", ErrNotFile, name)
	}
	return writeFileAs(filepath.Join(dir, file), s.metadataOf(def), fn)
}

// ReadWriteLock performs a locked, atomic read-modify-write of the file
// named by a file-typed setting. The target is opened (created if absent)
// and an exclusive advisory lock is taken on it for the whole
// read-modify-write span, serializing concurrent writers across processes.
// fn receives the current content and returns the replacement.
//
// New content is written to <path>.tmp through the ownership-aware write
// path and renamed over the target. A pre-existing <path>.tmp aborts the
// call with ErrStaleTempFile: a concurrent or crashed writer may be in
// progress and the target must not be disturbed. A failed write or rename
// removes the temp file and leaves the original intact.
func (s *Settings) ReadWriteLock(name string, fn func(current []byte) ([]byte, error)) error {
	def, path, err := s.fileTarget(name)
	if err != nil {
		return err
	}

	f, err := lockTarget(path)
	if err != nil {
		return err
	}
	defer f.Close()
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); err == nil {
		return fmt.Errorf("%w: %s", ErrStaleTempFile, tmpPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check temp file %s: %w", tmpPath, err)
	}

	current, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	replacement, err := fn(current)
	if err != nil {
		return err
	}

	writeErr := writeFileAs(tmpPath, s.metadataOf(def), func(w io.Writer) error {
		_, err := w.Write(replacement)
		return err
	})
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// lockTarget opens path (creating it if absent) and takes an exclusive
// advisory lock on it. A concurrent rewrite renames a fresh inode over the
// path between our open and lock, in which case the lock just acquired
// guards a dead inode; the open is retried until the locked file is the one
// actually at the path.
func lockTarget(path string) (*os.File, error) {
	for {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, defaultWriteMode)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", path, err)
		}
		locked, err := f.Stat()
		if err != nil {
			unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		current, err := os.Stat(path)
		if err == nil && os.SameFile(locked, current) {
			return f, nil
		}
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
}

// fileTarget resolves a file- or directory-typed setting to its definition
// and effective path.
func (s *Settings) fileTarget(name string) (*Setting, string, error) {
	def, known := s.Setting(name)
	if !known {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	if !def.isFile() {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFile, name)
	}
	path, err := s.StringValue(name)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return nil, "", fmt.Errorf("setting %s has no path value", name)
	}
	return def, path, nil
}

// writeFileAs creates or truncates path with the metadata's mode, runs fn
// against the open file, syncs, and chowns to the metadata's owner/group
// when the process runs as root. The creation mask is tightened for the
// span of the write.
func writeFileAs(path string, md FileMetadata, fn func(io.Writer) error) error {
	mode := defaultWriteMode
	if md.Mode != "" {
		parsed, err := strconv.ParseUint(md.Mode, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid mode %q for %s: %w", md.Mode, path, err)
		}
		mode = os.FileMode(parsed)
	}

	oldMask := unix.Umask(writeUmask)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	unix.Umask(oldMask)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}

	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if os.Geteuid() == 0 && (md.Owner != "" || md.Group != "") {
		uid, gid, err := resolveIdentity(md.Owner, md.Group)
		if err != nil {
			return err
		}
		if err := os.Chown(path, uid, gid); err != nil {
			return fmt.Errorf("failed to chown %s: %w", path, err)
		}
	}
	return nil
}

// resolveIdentity maps owner/group names to numeric IDs. Empty names map to
// -1, which os.Chown treats as "leave unchanged".
func resolveIdentity(owner, group string) (int, int, error) {
	uid, gid := -1, -1
	if owner != "" {
		u, err := user.Lookup(owner)
		if err != nil {
			return -1, -1, fmt.Errorf("unknown owner %q: %w", owner, err)
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return -1, -1, fmt.Errorf("non-numeric uid for %q: %w", owner, err)
		}
	}
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return -1, -1, fmt.Errorf("unknown group %q: %w", group, err)
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return -1, -1, fmt.Errorf("non-numeric gid for %q: %w", group, err)
		}
	}
	return uid, gid, nil
}
