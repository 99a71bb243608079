// FILE: lixenwraith/settings/parse.go
package settings

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Parse reads an ordered list of candidate configuration files (typically a
// system-wide file followed by a user-specific file) and replaces every
// file-sourced layer with their merged contents. Non-existent files are
// skipped silently; unreadable files are errors. Later files override
// same-named keys from earlier ones within a section, while sections only an
// earlier file mentions are preserved.
//
// The replacement is all-or-nothing: a parse or validation failure in any
// file aborts the whole call and leaves the store untouched, and a call in
// which no file contributed data is a no-op. The cli and
// application-defaults layers always survive.
//
// After population every hooked setting fires with its effective value (the
// first layer in the search path that defines it), and captured file
// metadata is re-applied in reverse search-path order so higher-precedence
// sources win.
func (s *Settings) Parse(files ...string) error {
	aggregate := newParsedFile()
	contributed := false
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		parsed, err := parseConfigText(path, data)
		if err != nil {
			return err
		}
		aggregate.merge(parsed)
		contributed = true
	}
	if !contributed {
		return nil
	}

	s.mu.Lock()

	// Stage and validate everything before clearing anything, so a bad
	// value leaves the existing store intact.
	staged := make(map[Layer]map[string]any)
	for section, kvs := range aggregate.sections {
		for name, value := range kvs {
			def, known := s.defs[name]
			if !known {
				// Unknown names in a file are tolerated; unknown names
				// assigned through Set are not.
				s.logger.Debug("ignoring unknown setting in config file",
					zap.String("setting", name),
					zap.String("section", section))
				continue
			}
			munged, err := def.munge(value)
			if err != nil {
				s.mu.Unlock()
				return fmt.Errorf("section [%s]: %w", section, err)
			}
			if staged[Layer(section)] == nil {
				staged[Layer(section)] = make(map[string]any)
			}
			staged[Layer(section)][name] = munged
		}
	}

	s.clearLocked(false)
	for layer, kvs := range staged {
		for name, value := range kvs {
			s.setRawLocked(layer, name, value)
		}
	}
	s.parsedFiles = append([]string(nil), files...)
	s.invalidateCacheLocked()

	var hooked []*Setting
	for _, def := range s.defs {
		if def.hook != nil {
			hooked = append(hooked, def)
		}
	}
	fire := s.onMutate
	s.mu.Unlock()

	if fire != nil {
		fire()
	}

	// Hooks observe the effective value, not the file-layer raw value. A
	// hooked setting no layer defines is left alone: falling back to the
	// definition default establishes nothing new.
	for _, def := range hooked {
		if _, found := s.findValue(def.name, ""); !found {
			continue
		}
		value, err := s.Value(def.name)
		if err != nil {
			return fmt.Errorf("parse hook for %s: %w", def.name, err)
		}
		if value != nil {
			def.hook(value)
		}
	}

	// Reverse search-path order: metadata from higher-precedence sources is
	// applied last and wins. The write happens under the store lock; readers
	// go through metadataOf.
	searchPath := s.SearchPath("")
	for i := len(searchPath) - 1; i >= 0; i-- {
		for name, md := range aggregate.metadata[string(searchPath[i])] {
			if md.empty() {
				continue
			}
			s.mu.Lock()
			def, known := s.defs[name]
			var mdErr error
			if known {
				mdErr = def.setFileMetadata(md)
			}
			s.mu.Unlock()
			if mdErr != nil {
				return mdErr
			}
		}
	}
	return nil
}

// ParsedFiles returns the candidate files of the most recent Parse call.
func (s *Settings) ParsedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.parsedFiles...)
}
