// FILE: lixenwraith/settings/print.go
package settings

import (
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

// configHeader opens every generated configuration file.
const configHeader = `# Generated configuration file.
#
# Each setting is listed with its description and the value in effect when
# the file was generated. Values assigned here land in the section's layer
# and are overridden by command-line and in-memory assignments.
`

// generatedOnlyNames never round-trip through a generated file.
var generatedOnlyNames = map[string]bool{
	"genconfig": true,
}

// Print writes "name = value" lines, sorted by name. With no names given,
// every registered setting is printed; otherwise only the requested subset.
func (s *Settings) Print(w io.Writer, names ...string) error {
	if len(names) == 0 {
		names = s.Names()
	} else {
		for _, name := range names {
			if _, known := s.Setting(name); !known {
				return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
			}
		}
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := s.Value(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s = %v\n", name, formatValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// GenerateConfig writes a complete configuration file: a leading comment
// block, one section header matching the active run mode, then one line per
// non-read-only setting with its description as a preceding comment and its
// current effective value. Parsing the generated file back yields the same
// effective values for every setting it contains.
func (s *Settings) GenerateConfig(w io.Writer) error {
	if _, err := io.WriteString(w, configHeader); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n[%s]\n", s.RunMode()); err != nil {
		return err
	}

	names := s.Names()
	sort.Strings(names)
	for _, name := range names {
		if readOnlyNames[name] || generatedOnlyNames[name] {
			continue
		}
		def, _ := s.Setting(name)
		value, err := s.Value(name)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n# %s\n%s = %v\n", def.Desc(), name, formatValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// ExportTOML writes a snapshot of all effective values, grouped by section,
// as TOML. The snapshot is for inspection and external tooling; the native
// on-disk format remains the line grammar consumed by Parse.
func (s *Settings) ExportTOML(w io.Writer) error {
	bySection := make(map[string]map[string]any)
	for _, name := range s.Names() {
		def, _ := s.Setting(name)
		value, err := s.Value(name)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		if bySection[def.Section()] == nil {
			bySection[def.Section()] = make(map[string]any)
		}
		bySection[def.Section()][name] = value
	}
	return toml.NewEncoder(w).Encode(bySection)
}

func formatValue(value any) any {
	if value == nil {
		return ""
	}
	return value
}
