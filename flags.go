// FILE: lixenwraith/settings/flags.go
package settings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/pflag"
)

// AddFlags registers one GNU-style flag per defined setting on the given
// flag set: the setting name as the long form, its single-letter alias as
// the shorthand, boolean settings as valueless flags and everything else as
// valued flags. The core does not parse argv; callers parse the flag set and
// hand it back through BindFlags.
func (s *Settings) AddFlags(fs *pflag.FlagSet) {
	names := s.Names()
	sort.Strings(names)

	for _, name := range names {
		def, _ := s.Setting(name)
		if def.Type() == TypeBoolean {
			tmpl, _ := def.Default()
			fs.BoolP(name, def.Short(), tmpl == "true", def.Desc())
			continue
		}
		fs.StringP(name, def.Short(), "", def.Desc())
	}
}

// BindFlags records every flag the user actually set into the cli layer.
// Read-only settings and unknown names surface as errors, aggregated so the
// caller sees all offending flags at once.
func (s *Settings) BindFlags(fs *pflag.FlagSet) error {
	var failures []error
	fs.Visit(func(f *pflag.Flag) {
		if err := s.HandleArg(f.Name, f.Value.String()); err != nil {
			failures = append(failures, fmt.Errorf("flag --%s: %w", f.Name, err))
		}
	})
	return errors.Join(failures...)
}
