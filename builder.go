// FILE: lixenwraith/settings/builder.go
package settings

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// ValidatorFunc validates a fully built Settings instance.
type ValidatorFunc func(s *Settings) error

// Builder provides a fluent interface for assembling a Settings instance:
// definitions, application defaults, configuration files and command-line
// arguments, applied in that order.
type Builder struct {
	s          *Settings
	sections   []pendingSection
	defaults   map[string]string
	files      []string
	args       []string
	haveArgs   bool
	validators []ValidatorFunc
}

type pendingSection struct {
	name string
	defs map[string]map[string]any
}

// NewBuilder creates a settings builder.
func NewBuilder() *Builder {
	return &Builder{s: New()}
}

// WithLogger installs a structured logger before anything else runs.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.s.SetLogger(l)
	return b
}

// WithSection queues a batch of definitions under a section tag. Sections
// are defined in the order they were added.
func (b *Builder) WithSection(section string, defs map[string]map[string]any) *Builder {
	b.sections = append(b.sections, pendingSection{name: section, defs: defs})
	return b
}

// WithApplicationDefaults sets the one-shot application-defaults layer.
func (b *Builder) WithApplicationDefaults(defaults map[string]string) *Builder {
	b.defaults = defaults
	return b
}

// WithFiles sets the ordered candidate configuration files for Parse.
func (b *Builder) WithFiles(paths ...string) *Builder {
	b.files = append(b.files, paths...)
	return b
}

// WithFileDiscovery appends the discovered system and user candidate files
// for the application name.
func (b *Builder) WithFileDiscovery(appName string) *Builder {
	b.files = append(b.files, ConfigFileCandidates(appName)...)
	return b
}

// WithArgs binds command-line arguments into the cli layer during Build.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	b.haveArgs = true
	return b
}

// WithValidator adds a validation function run at the end of Build, in the
// order added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build assembles the Settings instance: definitions, application defaults,
// file parsing, command-line binding, then validators.
func (b *Builder) Build() (*Settings, error) {
	for _, section := range b.sections {
		if err := b.s.Define(section.name, section.defs); err != nil {
			return nil, fmt.Errorf("failed to define section %s: %w", section.name, err)
		}
	}

	if b.defaults != nil {
		if err := b.s.SetApplicationDefaults(b.defaults); err != nil {
			return nil, err
		}
	}

	if len(b.files) > 0 {
		if err := b.s.Parse(b.files...); err != nil {
			return nil, err
		}
	}

	if b.haveArgs {
		fs := pflag.NewFlagSet("settings", pflag.ContinueOnError)
		b.s.AddFlags(fs)
		if err := fs.Parse(b.args); err != nil {
			return nil, fmt.Errorf("failed to parse arguments: %w", err)
		}
		if err := b.s.BindFlags(fs); err != nil {
			return nil, err
		}
	}

	for _, validate := range b.validators {
		if err := validate(b.s); err != nil {
			return nil, fmt.Errorf("settings validation failed: %w", err)
		}
	}
	return b.s, nil
}

// MustBuild is like Build but panics on error. Intended for initialization
// paths where a broken definition set is a programming mistake.
func (b *Builder) MustBuild() *Settings {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("settings build failed: %v", err))
	}
	return s
}
