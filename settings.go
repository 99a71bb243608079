// FILE: lixenwraith/settings/settings.go
// Package settings provides thread-safe hierarchical configuration resolution
// for Go applications: values supplied by the command line, in-memory
// overrides, per-environment sections, run-mode sections, a main
// configuration file, and application defaults are merged into a single
// deterministic value per setting name, with string interpolation,
// per-environment caching, and change-triggered hooks.
package settings

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// RunMode is the operating role of the process. It is itself a read-only
// setting with special substitution behavior in the search path.
type RunMode string

const (
	RunModeMaster RunMode = "master"
	RunModeAgent  RunMode = "agent"
	RunModeUser   RunMode = "user"
)

func validRunMode(m RunMode) bool {
	return m == RunModeMaster || m == RunModeAgent || m == RunModeUser
}

// Layer names one source of raw setting values.
type Layer string

const (
	LayerCLI    Layer = "cli"
	LayerMemory Layer = "memory"
	// LayerRunMode is substituted with the current run mode at lookup time.
	LayerRunMode     Layer = "run_mode"
	LayerMain        Layer = "main"
	LayerAppDefaults Layer = "application_defaults"
)

// CodeSetting is the distinguished raw-code setting. Its content is never
// interpolated so that program text is not mistaken for $variable syntax.
const CodeSetting = "code"

// readOnlyNames may only be written through the application-defaults layer.
var readOnlyNames = map[string]bool{
	"name":     true,
	"run_mode": true,
}

// requiredAppDefaults must all be present in SetApplicationDefaults.
var requiredAppDefaults = []string{"name", "run_mode"}

// Settings is the registry and layered value store. One mutex serializes all
// mutations of the store, the resolution cache and the used-section set.
// Reads take the same critical section briefly per access, not for a whole
// resolution; a resolution may therefore observe a store mutated mid-flight
// by another goroutine. That narrow race is accepted in exchange for never
// holding the lock across interpolation.
type Settings struct {
	mu sync.Mutex

	defs   map[string]*Setting
	shorts map[string]string // short flag -> setting name

	values map[Layer]map[string]any
	cache  map[string]map[string]any // environment ("" = none) -> name -> interpolated

	runMode        RunMode
	appDefaultsSet bool

	used map[string]bool // sections already realized by Use

	// onMutate, when set, fires after every mutating write so callers can
	// invalidate externally cached state (e.g. a derived environment).
	onMutate func()

	logger *zap.Logger

	parsedFiles []string // candidate files of the last Parse, for watching
	watcher     *watcher
}

// New creates an empty Settings instance. The run mode starts as user and
// can only be changed through SetApplicationDefaults.
func New() *Settings {
	return &Settings{
		defs:    make(map[string]*Setting),
		shorts:  make(map[string]string),
		values:  make(map[Layer]map[string]any),
		cache:   make(map[string]map[string]any),
		runMode: RunModeUser,
		used:    make(map[string]bool),
		logger:  zap.NewNop(),
	}
}

// SetLogger installs a structured logger. A nil logger restores the no-op default.
func (s *Settings) SetLogger(l *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// OnMutate registers a callback fired after every mutating write.
func (s *Settings) OnMutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = fn
}

// RunMode returns the active run mode.
func (s *Settings) RunMode() RunMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runMode
}

// Setting returns the definition registered under name, if any.
func (s *Settings) Setting(name string) (*Setting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.defs[name]
	return def, ok
}

// metadataOf snapshots a setting's file metadata under the store lock, since
// Parse may rewrite it concurrently.
func (s *Settings) metadataOf(def *Setting) FileMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return def.meta
}

// Names returns all registered setting names, in map order.
func (s *Settings) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	return names
}

// SetApplicationDefaults writes the application-defaults layer. It may be
// called exactly once per process; a second call is an authoring error.
// The defaults must include the read-only settings name and run_mode, and
// run_mode must be one of master, agent or user.
func (s *Settings) SetApplicationDefaults(defaults map[string]string) error {
	s.mu.Lock()

	if s.appDefaultsSet {
		s.mu.Unlock()
		return ErrAppDefaultsSet
	}
	for _, required := range requiredAppDefaults {
		if _, ok := defaults[required]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("application defaults missing required key %q", required)
		}
	}
	mode := RunMode(defaults["run_mode"])
	if !validRunMode(mode) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidRunMode, defaults["run_mode"])
	}
	for name := range defaults {
		if _, known := s.defs[name]; !known {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
		}
	}

	for name, value := range defaults {
		s.setRawLocked(LayerAppDefaults, name, value)
	}
	s.runMode = mode
	s.appDefaultsSet = true
	s.invalidateCacheLocked()
	fire := s.onMutate
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
	return nil
}

// Set assigns an in-memory override for a setting. Unlike file parsing,
// assigning to an unknown name is an error.
func (s *Settings) Set(name string, value any) error {
	return s.SetInLayer(name, LayerMemory, value)
}

// SetInLayer assigns a raw value in a specific layer. LayerRunMode resolves
// to the layer of the currently active run mode. Read-only settings may only
// be written through the application-defaults layer.
func (s *Settings) SetInLayer(name string, layer Layer, value any) error {
	s.mu.Lock()

	def, known := s.defs[name]
	if !known {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	if readOnlyNames[name] && layer != LayerAppDefaults {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	munged, err := def.munge(value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if layer == LayerRunMode {
		layer = Layer(s.runMode)
	}
	s.setRawLocked(layer, name, munged)
	s.invalidateCacheLocked()
	fire := s.onMutate
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
	return nil
}

// HandleArg records a command-line assignment in the cli layer. An empty
// value on a boolean setting means true, matching option-parser behavior
// for valueless boolean flags.
func (s *Settings) HandleArg(name, value string) error {
	return s.SetInLayer(name, LayerCLI, value)
}

// ClearCLI removes all cli-layer values. Realized sections are forgotten as
// well, since CLI overrides can change which paths must be realized.
func (s *Settings) ClearCLI() {
	s.mu.Lock()
	delete(s.values, LayerCLI)
	s.used = make(map[string]bool)
	s.invalidateCacheLocked()
	fire := s.onMutate
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Clear removes every value layer except the application defaults, and
// forgets realized sections. Definitions are untouched.
func (s *Settings) Clear() {
	s.mu.Lock()
	s.clearLocked(true)
	fire := s.onMutate
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// clearLocked drops value layers. The application-defaults layer always
// survives; the cli layer survives unless clearCLI is set.
func (s *Settings) clearLocked(clearCLI bool) {
	for layer := range s.values {
		if layer == LayerAppDefaults {
			continue
		}
		if layer == LayerCLI && !clearCLI {
			continue
		}
		delete(s.values, layer)
	}
	if clearCLI {
		s.used = make(map[string]bool)
	}
	s.invalidateCacheLocked()
}

func (s *Settings) setRawLocked(layer Layer, name string, value any) {
	if s.values[layer] == nil {
		s.values[layer] = make(map[string]any)
	}
	s.values[layer][name] = value
}

func (s *Settings) invalidateCacheLocked() {
	// Full invalidation on every mutation. Fine-grained pruning is not
	// worth the bookkeeping under concurrent writers.
	s.cache = make(map[string]map[string]any)
}
