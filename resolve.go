// FILE: lixenwraith/settings/resolve.go
package settings

// SearchPath returns the ordered list of layers consulted when resolving a
// value for the given environment. Earlier layers strictly dominate later
// ones. The run_mode layer is the layer of the currently active run mode,
// not a fixed name.
func (s *Settings) SearchPath(environment string) []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchPathLocked(environment)
}

func (s *Settings) searchPathLocked(environment string) []Layer {
	path := make([]Layer, 0, 6)
	path = append(path, LayerCLI, LayerMemory)
	if environment != "" {
		path = append(path, Layer(environment))
	}
	path = append(path, Layer(s.runMode), LayerMain, LayerAppDefaults)
	return path
}

// Value resolves the fully interpolated effective value of a setting with no
// environment context. An unregistered name yields (nil, nil): no value, not
// an error.
func (s *Settings) Value(name string) (any, error) {
	return s.ValueInEnvironment(name, "")
}

// ValueInEnvironment resolves a setting for a specific environment. The
// environment layer is consulted between the memory and run-mode layers.
func (s *Settings) ValueInEnvironment(name, environment string) (any, error) {
	return s.resolve(name, environment, 0)
}

// UninterpolatedValue returns the raw value from the first layer of the
// search path that defines the setting, falling back to the definition's
// default template. No interpolation runs and nothing is cached.
func (s *Settings) UninterpolatedValue(name, environment string) (any, bool) {
	s.mu.Lock()
	def, known := s.defs[name]
	s.mu.Unlock()
	if !known {
		return nil, false
	}
	if raw, found := s.findValue(name, environment); found {
		return raw, true
	}
	if tmpl, ok := def.Default(); ok {
		return tmpl, true
	}
	return nil, false
}

// resolve implements the resolution algorithm: cache check, search-path
// walk, default fallback, interpolation, munge, cache store. The lock is
// taken briefly per access, never across interpolation, so a resolution can
// observe a store mutated mid-flight; see the Settings doc comment.
func (s *Settings) resolve(name, environment string, depth int) (any, error) {
	s.mu.Lock()
	def, known := s.defs[name]
	if !known {
		s.mu.Unlock()
		return nil, nil
	}
	if cached, ok := s.cache[environment][name]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	raw, found := s.findValue(name, environment)
	if !found {
		tmpl, ok := def.Default()
		if !ok {
			return nil, nil
		}
		raw = tmpl
	}

	out := raw
	if name != CodeSetting {
		// Raw code is cached as-is: its content must never be mistaken
		// for $variable syntax.
		if str, isString := raw.(string); isString {
			expanded, err := s.interpolate(str, environment, depth)
			if err != nil {
				return nil, err
			}
			munged, err := def.munge(expanded)
			if err != nil {
				return nil, err
			}
			out = munged
		}
	}

	s.mu.Lock()
	if s.cache[environment] == nil {
		s.cache[environment] = make(map[string]any)
	}
	s.cache[environment][name] = out
	s.mu.Unlock()
	return out, nil
}

// findValue walks the search path and returns the raw value from the first
// layer holding an explicit entry for name. A stored false is a value.
func (s *Settings) findValue(name, environment string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, layer := range s.searchPathLocked(environment) {
		if layerValues, ok := s.values[layer]; ok {
			if v, present := layerValues[name]; present {
				return v, true
			}
		}
	}
	return nil, false
}
