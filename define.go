// FILE: lixenwraith/settings/define.go
package settings

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Define registers a batch of settings under a section tag. Each attribute
// bag is decoded into a SettingSpec; unrecognized keys, duplicate names and
// duplicate short flags are authoring errors and reject the whole batch
// before anything is registered.
//
// The optional "hook" key holds a Hook (or func(any)) invoked once settings
// are fully defined and again whenever Parse establishes a new effective
// value. Hooks flagged call_on_define run after the entire batch has been
// registered, each with its setting's fully resolved value, so no hook ever
// observes a partially registered batch.
func (s *Settings) Define(section string, defs map[string]map[string]any) error {
	if !isValidSettingName(section) {
		return fmt.Errorf("invalid section name %q", section)
	}

	// Phase one: decode and validate everything before touching the registry.
	pending := make([]*Setting, 0, len(defs))
	for name, attrs := range defs {
		spec, hook, err := decodeSpec(name, attrs)
		if err != nil {
			return err
		}
		def, err := newSetting(name, section, spec, hook)
		if err != nil {
			return err
		}
		pending = append(pending, def)
	}

	s.mu.Lock()
	for _, def := range pending {
		if _, exists := s.defs[def.name]; exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateSetting, def.name)
		}
		if def.short != "" {
			if holder, taken := s.shorts[def.short]; taken {
				s.mu.Unlock()
				return fmt.Errorf("%w: -%s wanted by %s, held by %s", ErrDuplicateShort, def.short, def.name, holder)
			}
		}
	}
	for _, def := range pending {
		s.defs[def.name] = def
		if def.short != "" {
			s.shorts[def.short] = def.name
		}
	}
	s.invalidateCacheLocked()
	s.mu.Unlock()

	// Phase two: definition-time hooks observe interpolated values, not raw
	// default templates.
	for _, def := range pending {
		if def.hook == nil || !def.callOnDefine {
			continue
		}
		value, err := s.Value(def.name)
		if err != nil {
			return fmt.Errorf("definition hook for %s: %w", def.name, err)
		}
		def.hook(value)
	}
	return nil
}

// decodeSpec turns an attribute bag into a SettingSpec, extracting the
// non-decodable hook first. Unknown bag keys are rejected.
func decodeSpec(name string, attrs map[string]any) (SettingSpec, Hook, error) {
	var hook Hook
	bag := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if k == "hook" {
			switch fn := v.(type) {
			case Hook:
				hook = fn
			case func(any):
				hook = fn
			default:
				return SettingSpec{}, nil, fmt.Errorf("setting %s: hook must be a func(any), got %T", name, v)
			}
			continue
		}
		bag[k] = v
	}

	var spec SettingSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &spec,
		ErrorUnused: true,
	})
	if err != nil {
		return SettingSpec{}, nil, fmt.Errorf("setting %s: %w", name, err)
	}
	if err := decoder.Decode(bag); err != nil {
		return SettingSpec{}, nil, fmt.Errorf("setting %s: malformed attributes: %w", name, err)
	}
	return spec, hook, nil
}

// ShortOf returns the setting name registered under a short flag.
func (s *Settings) ShortOf(short string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.shorts[short]
	return name, ok
}
