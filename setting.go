// FILE: lixenwraith/settings/setting.go
package settings

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SettingType identifies the behavior of a defined setting.
type SettingType string

const (
	// TypeString holds an arbitrary string value. The default when no type is given.
	TypeString SettingType = "string"
	// TypeBoolean holds true/false; string forms are munged on assignment.
	TypeBoolean SettingType = "boolean"
	// TypeFile holds the path of a file that can be realized on disk.
	TypeFile SettingType = "file"
	// TypeDirectory holds the path of a directory that can be realized on disk.
	TypeDirectory SettingType = "directory"
	// TypePath behaves as a string holding multiple OS paths joined by the
	// system list separator.
	TypePath SettingType = "path"
)

// Hook is a callback associated with a setting. It runs once at definition
// time when the setting is flagged call_on_define, and again whenever Parse
// establishes a new effective value for the setting.
type Hook func(value any)

// FileMetadata carries the on-disk identity of a file or directory setting.
// Mode is kept as an octal string exactly as written in the source.
type FileMetadata struct {
	Owner string `yaml:"owner,omitempty"`
	Group string `yaml:"group,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
}

func (m FileMetadata) empty() bool {
	return m.Owner == "" && m.Group == "" && m.Mode == ""
}

// SettingSpec is the attribute bag accepted by Define. Unrecognized keys in
// the bag are rejected during decoding.
type SettingSpec struct {
	Default      *string `mapstructure:"default"`
	Desc         string  `mapstructure:"desc"`
	Type         string  `mapstructure:"type"`
	Short        string  `mapstructure:"short"`
	Owner        string  `mapstructure:"owner"`
	Group        string  `mapstructure:"group"`
	Mode         string  `mapstructure:"mode"`
	CallOnDefine bool    `mapstructure:"call_on_define"`
}

// Setting is the immutable descriptor of one named setting. File metadata is
// the only part mutated after construction, through setFileMetadata, and only
// for file and directory settings.
type Setting struct {
	name         string
	section      string
	typ          SettingType
	def          *string // default template, may contain $references
	desc         string
	short        string
	meta         FileMetadata
	callOnDefine bool
	hook         Hook
}

// Name returns the setting's unique identifier.
func (s *Setting) Name() string { return s.name }

// Section returns the grouping tag the setting was defined under.
func (s *Setting) Section() string { return s.section }

// Type returns the setting's type tag.
func (s *Setting) Type() SettingType { return s.typ }

// Desc returns the documentation string.
func (s *Setting) Desc() string { return s.desc }

// Short returns the single-letter alias, or "" when none was given.
func (s *Setting) Short() string { return s.short }

// Default returns the raw default template and whether one exists.
func (s *Setting) Default() (string, bool) {
	if s.def == nil {
		return "", false
	}
	return *s.def, true
}

// Metadata returns the owner/group/mode recorded for a file or directory setting.
func (s *Setting) Metadata() FileMetadata { return s.meta }

// isFile reports whether the setting describes an on-disk path that can be realized.
func (s *Setting) isFile() bool {
	return s.typ == TypeFile || s.typ == TypeDirectory
}

// setFileMetadata overlays non-empty fields onto the setting's metadata.
// Only file and directory settings carry metadata.
func (s *Setting) setFileMetadata(md FileMetadata) error {
	if !s.isFile() {
		return fmt.Errorf("%w: %s", ErrNotFile, s.name)
	}
	if md.Owner != "" {
		s.meta.Owner = md.Owner
	}
	if md.Group != "" {
		s.meta.Group = md.Group
	}
	if md.Mode != "" {
		if !allDigits(md.Mode) {
			return fmt.Errorf("invalid mode %q for setting %s: must be octal digits", md.Mode, s.name)
		}
		s.meta.Mode = md.Mode
	}
	return nil
}

// munge converts a raw assigned value into the setting's typed form.
// Dispatch happens on the type tag fixed at registration, never on the
// runtime type of the stored value.
func (s *Setting) munge(raw any) (any, error) {
	switch s.typ {
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true", "":
				return true, nil
			case "false":
				return false, nil
			}
			return nil, fmt.Errorf("invalid boolean value %q for setting %s", v, s.name)
		default:
			return nil, fmt.Errorf("invalid boolean value %v for setting %s", raw, s.name)
		}
	case TypePath:
		if v, ok := raw.(string); ok {
			// Normalize separators without reordering entries.
			parts := strings.Split(v, string(filepath.ListSeparator))
			return strings.Join(parts, string(filepath.ListSeparator)), nil
		}
		return fmt.Sprintf("%v", raw), nil
	default:
		return raw, nil
	}
}

func newSetting(name, section string, spec SettingSpec, hook Hook) (*Setting, error) {
	if !isValidSettingName(name) {
		return nil, fmt.Errorf("invalid setting name %q", name)
	}
	if spec.Desc == "" {
		return nil, fmt.Errorf("setting %s: desc is required", name)
	}
	if spec.Short != "" && len(spec.Short) != 1 {
		return nil, fmt.Errorf("setting %s: short flag %q must be a single character", name, spec.Short)
	}

	typ := TypeString
	if spec.Type != "" {
		switch SettingType(spec.Type) {
		case TypeString, TypeBoolean, TypeFile, TypeDirectory, TypePath:
			typ = SettingType(spec.Type)
		default:
			return nil, fmt.Errorf("setting %s: unknown type %q", name, spec.Type)
		}
	}

	st := &Setting{
		name:         name,
		section:      section,
		typ:          typ,
		def:          spec.Default,
		desc:         spec.Desc,
		short:        spec.Short,
		callOnDefine: spec.CallOnDefine,
		hook:         hook,
	}

	if spec.Owner != "" || spec.Group != "" || spec.Mode != "" {
		if err := st.setFileMetadata(FileMetadata{Owner: spec.Owner, Group: spec.Group, Mode: spec.Mode}); err != nil {
			return nil, err
		}
	}
	return st, nil
}
