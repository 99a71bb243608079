// FILE: lixenwraith/settings/scan.go
package settings

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Scan decodes the effective (fully interpolated) values of one section into
// the target struct or map. An empty section decodes every setting. The
// target must be a non-nil pointer; fields are matched through the
// "settings" struct tag.
func (s *Settings) Scan(section string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	data := make(map[string]any)
	for _, name := range s.Names() {
		def, _ := s.Setting(name)
		if section != "" && def.Section() != section {
			continue
		}
		value, err := s.Value(name)
		if err != nil {
			return err
		}
		if value != nil {
			data[name] = value
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "settings",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", section, target, err)
	}
	return nil
}
