// FILE: lixenwraith/settings/accessor.go
package settings

import (
	"fmt"
	"strconv"
)

// StringValue resolves a setting and returns its effective value as a string.
// A setting without a value yields "".
func (s *Settings) StringValue(name string) (string, error) {
	val, err := s.Value(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

// BoolValue resolves a setting and returns its effective value as a bool.
func (s *Settings) BoolValue(name string) (bool, error) {
	val, err := s.Value(name)
	if err != nil {
		return false, err
	}
	switch v := val.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert %q to bool for setting %s: %w", v, name, err)
		}
		return b, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool for setting %s", val, name)
	}
}

// IntValue resolves a setting and returns its effective value as an int.
func (s *Settings) IntValue(name string) (int, error) {
	val, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int for setting %s: %w", v, name, err)
		}
		return n, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int for setting %s", val, name)
	}
}
