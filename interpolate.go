// FILE: lixenwraith/settings/interpolate.go
package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxInterpolationDepth bounds recursive expansion. The engine performs no
// cycle detection; a self-referential default fails once the bound is hit
// instead of recursing until the stack is exhausted.
const maxInterpolationDepth = 64

// ErrInterpolationDepth is wrapped into the InterpolationError produced when
// expansion exceeds maxInterpolationDepth.
var ErrInterpolationDepth = errors.New("interpolation depth exceeded (reference cycle?)")

var interpolationPattern = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// interpolate expands $name and ${name} tokens in a single left-to-right
// pass. The literal name environment is substituted from the environment
// context when one is given; every other reference recursively triggers the
// full resolution algorithm with the same environment context.
func (s *Settings) interpolate(value, environment string, depth int) (string, error) {
	if !strings.ContainsRune(value, '$') {
		return value, nil
	}
	if depth >= maxInterpolationDepth {
		return "", &InterpolationError{Value: value, Cause: ErrInterpolationDepth}
	}

	var firstErr error
	expanded := interpolationPattern.ReplaceAllStringFunc(value, func(token string) string {
		if firstErr != nil {
			return token
		}
		name := strings.TrimLeft(token, "$")
		name = strings.Trim(name, "{}")

		if name == "environment" && environment != "" {
			return environment
		}

		resolved, err := s.resolve(name, environment, depth+1)
		if err != nil {
			firstErr = err
			return token
		}
		if resolved == nil {
			firstErr = &InterpolationError{Reference: name, Value: value}
			return token
		}
		return fmt.Sprintf("%v", resolved)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}
