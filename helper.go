// FILE: lixenwraith/settings/helper.go
package settings

// isValidSettingName checks that a name is a bare token: letters, digits,
// underscores and dashes, not starting with a digit or dash.
func isValidSettingName(s string) bool {
	if len(s) == 0 {
		return false
	}
	first := rune(s[0])
	if !isAlpha(first) && first != '_' {
		return false
	}
	for _, r := range s[1:] {
		if !isAlpha(r) && !isDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// stripQuotes removes one matching pair of surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
