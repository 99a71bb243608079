// FILE: lixenwraith/settings/parser.go
package settings

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parsedFile is the section structure produced by parsing one or more
// configuration files: raw values plus any inline file metadata, both keyed
// by section then setting name.
type parsedFile struct {
	sections map[string]map[string]any
	metadata map[string]map[string]FileMetadata
}

func newParsedFile() *parsedFile {
	return &parsedFile{
		sections: make(map[string]map[string]any),
		metadata: make(map[string]map[string]FileMetadata),
	}
}

func (p *parsedFile) set(section, key string, value any) {
	if p.sections[section] == nil {
		p.sections[section] = make(map[string]any)
	}
	p.sections[section][key] = value
}

func (p *parsedFile) setMetadata(section, key string, md FileMetadata) {
	if p.metadata[section] == nil {
		p.metadata[section] = make(map[string]FileMetadata)
	}
	p.metadata[section][key] = md
}

// merge overlays other onto p key by key. Sections present only in p are
// preserved; same-named keys from other win.
func (p *parsedFile) merge(other *parsedFile) {
	for section, kvs := range other.sections {
		for key, value := range kvs {
			p.set(section, key, value)
		}
	}
	for section, mds := range other.metadata {
		for key, md := range mds {
			p.setMetadata(section, key, md)
		}
	}
}

func (p *parsedFile) empty() bool {
	return len(p.sections) == 0
}

// Section and key tokens accept the same grammar as isValidSettingName, so
// anything Define accepts parses back.
var (
	sectionLine = regexp.MustCompile(`^\[([A-Za-z_][\w-]*)\]$`)
	keyValLine  = regexp.MustCompile(`^([A-Za-z_][\w-]*)\s*=\s*(.*)$`)
	metaSuffix  = regexp.MustCompile(`^(.*?)\s*\{\s*([^}]*)\s*\}$`)
)

// parseConfigText evaluates the small line grammar: blank lines and
// #-comments are skipped, [section] opens a section (main is the implicit
// starting section), key = value records a value, anything else is a hard
// parse error attributed to file and line.
func parseConfigText(filename string, data []byte) (*parsedFile, error) {
	result := newParsedFile()
	section := string(LayerMain)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue

		case sectionLine.MatchString(line):
			name := sectionLine.FindStringSubmatch(line)[1]
			if name == string(LayerAppDefaults) {
				return nil, &ParseError{File: filename, Line: lineno,
					Msg: fmt.Sprintf("%v: %s", ErrReservedSection, name)}
			}
			section = name

		case keyValLine.MatchString(line):
			m := keyValLine.FindStringSubmatch(line)
			key, rawValue := m[1], strings.TrimSpace(m[2])

			if mm := metaSuffix.FindStringSubmatch(rawValue); mm != nil {
				md, err := parseInlineMetadata(mm[2])
				if err != nil {
					return nil, &ParseError{File: filename, Line: lineno, Msg: err.Error()}
				}
				result.setMetadata(section, key, md)
				rawValue = strings.TrimSpace(mm[1])
			}

			result.set(section, key, guessValue(key, stripQuotes(rawValue)))

		default:
			return nil, &ParseError{File: filename, Line: lineno,
				Msg: fmt.Sprintf("unrecognized line %q", line)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return result, nil
}

// parseInlineMetadata parses the body of a trailing {owner=..., group=...,
// mode=...} annotation. Only those three keys are legal; mode must be octal
// digits.
func parseInlineMetadata(body string) (FileMetadata, error) {
	var md FileMetadata
	for _, pair := range strings.Split(body, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return md, fmt.Errorf("invalid file option %q", pair)
		}
		k, v = strings.TrimSpace(k), stripQuotes(strings.TrimSpace(v))
		switch k {
		case "owner":
			md.Owner = v
		case "group":
			md.Group = v
		case "mode":
			if !allDigits(v) {
				return md, fmt.Errorf("invalid mode %q: must be octal digits", v)
			}
			md.Mode = v
		default:
			return md, fmt.Errorf("invalid file option %q", k)
		}
	}
	return md, nil
}

// guessValue applies the parser's small type-guessing rule: true/false
// (case-insensitive) become booleans and all-digit values become integers.
// The mode key is exempt; its digits are an octal permission, not a number.
func guessValue(key, value string) any {
	if key == "mode" {
		return value
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if value != "" && allDigits(value) {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}
