// FILE: lixenwraith/settings/realize.go
package settings

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ResourceKind classifies a provisioning intent.
type ResourceKind string

const (
	ResourceFile      ResourceKind = "file"
	ResourceDirectory ResourceKind = "directory"
)

// Resource is one provisioning intent derived from a file- or
// directory-typed setting: a path that must exist on disk with the given
// ownership and permissions.
type Resource struct {
	Kind  ResourceKind `yaml:"kind"`
	Path  string       `yaml:"path"`
	Owner string       `yaml:"owner,omitempty"`
	Group string       `yaml:"group,omitempty"`
	Mode  string       `yaml:"mode,omitempty"`
}

// Catalog is the full set of intents handed to the resource-application
// collaborator, plus the service users and groups that must exist when the
// mkusers setting is enabled.
type Catalog struct {
	Resources []Resource `yaml:"resources"`
	Users     []string   `yaml:"users,omitempty"`
	Groups    []string   `yaml:"groups,omitempty"`
}

// ResourceApplier is the external collaborator that ensures an intent on the
// live system. It reports per-intent success or failure; the settings core
// never touches directory creation or ownership enforcement itself.
type ResourceApplier interface {
	Apply(Resource) error
}

// ToCatalog derives provisioning intents for every file and directory
// setting whose section is in the requested set (all sections when none are
// given). Settings that resolve to an empty or relative path decline to
// produce an intent. Intents are deduplicated by resolved path, first
// definition wins, and returned in path order.
func (s *Settings) ToCatalog(sections ...string) (*Catalog, error) {
	wanted := sectionSet(sections)

	s.mu.Lock()
	names := make([]string, 0, len(s.defs))
	for name, def := range s.defs {
		if def.isFile() && (wanted == nil || wanted[def.section]) {
			names = append(names, name)
		}
	}
	s.mu.Unlock()
	sort.Strings(names)

	catalog := &Catalog{}
	seen := make(map[string]bool)
	owners := make(map[string]bool)
	groups := make(map[string]bool)

	for _, name := range names {
		def, _ := s.Setting(name)
		path, err := s.StringValue(name)
		if err != nil {
			return nil, err
		}
		if path == "" || !filepath.IsAbs(path) {
			continue
		}
		path = filepath.Clean(path)
		if seen[path] {
			continue
		}
		seen[path] = true

		md := s.metadataOf(def)
		kind := ResourceFile
		if def.Type() == TypeDirectory {
			kind = ResourceDirectory
		}
		catalog.Resources = append(catalog.Resources, Resource{
			Kind:  kind,
			Path:  path,
			Owner: md.Owner,
			Group: md.Group,
			Mode:  md.Mode,
		})
		if md.Owner != "" && md.Owner != "root" {
			owners[md.Owner] = true
		}
		if md.Group != "" && md.Group != "root" {
			groups[md.Group] = true
		}
	}
	sort.Slice(catalog.Resources, func(i, j int) bool {
		return catalog.Resources[i].Path < catalog.Resources[j].Path
	})

	// Service users and groups are only demanded when the embedding
	// application defined and enabled mkusers.
	if mkusers, err := s.BoolValue("mkusers"); err == nil && mkusers {
		catalog.Users = sortedKeys(owners)
		catalog.Groups = sortedKeys(groups)
	}
	return catalog, nil
}

// Use realizes the file and directory settings of the requested sections
// (all sections when none are given) through the applier. Sections already
// realized in this process are skipped, making repeated calls idempotent
// until the cli layer is cleared. Every intent is attempted; failures are
// aggregated into a single error rather than failing fast.
func (s *Settings) Use(applier ResourceApplier, sections ...string) error {
	if len(sections) == 0 {
		sections = s.Sections()
	}

	s.mu.Lock()
	pending := make([]string, 0, len(sections))
	for _, section := range sections {
		if !s.used[section] {
			pending = append(pending, section)
		}
	}
	s.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	catalog, err := s.ToCatalog(pending...)
	if err != nil {
		return err
	}

	var failures []error
	for _, res := range catalog.Resources {
		if err := applier.Apply(res); err != nil {
			failures = append(failures, fmt.Errorf("%s %s: %w", res.Kind, res.Path, err))
			continue
		}
		s.logger.Debug("realized resource",
			zap.String("kind", string(res.Kind)),
			zap.String("path", res.Path))
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to realize %d resource(s): %w", len(failures), errors.Join(failures...))
	}

	s.mu.Lock()
	for _, section := range pending {
		s.used[section] = true
	}
	s.mu.Unlock()
	return nil
}

// WriteManifest renders the catalog for the requested sections as YAML.
func (s *Settings) WriteManifest(w io.Writer, sections ...string) error {
	catalog, err := s.ToCatalog(sections...)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(catalog)
}

// Sections returns the distinct section tags of all registered settings,
// sorted.
func (s *Settings) Sections() []string {
	s.mu.Lock()
	set := make(map[string]bool)
	for _, def := range s.defs {
		set[def.section] = true
	}
	s.mu.Unlock()
	return sortedKeys(set)
}

func sectionSet(sections []string) map[string]bool {
	if len(sections) == 0 {
		return nil
	}
	set := make(map[string]bool, len(sections))
	for _, section := range sections {
		set[section] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
