// FILE: lixenwraith/settings/doc.go

// Package settings provides thread-safe hierarchical configuration
// resolution: a typed setting registry, a layered value store, an INI-like
// configuration-file parser, $name/${name} interpolation, per-environment
// caching and change-triggered hooks, plus a companion write path that can
// realize file and directory settings on disk.
//
// Search path (highest to lowest precedence):
//  1. Command line (cli layer, written through HandleArg/BindFlags)
//  2. In-memory overrides (memory layer, written through Set)
//  3. The requested environment's section, when one is given
//  4. The active run mode's section (master, agent or user)
//  5. The main section
//  6. Application defaults (written once through SetApplicationDefaults)
//  7. The definition's default template
//
// Quick start:
//
//	s, err := settings.NewBuilder().
//	    WithSection("main", map[string]map[string]any{
//	        "confdir": {"type": "directory", "default": "/etc/app", "desc": "The main configuration directory."},
//	        "ssldir":  {"type": "directory", "default": "$confdir/ssl", "mode": "771", "desc": "Where SSL certificates are kept."},
//	        "verbose": {"type": "boolean", "default": "false", "short": "v", "desc": "Print extra information."},
//	    }).
//	    WithApplicationDefaults(map[string]string{"name": "app", "run_mode": "user"}).
//	    WithFileDiscovery("app").
//	    WithArgs(os.Args[1:]).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ssldir, _ := s.StringValue("ssldir") // "/etc/app/ssl"
//
// Values are raw and uninterpolated in the store; interpolation happens at
// resolution time and results are memoized per environment until the next
// mutation. Every write fully invalidates the cache.
//
// Thread safety: one mutex serializes all store, cache and bookkeeping
// mutations. Reads take the same critical section briefly per access rather
// than for a whole resolution, so snapshot isolation is not provided; see
// the Settings type for the exact guarantee.
package settings
