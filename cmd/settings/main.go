// Command settings is a small inspector around the settings library: it
// defines a base catalog of settings, loads the discovered configuration
// files plus command-line overrides, and can print effective values,
// generate a config file, emit the resource manifest, or apply it.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/settings"
)

const appName = "settings"

func baseSections() map[string]map[string]map[string]any {
	return map[string]map[string]map[string]any{
		"main": {
			"confdir": {
				"type":    "directory",
				"default": "/etc/" + appName,
				"desc":    "The main configuration directory.",
			},
			"vardir": {
				"type":    "directory",
				"default": "/var/lib/" + appName,
				"desc":    "Where the application stores dynamic and growing data.",
			},
			"logdir": {
				"type":    "directory",
				"default": "$vardir/log",
				"mode":    "750",
				"desc":    "The log directory.",
			},
			"rundir": {
				"type":    "directory",
				"default": "$vardir/run",
				"mode":    "755",
				"desc":    "Where pid files are kept.",
			},
			"config": {
				"type":    "file",
				"default": "$confdir/" + appName + ".conf",
				"desc":    "The main configuration file.",
			},
			"environment": {
				"default": "production",
				"desc":    "The environment to request when contacting a server.",
			},
			"code": {
				"default": "",
				"desc":    "Raw code to execute; never interpolated.",
			},
			"mkusers": {
				"type":    "boolean",
				"default": "false",
				"desc":    "Whether to create the service users and groups referenced by file settings.",
			},
			"genconfig": {
				"type":    "boolean",
				"default": "false",
				"desc":    "Print a generated configuration file and exit.",
			},
			"name": {
				"default": appName,
				"desc":    "The name of the running application.",
			},
			"run_mode": {
				"default": "user",
				"desc":    "The effective run mode of the process.",
			},
			"verbose": {
				"type":    "boolean",
				"default": "false",
				"short":   "v",
				"desc":    "Print extra information.",
			},
		},
	}
}

// osApplier realizes intents directly on the local filesystem.
type osApplier struct {
	log *zap.Logger
}

func (a *osApplier) Apply(res settings.Resource) error {
	mode := os.FileMode(0o755)
	if res.Mode != "" {
		parsed, err := strconv.ParseUint(res.Mode, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid mode %q: %w", res.Mode, err)
		}
		mode = os.FileMode(parsed)
	}

	switch res.Kind {
	case settings.ResourceDirectory:
		if err := os.MkdirAll(res.Path, mode); err != nil {
			return err
		}
		if err := os.Chmod(res.Path, mode); err != nil {
			return err
		}
	case settings.ResourceFile:
		if err := os.MkdirAll(filepath.Dir(res.Path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(res.Path, os.O_WRONLY|os.O_CREATE, mode)
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported resource kind %q", res.Kind)
	}
	a.log.Info("ensured resource",
		zap.String("kind", string(res.Kind)),
		zap.String("path", res.Path))
	return nil
}

func load(args []string, log *zap.Logger) (*settings.Settings, error) {
	builder := settings.NewBuilder().
		WithLogger(log).
		WithApplicationDefaults(map[string]string{
			"name":     appName,
			"run_mode": "user",
		}).
		WithFileDiscovery(appName).
		WithArgs(args)
	for section, defs := range baseSections() {
		builder = builder.WithSection(section, defs)
	}
	return builder.Build()
}

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	root := &cobra.Command{
		Use:           appName,
		Short:         "Inspect and realize hierarchical application settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "print [name...]",
		Short: "Print effective setting values, sorted by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(nil, log)
			if err != nil {
				return err
			}
			return s.Print(os.Stdout, args...)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "genconfig",
		Short: "Print a generated configuration file for the current run mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(nil, log)
			if err != nil {
				return err
			}
			return s.GenerateConfig(os.Stdout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "manifest [section...]",
		Short: "Print the provisioning manifest for file and directory settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(nil, log)
			if err != nil {
				return err
			}
			return s.WriteManifest(os.Stdout, args...)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "apply [section...]",
		Short: "Realize file and directory settings on the local system",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(nil, log)
			if err != nil {
				return err
			}
			return s.Use(&osApplier{log: log}, args...)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print a TOML snapshot of all effective values, grouped by section",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(nil, log)
			if err != nil {
				return err
			}
			return s.ExportTOML(os.Stdout)
		},
	})

	if err := root.Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
