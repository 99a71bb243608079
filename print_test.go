// FILE: lixenwraith/settings/print_test.go
package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	t.Run("AllSettingsSorted", func(t *testing.T) {
		s := newTestSettings(t)
		var buf bytes.Buffer
		require.NoError(t, s.Print(&buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 8)
		assert.Equal(t, "confdir = /etc/app", lines[0])
		assert.Equal(t, "ssldir = /etc/app/ssl", lines[5])
		// Output is sorted by name.
		sorted := append([]string(nil), lines...)
		assert.IsIncreasing(t, sorted)
	})

	t.Run("RequestedSubset", func(t *testing.T) {
		s := newTestSettings(t)
		var buf bytes.Buffer
		require.NoError(t, s.Print(&buf, "port", "confdir"))
		assert.Equal(t, "confdir = /etc/app\nport = 8140\n", buf.String())
	})

	t.Run("UnknownRequestedNameErrors", func(t *testing.T) {
		s := newTestSettings(t)
		var buf bytes.Buffer
		err := s.Print(&buf, "never_defined")
		require.ErrorIs(t, err, ErrUnknownSetting)
	})
}

func TestGenerateConfig(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		s := newTestSettings(t)
		var buf bytes.Buffer
		require.NoError(t, s.GenerateConfig(&buf))
		out := buf.String()

		assert.True(t, strings.HasPrefix(out, "# Generated configuration file."))
		assert.Contains(t, out, "\n[user]\n", "the section header is the active run mode")
		assert.Contains(t, out, "# The main configuration directory.\nconfdir = /etc/app\n")
		assert.NotContains(t, out, "\nname = ", "read-only settings are omitted")
		assert.NotContains(t, out, "\nrun_mode = ")
	})

	t.Run("RoundTripPreservesEffectiveValues", func(t *testing.T) {
		s := newTestSettings(t)
		require.NoError(t, s.Set("port", "9000"))
		require.NoError(t, s.Set("confdir", "/opt/app"))

		var buf bytes.Buffer
		require.NoError(t, s.GenerateConfig(&buf))

		dir := t.TempDir()
		conf := filepath.Join(dir, "generated.conf")
		require.NoError(t, os.WriteFile(conf, buf.Bytes(), 0o644))

		fresh := newTestSettings(t)
		require.NoError(t, fresh.Parse(conf))

		for _, name := range []string{"confdir", "vardir", "ssldir", "environment", "verbose", "port"} {
			want, err := s.StringValue(name)
			require.NoError(t, err)
			got, err := fresh.StringValue(name)
			require.NoError(t, err)
			assert.Equal(t, want, got, "setting %s must survive the round trip", name)
		}
	})

	t.Run("RoundTripAcceptsDashedNames", func(t *testing.T) {
		dashed := map[string]map[string]any{
			"log-level": {"default": "info", "desc": "log verbosity"},
		}
		s := newTestSettings(t)
		require.NoError(t, s.Define("extra", dashed))
		require.NoError(t, s.Set("log-level", "debug"))

		var buf bytes.Buffer
		require.NoError(t, s.GenerateConfig(&buf))

		dir := t.TempDir()
		conf := filepath.Join(dir, "generated.conf")
		require.NoError(t, os.WriteFile(conf, buf.Bytes(), 0o644))

		fresh := newTestSettings(t)
		require.NoError(t, fresh.Define("extra", dashed))
		require.NoError(t, fresh.Parse(conf))

		got, err := fresh.StringValue("log-level")
		require.NoError(t, err)
		assert.Equal(t, "debug", got)
	})
}

func TestExportTOML(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("main", map[string]map[string]any{
		"name":     {"desc": "app name"},
		"run_mode": {"desc": "run mode"},
		"confdir":  {"type": "directory", "default": "/etc/app", "desc": "config dir"},
	}))
	require.NoError(t, s.Define("ssl", map[string]map[string]any{
		"ssldir": {"type": "directory", "default": "$confdir/ssl", "desc": "ssl dir"},
	}))
	require.NoError(t, s.SetApplicationDefaults(map[string]string{"name": "app", "run_mode": "user"}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportTOML(&buf))
	out := buf.String()

	assert.Contains(t, out, "[main]")
	assert.Contains(t, out, "[ssl]")
	assert.Contains(t, out, `confdir = "/etc/app"`)
	assert.Contains(t, out, `ssldir = "/etc/app/ssl"`, "exported values are interpolated")
}

func TestScan(t *testing.T) {
	type appConfig struct {
		Confdir string `settings:"confdir"`
		Port    int    `settings:"port"`
		Verbose bool   `settings:"verbose"`
	}

	t.Run("DecodesEffectiveValues", func(t *testing.T) {
		s := newTestSettings(t)
		require.NoError(t, s.Set("verbose", true))

		var cfg appConfig
		require.NoError(t, s.Scan("main", &cfg))
		assert.Equal(t, "/etc/app", cfg.Confdir)
		assert.Equal(t, 8140, cfg.Port, "weakly typed decoding converts the string default")
		assert.True(t, cfg.Verbose)
	})

	t.Run("SectionFilter", func(t *testing.T) {
		s := newTestSettings(t)
		require.NoError(t, s.Define("extra", map[string]map[string]any{
			"cachedir": {"type": "directory", "default": "$vardir/cache", "desc": "cache dir"},
		}))

		var out struct {
			Confdir  string `settings:"confdir"`
			Cachedir string `settings:"cachedir"`
		}
		require.NoError(t, s.Scan("extra", &out))
		assert.Equal(t, "/var/app/cache", out.Cachedir)
		assert.Empty(t, out.Confdir, "settings outside the section are not decoded")
	})

	t.Run("RejectsNonPointerTarget", func(t *testing.T) {
		s := newTestSettings(t)
		var cfg appConfig
		require.Error(t, s.Scan("main", cfg))
	})
}
