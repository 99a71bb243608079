// FILE: lixenwraith/settings/flags_test.go
package settings

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFlags(t *testing.T) {
	s := newTestSettings(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	s.AddFlags(fs)

	t.Run("RegistersEveryDefinedSetting", func(t *testing.T) {
		for _, name := range s.Names() {
			assert.NotNil(t, fs.Lookup(name), "missing flag --%s", name)
		}
	})

	t.Run("BooleanSettingsAreValueless", func(t *testing.T) {
		f := fs.Lookup("verbose")
		require.NotNil(t, f)
		assert.Equal(t, "bool", f.Value.Type())
		assert.Equal(t, "v", f.Shorthand)
	})

	t.Run("OtherSettingsTakeValues", func(t *testing.T) {
		f := fs.Lookup("port")
		require.NotNil(t, f)
		assert.Equal(t, "string", f.Value.Type())
	})
}

func TestBindFlags(t *testing.T) {
	t.Run("OnlySetFlagsLandInCLI", func(t *testing.T) {
		s := newTestSettings(t)
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		s.AddFlags(fs)
		require.NoError(t, fs.Parse([]string{"--port", "9999", "-v"}))
		require.NoError(t, s.BindFlags(fs))

		port, err := s.IntValue("port")
		require.NoError(t, err)
		assert.Equal(t, 9999, port)

		verbose, err := s.BoolValue("verbose")
		require.NoError(t, err)
		assert.True(t, verbose)

		// Flags the user never touched must not shadow lower layers.
		val, err := s.Value("confdir")
		require.NoError(t, err)
		assert.Equal(t, "/etc/app", val)
	})

	t.Run("ReadOnlyFlagsAggregateErrors", func(t *testing.T) {
		s := newTestSettings(t)
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		s.AddFlags(fs)
		require.NoError(t, fs.Parse([]string{"--name", "other", "--run_mode", "master", "--port", "9999"}))

		err := s.BindFlags(fs)
		require.ErrorIs(t, err, ErrReadOnly)
		assert.Contains(t, err.Error(), "--name")
		assert.Contains(t, err.Error(), "--run_mode")

		// The valid flag still landed.
		port, ierr := s.IntValue("port")
		require.NoError(t, ierr)
		assert.Equal(t, 9999, port)
	})
}
