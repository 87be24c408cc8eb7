package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/config"
)

func TestConfigShowDefaults(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "show")
	assert.Contains(t, out, "store.backend = sqlite\n")
	assert.Contains(t, out, "store.path = "+env.db+"\n")
	assert.Contains(t, out, "output.format = text\n")
	assert.Contains(t, out, "log.level = warn\n")
}

func TestConfigSetPersists(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "set", "log.level", "debug")
	assert.Equal(t, "log.level = debug\n", out)

	cfg, err := config.Load(env.config)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	// --db overrides the effective path but is not written to the file.
	assert.NotEqual(t, env.db, cfg.Store.Path)
}

func TestConfigSetErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"unknown key", "store.size", "1", `unknown config key "store.size"`},
		{"bad backend", "store.backend", "redis", `unknown backend "redis"`},
		{"bad level", "log.level", "loud", `unknown log level "loud"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, "config", "set", tt.key, tt.val)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)

			_, statErr := os.Stat(env.config)
			assert.True(t, os.IsNotExist(statErr), "config file must not be written")
		})
	}
}

func TestConfigPath(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, env.config+"\n", env.mustRun(t, "config", "path"))
}

func TestConfigFileSelectsBackend(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "config", "set", "store.backend", "memory")

	env.mustRun(t, "insert", "/users/1", emptyMap)
	_, err := env.run(t, "get", "/users/1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, statErr := os.Stat(env.db)
	assert.True(t, os.IsNotExist(statErr), "memory backend must not create the database")
}

func TestConfigInvalidFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("[store]\nbackend = \"memory\"\nsize = 3\n"), 0o600))

	_, err := env.run(t, "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
