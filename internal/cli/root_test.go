package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv points the CLI at a throwaway config file and database.
type testEnv struct {
	config string
	db     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		config: filepath.Join(dir, "config.toml"),
		db:     filepath.Join(dir, "documents.db"),
	}
}

// run executes the root command with args and returns stdout.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "firedoc", cmd.Use)
	assert.Contains(t, cmd.Long, "Firestore value semantics")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"seed", "insert", "add", "get", "collection", "group", "query",
		"compare", "encode", "decode", "scenario", "config",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "backend", "db"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	for _, name := range []string{"group", "where", "order-by", "limit", "properties"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "0", queryCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "p", queryCmd.Flags().Lookup("properties").Shorthand)
}

func TestScenarioCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scenarioCmd, _, err := cmd.Find([]string{"scenario"})
	require.NoError(t, err)

	updateFlag := scenarioCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := scenarioCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestEncodeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	encodeCmd, _, err := cmd.Find([]string{"encode"})
	require.NoError(t, err)

	toFlag := encodeCmd.Flags().Lookup("to")
	require.NotNil(t, toFlag)
	assert.Equal(t, EncodingBinary, toFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--format", "invalid", "get", "/users/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUnknownBackendFlag(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--backend", "postgres", "get", "/users/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "postgres"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "config", "set", "output.format", "json")

	out := env.mustRun(t, "config", "show")
	assert.Contains(t, out, `"key":"output.format","value":"json"`)

	out = env.mustRun(t, "--format", "text", "config", "show")
	assert.Contains(t, out, "output.format = text\n")
}

func TestConfigOutsideRootCommand(t *testing.T) {
	opts := &RootOptions{Format: "json", Backend: "memory"}
	cfg := opts.config()
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
}
