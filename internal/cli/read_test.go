package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/query"
	"github.com/roach88/firedoc/internal/value"
)

func seededEnv(t *testing.T) testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.mustRun(t, "seed", "testdata/fixtures/users.yaml")
	return env
}

func TestCollection(t *testing.T) {
	env := seededEnv(t)

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"top level", "/users", "/users/1\n/users/2\n"},
		{"without leading slash", "posts", "/posts/1\n"},
		{"nested", "/users/1/posts", "/users/1/posts/1\n"},
		{"empty", "/cities", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.mustRun(t, "collection", tt.arg))
		})
	}
}

func TestCollectionProperties(t *testing.T) {
	env := seededEnv(t)

	out := env.mustRun(t, "collection", "/posts", "-p")
	assert.Equal(t, "/posts/1\t"+`{"type":"MAP","value":{"title":{"type":"STRING","value":"hello bar"}}}`+"\n", out)
}

func TestCollectionRejectsDocumentPath(t *testing.T) {
	env := seededEnv(t)
	for _, arg := range []string{"/users/1", "/"} {
		_, err := env.run(t, "collection", arg)
		require.Error(t, err, arg)
		assert.Equal(t, ExitCommandError, GetExitCode(err), arg)
	}
}

func TestGroup(t *testing.T) {
	env := seededEnv(t)

	assert.Equal(t, "/users/1/posts/1\n/posts/1\n", env.mustRun(t, "group", "posts"))
	assert.Equal(t, "", env.mustRun(t, "group", "comments"))

	_, err := env.run(t, "group", "users/1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGroupJSON(t *testing.T) {
	env := seededEnv(t)

	out := env.mustRun(t, "--format", "json", "group", "users")
	var resp struct {
		Data ListOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Documents, 2)
	assert.Equal(t, "/users/1", resp.Data.Documents[0].Reference)
	assert.Equal(t, "/users/2", resp.Data.Documents[1].Reference)
}

func TestQuery(t *testing.T) {
	env := seededEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			"equality",
			[]string{"/users", "--where", `name == {"type":"STRING","value":"grace"}`},
			"/users/2\n",
		},
		{
			"range",
			[]string{"/users", "--where", `age > {"type":"NUMBER","value":40}`},
			"/users/2\n",
		},
		{
			"order descending",
			[]string{"/users", "--order-by", "age:desc"},
			"/users/2\n/users/1\n",
		},
		{
			"limit",
			[]string{"/users", "--order-by", "name", "--limit", "1"},
			"/users/1\n",
		},
		{
			"group",
			[]string{"--group", "posts", "--order-by", "title:asc"},
			"/posts/1\n/users/1/posts/1\n",
		},
		{
			"missing field never matches",
			[]string{"--group", "posts", "--where", `name != {"type":"STRING","value":"x"}`},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := env.mustRun(t, append([]string{"query"}, tt.args...)...)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestQueryArgumentErrors(t *testing.T) {
	env := seededEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"both sources", []string{"/users", "--group", "posts"}},
		{"short where", []string{"/users", "--where", "name =="}},
		{"unknown op", []string{"/users", "--where", `name ~ {"type":"NULL","value":null}`}},
		{"bad value", []string{"/users", "--where", "name == grace"}},
		{"bad direction", []string{"/users", "--order-by", "name:up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"query"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestQueryInvalid(t *testing.T) {
	env := seededEnv(t)

	out, err := env.run(t, "query", "/users", "--limit=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_QUERY]")
}

func TestParseWhere(t *testing.T) {
	f, err := parseWhere(`title == {"type":"STRING","value":"hello foo"}`)
	require.NoError(t, err)
	assert.Equal(t, "title", f.Field)
	assert.Equal(t, query.OpEqual, f.Op)
	assert.Equal(t, value.NewString("hello foo"), f.Value)
}
