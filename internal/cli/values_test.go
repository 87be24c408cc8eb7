package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			"int equals integral double",
			[]string{`{"type":"NUMBER","value":1}`, `{"type":"NUMBER","value":1.0}`},
			"compare: 0\nequal: true\n",
		},
		{
			"strings",
			[]string{`{"type":"STRING","value":"a"}`, `{"type":"STRING","value":"b"}`},
			"compare: -1\nequal: false\n",
		},
		{
			"cross type orders by type",
			[]string{`{"type":"NUMBER","value":0}`, `{"type":"NULL","value":null}`},
			"compare: 1\nequal: false\n",
		},
		{
			"query op across types is false",
			[]string{"--op", "#<", `{"type":"NULL","value":null}`, `{"type":"NUMBER","value":0}`},
			"compare: -1\nequal: false\n#<: false\n",
		},
		{
			"bare op form",
			[]string{"--op", "<=", `{"type":"NUMBER","value":2}`, `{"type":"NUMBER","value":2.5}`},
			"compare: -1\nequal: false\n#<=: true\n",
		},
		{
			"nan never equal in queries",
			[]string{"--op", "#=", `{"type":"NAN","value":null}`, `{"type":"NAN","value":null}`},
			"compare: 0\nequal: true\n#=: false\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			out := env.mustRun(t, append([]string{"compare"}, tt.args...)...)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompareJSON(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "--format", "json", "compare", `{"type":"BOOLEAN","value":false}`, `{"type":"BOOLEAN","value":true}`)

	var resp struct {
		Data CompareOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, -1, resp.Data.Compare)
	assert.False(t, resp.Data.Equal)
	assert.Nil(t, resp.Data.Result)
}

func TestCompareErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "compare", "--op", "~", `{"type":"NULL","value":null}`, `{"type":"NULL","value":null}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = env.run(t, "compare", `{"type":"NULL"}`, `{"type":"NULL","value":null}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		to   string
		in   string
		want string
	}{
		{"binary", EncodingBinary, `{"type":"BOOLEAN","value":true}`, "1801"},
		{"binary reference", EncodingBinary, `{"type":"REFERENCE","value":"/a/b"}`, "4a060a01610a0162"},
		{"text normalizes", EncodingText, `{ "type": "NUMBER", "value": 2E3 }`, `{"type":"NUMBER","value":2000.0}`},
		{
			"canonical sorts keys",
			EncodingCanonical,
			`{"type":"MAP","value":{"b":{"type":"NUMBER","value":2.0},"a":{"type":"NULL","value":null}}}`,
			`{"type":"MAP","value":{"a":{"type":"NULL","value":null},"b":{"type":"NUMBER","value":2}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			out := env.mustRun(t, "encode", "--to", tt.to, tt.in)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestEncodeFingerprint(t *testing.T) {
	env := newTestEnv(t)

	a := env.mustRun(t, "encode", "--to", "fingerprint", `{"type":"MAP","value":{"x":{"type":"NUMBER","value":1},"y":{"type":"NULL","value":null}}}`)
	b := env.mustRun(t, "encode", "--to", "fingerprint", `{"type":"MAP","value":{"y":{"type":"NULL","value":null},"x":{"type":"NUMBER","value":1.0}}}`)

	assert.Regexp(t, "^[0-9a-f]{64}\n$", a)
	assert.Equal(t, a, b)
}

func TestEncodeUnknownEncoding(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "encode", "--to", "xml", `{"type":"NULL","value":null}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown encoding "xml"`)
}

func TestDecode(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "decode", "1801")
	assert.Equal(t, `{"type":"BOOLEAN","value":true}`+"\n", out)

	out = env.mustRun(t, "--format", "json", "decode", "4a060a01610a0162")
	var resp struct {
		Data DecodeOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "REFERENCE", resp.Data.Type)
	assert.JSONEq(t, `{"type":"REFERENCE","value":"/a/b"}`, string(resp.Data.Value))
}

func TestDecodeStdin(t *testing.T) {
	env := newTestEnv(t)

	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader("0800\n"))
	out := &strings.Builder{}
	cmd.SetOut(out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"--config", env.config, "--db", env.db, "decode", "-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, `{"type":"NULL","value":null}`+"\n", out.String())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not hex", "zz"},
		{"trailing bytes", "080000"},
		{"unknown tag", "6800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, "decode", tt.in)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	in := `{"type":"MAP","value":{"z":{"type":"GEOPOINT","value":[1.5,-2.0]},"a":{"type":"BYTES","value":"dead"}}}`

	hexOut := env.mustRun(t, "encode", in)
	out := env.mustRun(t, "decode", strings.TrimSpace(hexOut))
	assert.Equal(t, in+"\n", out)
}
