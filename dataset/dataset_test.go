package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/enrich/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "in.json", `[{"prompt":"a"},{"prompt":"b"},7,{"prompt":"c"}]`)

	all, err := Load(path, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.False(t, all[2].IsObject())

	some, err := Load(path, 2)
	require.NoError(t, err)
	require.Len(t, some, 2)
	p, _ := some[1].String("prompt")
	assert.Equal(t, "b", p)

	more, err := Load(path, 10)
	require.NoError(t, err)
	assert.Len(t, more, 4)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object instead of array", `{"prompt":"a"}`},
		{"truncated", `[{"prompt":"a"}`},
		{"null", `null`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "in.json", tt.content), 0)
			assert.ErrorIs(t, err, core.ErrMalformedInput)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"), 0)
		assert.ErrorIs(t, err, core.ErrMalformedInput)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoad_EmptyArray(t *testing.T) {
	records, err := Load(writeFile(t, "in.json", `[]`), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadResults(t *testing.T) {
	missing, err := LoadResults(filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	done, err := LoadResults(writeFile(t, "out.json", "[\n    {\"text\": \"x\"}\n]\n"))
	require.NoError(t, err)
	assert.Len(t, done, 1)

	_, err = LoadResults(writeFile(t, "out.json", `[{"text":`))
	assert.ErrorIs(t, err, core.ErrMalformedInput)
}

func TestResultsPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "gen_results.json"), ResultsPath("out", "/data/gen.json"))
	assert.Equal(t, filepath.Join("out", "noext_results.json"), ResultsPath("out", "noext"))
	assert.Equal(t, filepath.Join("out", "a.b_results.json"), ResultsPath("out", "a.b.json"))
}

func TestSanitize(t *testing.T) {
	var in []core.Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"text":"keep me","meta":{"x":1}},
		{"id":2},
		"stray",
		{"text":null},
		{"text":["a","b"]}
	]`), &in))

	out, err := json.Marshal(Sanitize(in))
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"keep me"},{"text":null},{"text":["a","b"]}]`, string(out))
}

func TestSanitize_Empty(t *testing.T) {
	out := Sanitize(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestWriteScoreCSV(t *testing.T) {
	var in []core.Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"text":"one two three four five six seven","coverage":0.75},
		{"text":"short, with comma","coverage":"high"},
		{"text":"no coverage"},
		{"coverage":1},
		{"text":42,"coverage":1},
		[1,2]
	]`), &in))

	var buf bytes.Buffer
	rows, err := WriteScoreCSV(&buf, in)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t,
		"First 5 Words,Coverage Score\r\n"+
			"one two three four five,0.75\r\n"+
			"\"short, with comma\",high\r\n",
		buf.String())
}
