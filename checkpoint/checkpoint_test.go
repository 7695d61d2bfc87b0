package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/enrich/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRecords(t *testing.T, raw string) []core.Record {
	t.Helper()
	var records []core.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

func TestFileSink_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	records := parseRecords(t, `[{"prompt":"A <dragon> & co","text":"over the","n":1.50}, 7]`)
	require.NoError(t, sink.Persist(context.Background(), records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "[\n" +
		"    {\n" +
		"        \"prompt\": \"A <dragon> & co\",\n" +
		"        \"text\": \"over the\",\n" +
		"        \"n\": 1.50\n" +
		"    },\n" +
		"    7\n" +
		"]\n"
	assert.Equal(t, expected, string(data))
}

func TestFileSink_EmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Persist(context.Background(), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileSink_FailedWriteKeepsPreviousDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	first := parseRecords(t, `[{"prompt":"a","text":"one"}]`)
	require.NoError(t, sink.Persist(context.Background(), first))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	sink.rename = func(string, string) error { return errors.New("disk full") }
	second := parseRecords(t, `[{"prompt":"a","text":"one"},{"prompt":"b","text":"two"}]`)
	err = sink.Persist(context.Background(), second)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "previous document must be untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestFileSink_CancelledContext(t *testing.T) {
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sink.Persist(ctx, nil)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileSink_EmptyPath(t *testing.T) {
	_, err := NewFileSink("  ")
	assert.ErrorIs(t, err, core.ErrPersistence)
}

type countingSink struct {
	calls int
	sizes []int
	err   error
}

func (s *countingSink) Persist(_ context.Context, records []core.Record) error {
	s.calls++
	s.sizes = append(s.sizes, len(records))
	return s.err
}

func TestCheckpointer_Policies(t *testing.T) {
	ctx := context.Background()
	records := parseRecords(t, `[{"a":1},{"a":2}]`)

	t.Run("every record", func(t *testing.T) {
		sink := &countingSink{}
		c := NewCheckpointer(sink, PolicyEveryRecord)
		require.NoError(t, c.Record(ctx, records[:1]))
		require.NoError(t, c.Record(ctx, records))
		require.NoError(t, c.Finish(ctx, records))
		assert.Equal(t, []int{1, 2, 2}, sink.sizes)
		assert.Equal(t, int64(3), c.Writes())
	})

	t.Run("at end", func(t *testing.T) {
		sink := &countingSink{}
		c := NewCheckpointer(sink, PolicyAtEnd)
		require.NoError(t, c.Record(ctx, records[:1]))
		require.NoError(t, c.Record(ctx, records))
		require.NoError(t, c.Finish(ctx, records))
		assert.Equal(t, []int{2}, sink.sizes)
	})

	t.Run("errors propagate", func(t *testing.T) {
		sink := &countingSink{err: core.ErrPersistence}
		c := NewCheckpointer(sink, PolicyEveryRecord)
		assert.ErrorIs(t, c.Record(ctx, records), core.ErrPersistence)
		assert.Equal(t, int64(0), c.Writes())
	})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"every-record", PolicyEveryRecord, false},
		{"", PolicyEveryRecord, false},
		{"END", PolicyAtEnd, false},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "end", PolicyAtEnd.String())
}
