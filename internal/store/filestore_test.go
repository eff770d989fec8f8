package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	fs, err := NewFileStore(dir, logger)
	require.NoError(t, err)
	return fs, dir
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, _ := newTestStore(t)

	tests := []struct {
		name  string
		value string
	}{
		{"empty object", `{}`},
		{"empty array", `[]`},
		{"scalar", `42`},
		{"null", `null`},
		{"nested", `{"rooms":[{"id":1,"tags":["dark","wet"]},{"id":2}],"depth":3}`},
		{"unicode", `{"name":"Åsa the Wanderer","title":"預言者"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, fs.Save("dungeonmap", json.RawMessage(tt.value)))

			got, err := fs.Load("dungeonmap")
			require.NoError(t, err)

			var want, have any
			require.NoError(t, json.Unmarshal([]byte(tt.value), &want))
			require.NoError(t, json.Unmarshal(got, &have))
			assert.Equal(t, want, have)
		})
	}
}

func TestFileStoreAbsentVsEmpty(t *testing.T) {
	fs, _ := newTestStore(t)

	_, err := fs.Load("never-saved")
	assert.ErrorIs(t, err, ErrStateAbsent)

	require.NoError(t, fs.Save("saved-empty", json.RawMessage(`{}`)))
	got, err := fs.Load("saved-empty")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got))
}

func TestFileStoreCorruptStateIsAbsentAndPreserved(t *testing.T) {
	fs, dir := newTestStore(t)

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unterminated`), 0o644))

	_, err := fs.Load("broken")
	assert.ErrorIs(t, err, ErrStateAbsent)

	// The corrupt file must survive for manual recovery.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"unterminated`, string(data))
}

func TestFileStoreSaveRejectsInvalidJSON(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("weather", json.RawMessage(`{"day":1}`)))
	require.Error(t, fs.Save("weather", json.RawMessage(`not json`)))

	// Failed save leaves the previous value intact.
	got, err := fs.Load("weather")
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":1}`, string(got))
}

func TestFileStoreNoTempFilesLeftBehind(t *testing.T) {
	fs, dir := newTestStore(t)

	require.NoError(t, fs.Save("weather", json.RawMessage(`{"day":1}`)))
	require.Error(t, fs.Save("weather", json.RawMessage(`bad`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()), "unexpected leftover: %s", e.Name())
	}
}

func TestFileStoreDeleteAndList(t *testing.T) {
	fs, _ := newTestStore(t)

	require.NoError(t, fs.Save("weather", json.RawMessage(`1`)))
	require.NoError(t, fs.Save("treasure", json.RawMessage(`2`)))
	require.NoError(t, fs.Save("_scratchpad", json.RawMessage(`[]`)))

	ids, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"_scratchpad", "treasure", "weather"}, ids)

	require.NoError(t, fs.Delete("weather"))
	require.NoError(t, fs.Delete("weather"), "deleting absent state is not an error")

	ids, err = fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"_scratchpad", "treasure"}, ids)
}

func TestFileStoreRejectsPathLikeIDs(t *testing.T) {
	fs, _ := newTestStore(t)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, fs.Save(id, json.RawMessage(`{}`)), "id %q", id)
	}
}

// TestStoreContract runs both implementations through the shared Store
// semantics, so the mock stays honest to what FileStore does.
func TestStoreContract(t *testing.T) {
	fs, _ := newTestStore(t)

	impls := map[string]Store{
		"file": fs,
		"mock": NewMockStore(),
	}

	for name, s := range impls {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load("weather")
			assert.ErrorIs(t, err, ErrStateAbsent)

			require.NoError(t, s.Save("weather", json.RawMessage(`{"day":3}`)))
			got, err := s.Load("weather")
			require.NoError(t, err)
			assert.JSONEq(t, `{"day":3}`, string(got))

			require.Error(t, s.Save("weather", json.RawMessage(`nope`)))

			ids, err := s.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"weather"}, ids)

			require.NoError(t, s.Delete("weather"))
			_, err = s.Load("weather")
			assert.ErrorIs(t, err, ErrStateAbsent)
		})
	}
}
