package stopwatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesStore_MissingFile(t *testing.T) {
	store := NewPreferencesStore(filepath.Join(t.TempDir(), "timeee", "preferences.yaml"))

	prefs, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, prefs.Username)
}

func TestPreferencesStore_RoundTrip(t *testing.T) {
	store := NewPreferencesStore(filepath.Join(t.TempDir(), "nested", "timeee", "preferences.yaml"))

	require.NoError(t, store.Save(Preferences{Username: "ana"}))

	prefs, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ana", prefs.Username)
}

func TestPreferencesStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: [unterminated"), 0o644))

	_, err := NewPreferencesStore(path).Load()
	assert.Error(t, err)
}
