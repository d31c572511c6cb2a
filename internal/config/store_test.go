package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	var missing []Provider
	found, err := store.Get(providersKey, &missing)
	require.NoError(t, err)
	require.False(t, found)

	providers := []Provider{{ID: "provider-1", Name: "main", Type: ProviderCloud, IsActive: true}}
	require.NoError(t, store.Update(providersKey, providers))

	// A fresh store over the same file sees the write.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	var loaded []Provider
	found, err = reopened.Get(providersKey, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, providers, loaded)
}

func TestFileSecretStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")

	secrets, err := NewFileSecretStore(path)
	require.NoError(t, err)
	require.NoError(t, secrets.Store("apiKey:provider-1", "sk-secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileSecretStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get("apiKey:provider-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sk-secret", value)

	require.NoError(t, reopened.Delete("apiKey:provider-1"))
	_, ok, err = reopened.Get("apiKey:provider-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var store MemoryStore
	require.NoError(t, store.Update("k", []string{"v"}))

	var out []string
	found, err := store.Get("k", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"v"}, out)
}
