package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultraschall/podcast-tools/internal/config"
)

// testStoreContract runs the behaviour every PropertyStore shares.
func testStoreContract(t *testing.T, s PropertyStore) {
	t.Helper()

	assert.False(t, s.Has("last_update_check"))
	assert.Equal(t, "", s.Get("last_update_check"))

	require.NoError(t, s.Set("last_update_check", "1700000000"))
	assert.True(t, s.Has("last_update_check"))
	assert.Equal(t, "1700000000", s.Get("last_update_check"))

	require.NoError(t, s.Set("last_update_check", "1700086400"))
	assert.Equal(t, "1700086400", s.Get("last_update_check"))

	require.NoError(t, s.Set("empty", ""))
	assert.True(t, s.Has("empty"))
	assert.Equal(t, "", s.Get("empty"))
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/config/ultraschall/properties.json", zerolog.Nop())
	require.NoError(t, err)

	testStoreContract(t, s)
}

func TestFileStore_Persists(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/config/properties.json"

	s, err := NewFileStore(fs, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Set("last_update_check", "1700000000"))

	reopened, err := NewFileStore(fs, path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "1700000000", reopened.Get("last_update_check"))

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_Corrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/properties.json", []byte("{broken"), 0644))

	_, err := NewFileStore(fs, "/properties.json", zerolog.Nop())
	assert.Error(t, err)
}

func TestFileStore_ReadOnlyKeepsValues(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/properties.json", []byte(`{"a":"1"}`), 0644))

	s, err := NewFileStore(afero.NewReadOnlyFs(base), "/properties.json", zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, s.Set("a", "2"))
	assert.Equal(t, "1", s.Get("a"))
	assert.Error(t, s.Set("b", "3"))
	assert.False(t, s.Has("b"))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "properties.db"), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	testStoreContract(t, s)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "properties.db")

	s, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Set("last_update_check", "1700000000"))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, "1700000000", reopened.Get("last_update_check"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind    string
		path    string
		want    any
		wantErr bool
	}{
		{config.StoreMemory, "", &MemoryStore{}, false},
		{config.StoreFile, filepath.Join(dir, "properties.json"), &FileStore{}, false},
		{config.StoreSQLite, filepath.Join(dir, "properties.db"), &SQLiteStore{}, false},
		{"redis", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			settings := config.DefaultSettings()
			settings.PropertyStore = tt.kind
			settings.PropertyStorePath = tt.path

			s, closeStore, err := Open(settings, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closeStore()
			assert.IsType(t, tt.want, s)
		})
	}
}
