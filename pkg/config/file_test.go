package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSocketPath, f.SocketPath())
	assert.Equal(t, "sqlite", f.StorageDriver())
	assert.Equal(t, 30*time.Second, f.PollInterval())
	assert.Equal(t, 8, f.RefreshConcurrency())
	assert.False(t, f.AllowNonRootAccess())

	loc, err := f.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestFileLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer24h.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "storageDriver": "file",
  "storagePath": "/tmp/schedules.json",
  "timezone": "UTC",
  "pollIntervalSeconds": 5,
  "refreshConcurrency": -1
}`), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", f.StorageDriver())
	assert.Equal(t, "/tmp/schedules.json", f.StoragePath())
	assert.Equal(t, 5*time.Second, f.PollInterval())
	assert.Equal(t, 8, f.RefreshConcurrency(), "non-positive falls back to default")

	loc, err := f.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestFileLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer24h.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
socketPath = "/tmp/t.sock"
allowNonRootAccess = true
`), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/t.sock", f.SocketPath())
	assert.True(t, f.AllowNonRootAccess())
}

func TestFileSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"c.json", "c.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			f := NewFileFromConfig(nil, path)
			f.SetStorage("file", "/data/s.json")
			f.SetTimezone("Europe/Paris")
			f.SetAllowNonRootAccess(true)
			require.NoError(t, f.Save())

			g, err := NewFile(path)
			require.NoError(t, err)
			assert.Equal(t, "file", g.StorageDriver())
			assert.Equal(t, "/data/s.json", g.StoragePath())
			assert.Equal(t, "Europe/Paris", g.Timezone())
			assert.True(t, g.AllowNonRootAccess())
		})
	}
}

func TestFileEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	f, err := NewFile(empty)
	require.NoError(t, err)
	assert.Equal(t, DefaultSocketPath, f.SocketPath())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = NewFile(bad)
	assert.Error(t, err)

	f.SetTimezone("Not/AZone")
	_, err = f.Location()
	assert.Error(t, err)
}

func TestRawFileConfigFromConfig(t *testing.T) {
	f := NewFileFromConfig(nil, "")
	raw, err := NewRawFileConfigFromConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 30, *raw.PollIntervalSeconds)

	_, err = NewRawFileConfigFromConfig(nil)
	assert.Error(t, err)
}
