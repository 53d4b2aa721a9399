package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore(t *testing.T) {
	store, dir := newTestStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())

	_, ok := store.Get("sync.parallelism")
	assert.False(t, ok)
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewConfigStore(nested)
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("google.client_id", "abc"))
	require.NoError(t, store.Set("sync.parallelism", 8))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("sync.fetch_timeout", 45*time.Second))
	require.NoError(t, store.Set("reconcile.buffer_block_platforms", []string{"Lodgify", "Hostaway"}))

	assert.Equal(t, "abc", store.GetString("google.client_id"))
	assert.Equal(t, 8, store.GetInt("sync.parallelism"))
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, 45*time.Second, store.GetDuration("sync.fetch_timeout"))
	assert.Equal(t, []string{"Lodgify", "Hostaway"}, store.GetStringSlice("reconcile.buffer_block_platforms"))

	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Zero(t, store.GetDuration("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("k", "not-a-number"))

	assert.Zero(t, store.GetInt("k"))
	assert.False(t, store.GetBool("k"))
	assert.Zero(t, store.GetDuration("k"))

	require.NoError(t, store.Set("n", 7))
	assert.Empty(t, store.GetString("n"))
	assert.Equal(t, 7*time.Second, store.GetDuration("n"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.Set("sync.token_margin", "10m"))
	require.NoError(t, store.Set("sync.parallelism", 3))
	require.NoError(t, store.Set("reconcile.buffer_block_platforms", []string{"Lodgify"}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, reopened.GetDuration("sync.token_margin"))
	assert.Equal(t, 3, reopened.GetInt("sync.parallelism"))
	assert.Equal(t, []string{"Lodgify"}, reopened.GetStringSlice("reconcile.buffer_block_platforms"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadFlattensTables(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
[sync]
fetch_timeout = "20s"
parallelism = 2

[scheduler.reservation_sync]
enabled = false
interval = "5m"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), content, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, store.GetDuration("sync.fetch_timeout"))
	assert.Equal(t, 2, store.GetInt("sync.parallelism"))
	assert.Equal(t, 5*time.Minute, store.GetDuration("scheduler.reservation_sync.interval"))
	_, ok := store.Get("scheduler.reservation_sync.enabled")
	assert.True(t, ok)
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
		ok   bool
	}{
		{name: "two part key", env: "RENTSYNC_GOOGLE_CLIENT_ID", want: "google.client_id", ok: true},
		{name: "sync key", env: "RENTSYNC_SYNC_FETCH_TIMEOUT", want: "sync.fetch_timeout", ok: true},
		{name: "no field", env: "RENTSYNC_DEBUG", ok: false},
		{name: "other prefix", env: "HOME", ok: false},
		{name: "prefix only", env: "RENTSYNC_", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EnvKey(tt.env)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigStore_LoadEnv(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.Set("google.client_id", "from-file"))

	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"RENTSYNC_GOOGLE_CLIENT_ID=from-dotenv\nRENTSYNC_GOOGLE_CLIENT_SECRET=shh\n"), 0600))
	t.Setenv("RENTSYNC_GOOGLE_CLIENT_SECRET", "from-process")
	t.Setenv("RENTSYNC_SYNC_PARALLELISM", "6")

	require.NoError(t, store.LoadEnv(dotenv, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-dotenv", store.GetString("google.client_id"))
	assert.Equal(t, "from-process", store.GetString("google.client_secret"))
	assert.Equal(t, 6, store.GetInt("sync.parallelism"))

	// Overrides are not persisted.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", reopened.GetString("google.client_id"))

	// An explicit Set wins over the override.
	require.NoError(t, store.Set("google.client_id", "explicit"))
	assert.Equal(t, "explicit", store.GetString("google.client_id"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("sync.parallelism", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("sync.parallelism")
		}()
	}
	wg.Wait()
}
