package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestEnvFileBackend_FetchParsesKeyValue(t *testing.T) {
	path := writeEnvFile(t, "# a comment\nFOO=bar\nBAZ=\"quoted\"\n\nQUUX='single'\n")
	backend := NewEnvFileBackend(path)

	v, err := backend.Fetch(context.Background(), "FOO")
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	v, err = backend.Fetch(context.Background(), "BAZ")
	require.NoError(t, err)
	assert.Equal(t, "quoted", v)

	v, err = backend.Fetch(context.Background(), "QUUX")
	require.NoError(t, err)
	assert.Equal(t, "single", v)
}

func TestEnvFileBackend_FetchMissingKeyErrors(t *testing.T) {
	path := writeEnvFile(t, "FOO=bar\n")
	backend := NewEnvFileBackend(path)

	_, err := backend.Fetch(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestEnvFileBackend_MissingFileReportsNoKeys(t *testing.T) {
	backend := NewEnvFileBackend(filepath.Join(t.TempDir(), "does-not-exist.env"))

	keys, err := backend.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEnvFileBackend_ListSortedAndRereadsFile(t *testing.T) {
	path := writeEnvFile(t, "B=2\nA=1\n")
	backend := NewEnvFileBackend(path)

	keys, err := backend.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, keys)

	require.NoError(t, os.WriteFile(path, []byte("B=2\nA=1\nC=3\n"), 0o600))
	keys, err = backend.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, keys)
}

type fakeBackend struct {
	values  map[string]string
	fetches int
}

func (f *fakeBackend) Name() models.CredentialBackend { return models.CredentialBackendEnvFile }

func (f *fakeBackend) Fetch(ctx context.Context, key string) (string, error) {
	f.fetches++
	v, ok := f.values[key]
	if !ok {
		return "", assertNotFoundErr{key}
	}
	return v, nil
}

func (f *fakeBackend) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	return keys, nil
}

type assertNotFoundErr struct{ key string }

func (e assertNotFoundErr) Error() string { return "not found: " + e.key }

func TestVault_GetCachesWithinTTL(t *testing.T) {
	backend := &fakeBackend{values: map[string]string{"k": "v1"}}
	v := New(backend, time.Hour)

	val, err := v.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	backend.values["k"] = "v2"
	val, err = v.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", val, "should serve from cache, not re-fetch")
	assert.Equal(t, 1, backend.fetches)
}

func TestVault_GetRefetchesAfterExpiry(t *testing.T) {
	backend := &fakeBackend{values: map[string]string{"k": "v1"}}
	v := New(backend, time.Millisecond)

	_, err := v.Get(context.Background(), "k")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	backend.values["k"] = "v2"

	val, err := v.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)
	assert.Equal(t, 2, backend.fetches)
}

func TestVault_InvalidateForcesRefetch(t *testing.T) {
	backend := &fakeBackend{values: map[string]string{"k": "v1"}}
	v := New(backend, time.Hour)

	_, err := v.Get(context.Background(), "k")
	require.NoError(t, err)

	v.Invalidate("k")
	backend.values["k"] = "v2"

	val, err := v.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)
}

func TestVault_GetWrapsBackendErrorAsCredentialUnavailable(t *testing.T) {
	backend := &fakeBackend{values: map[string]string{}}
	v := New(backend, time.Hour)

	_, err := v.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrCredentialUnavailable)
}

func TestVault_ZeroTTLDefaultsTo300Seconds(t *testing.T) {
	backend := &fakeBackend{values: map[string]string{"k": "v"}}
	v := New(backend, 0)
	assert.Equal(t, 300*time.Second, v.ttl)
}
