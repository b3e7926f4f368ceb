package token

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewFileStore(path)
	require.NoError(t, s.Set(ctx, "tok-disk"))
	require.NoError(t, s.SetRole(ctx, "Underwriter"))

	// A fresh store over the same path sees the persisted values, the way a
	// page reload sees prior localStorage.
	reopened := NewFileStore(path)
	cred, err := reopened.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-disk", cred)

	role, err := reopened.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Underwriter", role)
}

func TestFileStore_MissingFileIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "never-written.json"))

	cred, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, cred)
}

func TestFileStore_ClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)

	require.NoError(t, s.Set(ctx, "tok"))
	require.NoError(t, s.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-cold store is a no-op, not an error.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStore_CorruptFileReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStore(path)
	cred, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, cred)
}

func TestFileStore_SealedAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.bin")
	key := []byte("0123456789abcdef0123456789abcdef")

	s := NewFileStore(path, WithSealKey(key))
	require.NoError(t, s.Set(ctx, "tok-secret"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-secret")

	// Same key reads it back.
	cred, err := NewFileStore(path, WithSealKey(key)).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", cred)

	// Wrong key fails closed: absent, not an error.
	other := []byte("ffffffffffffffffffffffffffffffff")
	cred, err = NewFileStore(path, WithSealKey(other)).Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, cred)
}

func TestFileStore_ShortSealKeyIgnored(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewFileStore(path, WithSealKey([]byte("too short")))
	require.NoError(t, s.Set(ctx, "tok-plain"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "tok-plain")
}
