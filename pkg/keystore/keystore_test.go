package keystore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LookupNotFound(t *testing.T) {
	s := New()
	_, err := s.Lookup("missing")
	assert.ErrorIs(t, err, ErrAliasNotFound)
}

func TestStore_AddAndLookup(t *testing.T) {
	s := New()
	s.Add("AP00000001", Entry{})
	entry, err := s.Lookup("AP00000001")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, entry)
}

func TestStore_Save_NoBindingIsNoop(t *testing.T) {
	s := New()
	err := s.Save(func(map[string]Entry) ([]byte, error) { return []byte("x"), nil })
	assert.NoError(t, err)
}

func TestStore_Save_WritesWhenAutoPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.bin")
	require.NoError(t, os.WriteFile(path, []byte("initial"), 0o600))

	s := New()
	require.NoError(t, s.BindFile(path, true))

	err := s.Save(func(map[string]Entry) ([]byte, error) { return []byte("updated"), nil })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "updated", string(data))
}

func TestStore_Save_DetectsConcurrentModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.bin")
	require.NoError(t, os.WriteFile(path, []byte("initial"), 0o600))

	s := New()
	require.NoError(t, s.BindFile(path, true))

	// simulate an external writer changing the file after BindFile loaded it
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("external change"), 0o600))

	err := s.Save(func(map[string]Entry) ([]byte, error) { return []byte("updated"), nil })
	assert.ErrorIs(t, err, ErrConcurrentModification)
}
