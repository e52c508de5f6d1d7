package jsonstore

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "tada"))

	_, err := s.Read("auth")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write("auth", []byte(`{"version":1}`)))
	b, err := s.Read("auth")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(b))

	require.NoError(t, s.Write("auth", []byte(`{"version":2}`)))
	b, err = s.Read("auth")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(b))

	require.NoError(t, s.Delete("auth"))
	_, err = s.Read("auth")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete("auth"), "deleting twice is fine")
}

func TestStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := filepath.Join(t.TempDir(), "tada")
	s := New(dir)
	require.NoError(t, s.Write("auth", []byte(`{}`)))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())

	fi, err = os.Stat(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_RejectsBadKeys(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"", "../etc", "a/b", ".hidden"} {
		assert.Error(t, s.Write(key, []byte("x")), key)
		_, err := s.Read(key)
		assert.Error(t, err, key)
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := New(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Write("auth", []byte(fmt.Sprintf(`{"n":%d}`, i))))
		}(i)
	}
	wg.Wait()

	b, err := s.Read("auth")
	require.NoError(t, err)
	assert.Regexp(t, `^\{"n":\d+\}$`, string(b))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	_, err := m.Read("auth")
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("abc")
	require.NoError(t, m.Write("auth", data))
	data[0] = 'x'
	b, err := m.Read("auth")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b), "stored copy is independent")

	require.NoError(t, m.Delete("auth"))
	_, err = m.Read("auth")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ZeroValue(t *testing.T) {
	var m Memory
	_, err := m.Read("auth")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, m.Delete("auth"))

	require.NoError(t, m.Write("auth", []byte("abc")))
	b, err := m.Read("auth")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}
