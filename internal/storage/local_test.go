package storage

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/pkg/security"
)

func TestLocalStoreSaveLoad(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	data := []byte("%PDF-1.4 test report")
	stored, path, err := store.Save("report.pdf", data)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, "_report.pdf"))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	require.NoError(t, store.Delete(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreEncryptsAtRest(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	encryptor, err := security.NewAESEncryptor(key)
	require.NoError(t, err)

	store, err := NewLocalStore(t.TempDir(), encryptor)
	require.NoError(t, err)

	data := []byte("sensitive report contents")
	_, path, err := store.Save("report.pdf", data)
	require.NoError(t, err)

	// What is on disk must not be the plaintext.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, data, raw)

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestLocalStoreSanitizesFilenames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	stored, path, err := store.Save("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.NotContains(t, stored, "/")
	assert.NotContains(t, stored, "..")
	assert.Equal(t, filepath.Dir(path), filepath.Clean(filepath.Dir(path)))

	stored, _, err = store.Save("my report (final).pdf", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, "my_report__final_.pdf"))
}
