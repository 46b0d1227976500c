package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SafeWriteFile(path, []byte("first")))
	require.NoError(t, SafeWriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive")
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 1, CountTokens("abc"))
	assert.Equal(t, 25, CountTokens(string(make([]byte, 100))))
}

func TestTruncateToTokenLimit(t *testing.T) {
	s := "abcdefgh"
	assert.Equal(t, s, TruncateToTokenLimit(s, 100))
	got := TruncateToTokenLimit(s, 1)
	assert.Equal(t, "abcd", got)
}
