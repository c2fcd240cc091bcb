package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFile(t *testing.T) {
	f := TokenFile{Path: filepath.Join(t.TempDir(), "nested", "token")}

	tok, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, f.Save("abc"))
	info, err := os.Stat(f.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, f.Save(""))
	require.NoError(t, f.Remove())
	tok, err = f.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
