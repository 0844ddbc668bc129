package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainPrefersFirstSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SESSION_SECRET_KEY"), []byte("from-file\n"), 0o600))
	t.Setenv("SESSION_SECRET_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	src := Chain{DirSource{Dir: dir}, EnvSource{}}
	values, err := Require(context.Background(), src, "SESSION_SECRET_KEY", "OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-file", values["SESSION_SECRET_KEY"])
	assert.Equal(t, "sk-env", values["OPENAI_API_KEY"])
}

func TestRequireReportsAllMissing(t *testing.T) {
	t.Setenv("RAGCHAT_TEST_A", "")
	t.Setenv("RAGCHAT_TEST_B", "")

	_, err := Require(context.Background(), EnvSource{}, "RAGCHAT_TEST_A", "RAGCHAT_TEST_B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAGCHAT_TEST_A")
	assert.Contains(t, err.Error(), "RAGCHAT_TEST_B")
}

func TestDirSourceRejectsPaths(t *testing.T) {
	_, _, err := DirSource{Dir: t.TempDir()}.Get(context.Background(), "../etc/passwd")
	require.Error(t, err)
}
