package screenshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestStore_SaveAndList(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	execID := NewExecutionID()
	path, err := store.Save(execID, "initial state", pngBytes)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), "initial_state_")
	assert.True(t, filepath.Ext(path) == ".png")

	_, err = store.Save(execID, "final", pngBytes)
	require.NoError(t, err)

	infos, err := store.List(execID)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, int64(len(pngBytes)), infos[0].Size)
}

func TestStore_ListUnknownExecution(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	infos, err := store.List("never-ran")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStore_Resolve(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	execID := "exec-1"
	path, err := store.Save(execID, "step", pngBytes)
	require.NoError(t, err)

	resolved, err := store.Resolve(execID, filepath.Base(path))
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = store.Resolve(execID, "missing.png")
	assert.Error(t, err)

	_, err = store.Resolve("..", "passwd")
	assert.Error(t, err)
	_, err = store.Resolve(execID, "../../etc/passwd")
	assert.Error(t, err)
}

func TestStore_SaveMetadataAndCleanup(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base, nil)
	require.NoError(t, err)

	execID := "exec-2"
	_, err = store.Save(execID, "step", pngBytes)
	require.NoError(t, err)

	err = store.SaveMetadata(execID, map[string]interface{}{"suite": "demo", "total": 3})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(base, execID, "metadata.json"))

	// metadata.json must not show up as a screenshot.
	infos, err := store.List(execID)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	require.NoError(t, store.Cleanup(execID))
	_, err = os.Stat(filepath.Join(base, execID))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, store.Cleanup("../outside"))
}

func TestSanitizeStepName(t *testing.T) {
	assert.Equal(t, "login_page_check", sanitizeStepName("login page/check"))
	assert.Equal(t, "screenshot", sanitizeStepName(""))
}
