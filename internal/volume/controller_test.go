package volume

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bottlehq/bottle/internal/fault"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(Options{
		BaseDir:       t.TempDir(),
		SkipDetection: true,
	})
	require.NoError(t, c.Initialize())
	return c
}

func TestMountCreatesDirectoryTree(t *testing.T) {
	c := newTestController(t)

	m, err := c.Mount("pip", "")
	require.NoError(t, err)
	assert.True(t, m.Active)
	assert.Equal(t, "/bottle/cache/pip", m.MountPath)

	// Manager-specific subdirectories are pre-created.
	assert.DirExists(t, filepath.Join(m.Path, "wheels"))
	assert.DirExists(t, filepath.Join(m.Path, "http"))
	// Provenance marker records first initialization.
	assert.FileExists(t, filepath.Join(m.Path, ".bottle-cache.json"))
}

func TestMountIdempotence(t *testing.T) {
	c := newTestController(t)

	first, err := c.Mount("pip", "")
	require.NoError(t, err)
	second, err := c.Mount("pip", "")
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Len(t, c.AllMounts(), 1, "remounting must update, never duplicate")
}

func TestMountWithNewPathUpdatesExisting(t *testing.T) {
	c := newTestController(t)

	_, err := c.Mount("pip", "")
	require.NoError(t, err)

	other := t.TempDir()
	m, err := c.Mount("pip", other)
	require.NoError(t, err)
	assert.Equal(t, other, m.Path)
	assert.Len(t, c.AllMounts(), 1)
}

func TestMountUnknownManager(t *testing.T) {
	c := newTestController(t)

	_, err := c.Mount("homebrew", "")
	require.Error(t, err)
	assert.Equal(t, fault.CodeMountFailed, fault.CodeOf(err))
	var fe *fault.Error
	require.True(t, errors.As(err, &fe))
	assert.NotEmpty(t, fe.Suggestion)
}

func TestUnmountDeactivatesAndWritesMarker(t *testing.T) {
	c := newTestController(t)

	m, err := c.Mount("uv", "")
	require.NoError(t, err)
	require.NoError(t, c.Unmount("uv"))

	mounts := c.AllMounts()
	require.Len(t, mounts, 1, "unmount deactivates, it does not delete")
	assert.False(t, mounts[0].Active)
	assert.FileExists(t, filepath.Join(m.Path, ".bottle-unmount.json"))
}

func TestMountEnvVars(t *testing.T) {
	c := newTestController(t)

	pip, err := c.Mount("pip", "")
	require.NoError(t, err)
	uv, err := c.Mount("uv", "")
	require.NoError(t, err)

	env := c.MountEnvVars()
	assert.Equal(t, pip.Path, env["PIP_CACHE_DIR"])
	assert.Equal(t, uv.Path, env["UV_CACHE_DIR"])
	// uv needs more than one variable to honor a redirected cache.
	assert.Equal(t, filepath.Join(uv.Path, "venv"), env["UV_PROJECT_ENVIRONMENT"])
	assert.Equal(t, "only-system", env["UV_PYTHON_PREFERENCE"])

	// Inactive mounts contribute nothing.
	require.NoError(t, c.Unmount("pip"))
	env = c.MountEnvVars()
	assert.NotContains(t, env, "PIP_CACHE_DIR")
	assert.Contains(t, env, "UV_CACHE_DIR")
}

func TestClearEmptiesButPreservesDirectory(t *testing.T) {
	c := newTestController(t)

	m, err := c.Mount("npm", "")
	require.NoError(t, err)
	junk := filepath.Join(m.Path, "_cacache", "junk.bin")
	require.NoError(t, os.WriteFile(junk, []byte("data"), 0o644))

	require.NoError(t, c.Clear("npm"))

	assert.NoFileExists(t, junk)
	assert.DirExists(t, m.Path)
	assert.DirExists(t, filepath.Join(m.Path, "_cacache"), "subdirectories are re-seeded")
}

func TestClearUnmountedManager(t *testing.T) {
	c := newTestController(t)
	require.Error(t, c.Clear("pip"))
}

func TestGetStats(t *testing.T) {
	c := newTestController(t)

	m, err := c.Mount("pip", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, "wheels", "a.whl"), make([]byte, 1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, "wheels", "b.whl"), make([]byte, 2048), 0o644))

	stats, err := c.GetStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, "pip", s.Manager)
	assert.GreaterOrEqual(t, s.SizeBytes, int64(3072))
	// Two files, two subdirs, one marker file at minimum.
	assert.GreaterOrEqual(t, s.ItemCount, 5)
	assert.False(t, s.LastModified.IsZero())
}

func TestGetStatsSkipsInactiveMounts(t *testing.T) {
	c := newTestController(t)

	_, err := c.Mount("pip", "")
	require.NoError(t, err)
	require.NoError(t, c.Unmount("pip"))

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestDetectManagers(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	assert.Empty(t, DetectManagers(dir))

	touch("requirements.txt")
	assert.Equal(t, []string{"pip"}, DetectManagers(dir))

	touch("uv.lock")
	assert.Equal(t, []string{"pip", "uv"}, DetectManagers(dir))

	touch("package.json")
	assert.Equal(t, []string{"npm", "pip", "uv"}, DetectManagers(dir))
}

func TestDetectManagersPyprojectFallsToPip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), nil, 0o644))
	assert.Equal(t, []string{"pip"}, DetectManagers(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "uv.lock"), nil, 0o644))
	assert.Equal(t, []string{"uv"}, DetectManagers(dir), "a uv lock claims the shared manifest")
}

func TestInitializeWithExplicitManagers(t *testing.T) {
	c := NewController(Options{
		BaseDir:  t.TempDir(),
		Managers: []string{"pip", "npm"},
	})
	require.NoError(t, c.Initialize())

	mounts := c.AllMounts()
	require.Len(t, mounts, 2)
	assert.Equal(t, "npm", mounts[0].Manager)
	assert.Equal(t, "pip", mounts[1].Manager)
}

func TestInitializeSkipsUnknownManagers(t *testing.T) {
	c := NewController(Options{
		BaseDir:  t.TempDir(),
		Managers: []string{"pip", "homebrew"},
	})
	require.NoError(t, c.Initialize(), "a typo in the manager list must not fail initialization")

	mounts := c.AllMounts()
	require.Len(t, mounts, 1)
	assert.Equal(t, "pip", mounts[0].Manager)
}

func TestInitializeRequiresBaseDir(t *testing.T) {
	c := NewController(Options{})
	err := c.Initialize()
	require.Error(t, err)
	assert.Equal(t, fault.CodeInitFailed, fault.CodeOf(err))
}
