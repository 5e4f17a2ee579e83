package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bottlehq/bottle/internal/execshell"
)

const poetryPyproject = `[tool.poetry]
name = "acme"
version = "0.1.0"

[tool.poetry.dependencies]
python = "^3.11"
requests = "^2.28"
click = "*"

[tool.poetry.group.dev.dependencies]
pytest = "^7.0"
`

const poetryLockSample = `[[package]]
name = "requests"
version = "2.31.0"

[[package]]
name = "click"
version = "8.1.7"

[[package]]
name = "pytest"
version = "7.4.4"

[[package]]
name = "certifi"
version = "2024.2.2"
`

func newPoetry(t *testing.T, engine Executor, dir string) Adapter {
	t.Helper()
	a, err := Lookup("poetry", testDeps(t, engine, dir))
	require.NoError(t, err)
	return a
}

func TestPoetryDetectionConfidenceLadder(t *testing.T) {
	dir := t.TempDir()
	poetry := newPoetry(t, &fakeEngine{}, dir)

	det, err := poetry.DetectProject(dir)
	require.NoError(t, err)
	assert.Zero(t, det.Confidence, "empty directory must score zero")

	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"acme\"\n")
	bare, err := poetry.DetectProject(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, bare.Confidence, 0.01, "a bare pyproject is an ambiguous claim")

	writeFile(t, dir, "pyproject.toml", poetryPyproject)
	configured, err := poetry.DetectProject(dir)
	require.NoError(t, err)
	assert.Greater(t, configured.Confidence, bare.Confidence, "a [tool.poetry] table strengthens the claim")

	writeFile(t, dir, "poetry.lock", poetryLockSample)
	locked, err := poetry.DetectProject(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, locked.Confidence, 0.95, "a lock file is near-certain ownership")
	assert.Len(t, locked.LockFiles, 1)
}

func TestPoetryDetectionPenalizesUV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"acme\"\n")
	writeFile(t, dir, "uv.lock", "version = 1\n")
	poetry := newPoetry(t, &fakeEngine{}, dir)

	det, err := poetry.DetectProject(dir)
	require.NoError(t, err)
	assert.Less(t, det.Confidence, 0.5, "a competing lock must lower the score")
}

func TestPoetryParseManifestAppliesLockPins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", poetryPyproject)
	writeFile(t, dir, "poetry.lock", poetryLockSample)
	poetry := newPoetry(t, &fakeEngine{}, dir)

	res, err := poetry.ParseManifest(dir)
	require.NoError(t, err)
	require.True(t, res.Found)

	m := res.Manifest
	assert.Equal(t, "acme", m.Name)
	assert.Equal(t, "^3.11", m.RequiresPython)
	assert.Equal(t, "==2.31.0", m.Dependencies["requests"], "lock pins override caret constraints")
	assert.Equal(t, "==8.1.7", m.Dependencies["click"])
	assert.Equal(t, "==7.4.4", m.DevDependencies["pytest"])
	assert.NotContains(t, m.Dependencies, "certifi", "transitive lock entries stay out of the model")
	assert.Equal(t, true, m.Metadata["has_lock_file"])
}

func TestPoetryParseManifestWithoutFiles(t *testing.T) {
	poetry := newPoetry(t, &fakeEngine{}, t.TempDir())
	res, err := poetry.ParseManifest(t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestPoetryInstallCommand(t *testing.T) {
	engine := &fakeEngine{}
	poetry := newPoetry(t, engine, t.TempDir())

	_, err := poetry.InstallPackages([]string{"requests", "rich"}, InstallOptions{Dev: true})
	require.NoError(t, err)
	require.Len(t, engine.commands, 1)
	assert.Equal(t, "poetry add --group dev 'requests' 'rich'", engine.commands[0])
	assert.Equal(t, Timeout(TierStandard), engine.timeouts[0])
}

func TestPoetryUpgradeUsesUpdate(t *testing.T) {
	engine := &fakeEngine{}
	poetry := newPoetry(t, engine, t.TempDir())

	_, err := poetry.InstallPackages([]string{"requests"}, InstallOptions{Upgrade: true})
	require.NoError(t, err)
	assert.Equal(t, "poetry update 'requests'", engine.commands[0])
}

func TestPoetryUninstallCommand(t *testing.T) {
	engine := &fakeEngine{}
	poetry := newPoetry(t, engine, t.TempDir())

	_, err := poetry.UninstallPackages([]string{"requests"}, InstallOptions{Dev: true})
	require.NoError(t, err)
	assert.Equal(t, "poetry remove --group dev 'requests'", engine.commands[0])
}

func TestPoetryInstalledPackages(t *testing.T) {
	engine := &fakeEngine{results: []execshell.Result{{
		Stdout:   "[{\"name\": \"flask\", \"version\": \"3.0.0\"}]\n",
		ExitCode: 0,
	}}}
	poetry := newPoetry(t, engine, t.TempDir())

	list, err := poetry.InstalledPackages(t.TempDir())
	require.NoError(t, err)
	require.Len(t, list.Packages, 1)
	assert.Equal(t, Package{Name: "flask", Version: "3.0.0"}, list.Packages[0])
	assert.Contains(t, engine.commands[0], "poetry run pip list --format=json")
}
