package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bottlehq/bottle/internal/execshell"
	"github.com/bottlehq/bottle/internal/fault"
)

const samplePackageJSON = `{
  "name": "webapp",
  "version": "1.2.0",
  "description": "demo",
  "license": "MIT",
  "author": {"name": "Dana", "email": "dana@example.com"},
  "dependencies": {"express": "^4.18.0", "lodash": "^4.17.0"},
  "devDependencies": {"vitest": "^1.0.0"},
  "optionalDependencies": {"fsevents": "^2.3.0"}
}`

const samplePackageLockJSON = `{
  "name": "webapp",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "webapp", "version": "1.2.0"},
    "node_modules/express": {"version": "4.18.2"},
    "node_modules/lodash": {"version": "4.17.21"},
    "node_modules/accepts": {"version": "1.3.8"}
  }
}`

func newNPM(t *testing.T, engine Executor, dir string) Adapter {
	t.Helper()
	a, err := Lookup("npm", testDeps(t, engine, dir))
	require.NoError(t, err)
	return a
}

func TestNPMDetection(t *testing.T) {
	dir := t.TempDir()
	npm := newNPM(t, &fakeEngine{}, dir)

	writeFile(t, dir, "package.json", samplePackageJSON)
	bare, err := npm.DetectProject(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, bare.Confidence, 0.01)

	writeFile(t, dir, "package-lock.json", samplePackageLockJSON)
	locked, err := npm.DetectProject(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, locked.Confidence, 0.95)
}

func TestNPMDetectionPenalizesForeignLocks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", samplePackageJSON)
	writeFile(t, dir, "pnpm-lock.yaml", "lockfileVersion: '9.0'\n")
	npm := newNPM(t, &fakeEngine{}, dir)

	det, err := npm.DetectProject(dir)
	require.NoError(t, err)
	assert.Less(t, det.Confidence, 0.5)
}

func TestNPMParseManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", samplePackageJSON)
	npm := newNPM(t, &fakeEngine{}, dir)

	res, err := npm.ParseManifest(dir)
	require.NoError(t, err)
	require.True(t, res.Found)

	m := res.Manifest
	assert.Equal(t, "webapp", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, "MIT", m.License)
	assert.Equal(t, "Dana", m.Author, "object authors collapse to the name")
	assert.Equal(t, "^4.18.0", m.Dependencies["express"])
	assert.Equal(t, "^1.0.0", m.DevDependencies["vitest"])
	assert.Equal(t, "^2.3.0", m.OptionalDeps["fsevents"])
}

func TestNPMParseManifestAppliesLockPins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", samplePackageJSON)
	writeFile(t, dir, "package-lock.json", samplePackageLockJSON)
	npm := newNPM(t, &fakeEngine{}, dir)

	res, err := npm.ParseManifest(dir)
	require.NoError(t, err)
	m := res.Manifest
	assert.Equal(t, "4.18.2", m.Dependencies["express"], "npm pins carry no operator prefix")
	assert.Equal(t, "4.17.21", m.Dependencies["lodash"])
	assert.NotContains(t, m.Dependencies, "accepts")
	assert.Equal(t, true, m.Metadata["has_lock_file"])
}

func TestNPMParseManifestMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", "{not json")
	npm := newNPM(t, &fakeEngine{}, dir)

	_, err := npm.ParseManifest(dir)
	require.Error(t, err)
	assert.Equal(t, fault.CodeParseFailed, fault.CodeOf(err))
}

func TestNPMInstallCommand(t *testing.T) {
	engine := &fakeEngine{}
	npm := newNPM(t, engine, t.TempDir())

	_, err := npm.InstallPackages([]string{"express@4"}, InstallOptions{Dev: true})
	require.NoError(t, err)
	assert.Equal(t, "npm install --no-fund --no-audit --save-dev 'express@4'", engine.commands[0])
}

func TestNPMUninstallCommand(t *testing.T) {
	engine := &fakeEngine{}
	npm := newNPM(t, engine, t.TempDir())

	_, err := npm.UninstallPackages([]string{"lodash"}, InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "npm uninstall 'lodash'", engine.commands[0])
}

func TestNPMInstalledPackages(t *testing.T) {
	engine := &fakeEngine{results: []execshell.Result{{
		Stdout: `{"name": "webapp", "dependencies": {"express": {"version": "4.18.2"}}}`,
	}}}
	npm := newNPM(t, engine, t.TempDir())

	list, err := npm.InstalledPackages(t.TempDir())
	require.NoError(t, err)
	require.Len(t, list.Packages, 1)
	assert.Equal(t, Package{Name: "express", Version: "4.18.2"}, list.Packages[0])
}

func TestNPMInstalledPackagesEmptyTree(t *testing.T) {
	engine := &fakeEngine{results: []execshell.Result{{Stdout: `{"name": "webapp"}`}}}
	npm := newNPM(t, engine, t.TempDir())

	list, err := npm.InstalledPackages(t.TempDir())
	require.NoError(t, err)
	assert.True(t, list.Empty)
}
