package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePyproject = `
[project]
name = "acme"
version = "0.4.2"
description = "Example service"
requires-python = ">=3.9"
license = { text = "MIT" }
authors = [{ name = "Ada Lovelace", email = "ada@example.com" }]
dependencies = [
    "requests>=2.28",
    "flask==3.0.0",
]

[project.optional-dependencies]
postgres = ["psycopg2-binary>=2.9"]

[dependency-groups]
dev = ["pytest>=8.0", "ruff"]

[build-system]
requires = ["hatchling"]
build-backend = "hatchling.build"

[tool.uv]
dev-dependencies = []

[tool.uv.workspace]
members = ["packages/*"]
`

func TestParsePyproject(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", samplePyproject)

	m, err := ParsePyproject(path)
	require.NoError(t, err)

	assert.Equal(t, "acme", m.Name)
	assert.Equal(t, "0.4.2", m.Version)
	assert.Equal(t, ">=3.9", m.RequiresPython)
	assert.Equal(t, "MIT", m.License)
	assert.Equal(t, "Ada Lovelace", m.Author)

	assert.Equal(t, ">=2.28", m.Dependencies["requests"])
	assert.Equal(t, "==3.0.0", m.Dependencies["flask"])
	assert.Equal(t, ">=2.9", m.OptionalDeps["psycopg2-binary"])
	assert.Equal(t, ">=8.0", m.DevDependencies["pytest"])
	assert.Equal(t, "", m.DevDependencies["ruff"])

	assert.Equal(t, true, m.Metadata["tool.uv"])
	assert.Equal(t, true, m.Metadata["is_workspace_root"])
	assert.Equal(t, "hatchling.build", m.Metadata["build_backend"])
}

func TestParsePyprojectPoetryTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", `
[tool.poetry]
name = "legacy"
version = "1.0.0"

[tool.poetry.dependencies]
python = "^3.10"
requests = "^2.28"
orm = { version = ">=0.3", optional = true }

[tool.poetry.group.dev.dependencies]
pytest = "^8.0"
`)

	m, err := ParsePyproject(path)
	require.NoError(t, err)

	assert.Equal(t, "legacy", m.Name)
	assert.Equal(t, "^3.10", m.RequiresPython)
	assert.Equal(t, "^2.28", m.Dependencies["requests"])
	assert.Equal(t, ">=0.3", m.Dependencies["orm"])
	assert.Equal(t, "^8.0", m.DevDependencies["pytest"])
	assert.NotContains(t, m.Dependencies, "python")
	assert.Equal(t, true, m.Metadata["tool.poetry"])
}

func TestParsePyprojectMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", "[project\nname = broken")

	_, err := ParsePyproject(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse_failed")
}

func TestManifestMergeAndLock(t *testing.T) {
	base := New()
	base.Name = "acme"
	base.Dependencies["requests"] = ">=2.28"
	base.DevDependencies["pytest"] = ">=8.0"

	overlay := New()
	overlay.Version = "2.0.0"
	overlay.Dependencies["flask"] = "==3.0.0"
	base.Merge(overlay)

	assert.Equal(t, "acme", base.Name)
	assert.Equal(t, "2.0.0", base.Version)
	assert.Equal(t, "==3.0.0", base.Dependencies["flask"])

	base.ApplyLock(map[string]string{"requests": "2.31.0", "pytest": "8.1.1", "certifi": "2024.2.2"})
	assert.Equal(t, "==2.31.0", base.Dependencies["requests"], "lock pins override range constraints")
	assert.Equal(t, "==8.1.1", base.DevDependencies["pytest"])
	assert.NotContains(t, base.Dependencies, "certifi", "transitive lock entries stay out of the model")
	assert.Equal(t, true, base.Metadata["has_lock_file"])
}
