// Package volume maps each package manager to a dedicated, addressable cache
// directory: creating and mounting it, reporting usage statistics, and
// emitting the environment variables the manager needs to honor the
// redirected cache. Isolation is cache-directory redirection only; the
// underlying managers keep their own cache locking.
package volume

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
)

// Options configures a Controller. Explicit knobs exist so tests and
// non-interactive callers get deterministic, side-effect-free behavior:
// an explicit manager list bypasses detection entirely, SkipDetection mounts
// nothing automatically, and ProjectDir pins the directory scanned.
type Options struct {
	BaseDir       string   // cache root; required
	Managers      []string // explicit managers to mount, bypassing detection
	SkipDetection bool     // mount nothing automatically
	ProjectDir    string   // directory scanned for manager markers
}

// Controller owns the cache root and the set of Mounts under it.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	mounts map[string]*Mount
	logger *slog.Logger
}

// NewController creates an uninitialized Controller. Call Initialize before
// mounting.
func NewController(opts Options) *Controller {
	return &Controller{
		opts:   opts,
		mounts: make(map[string]*Mount),
		logger: slog.Default().With("component", "volume"),
	}
}

// Initialize creates the base cache root and seeds Mounts: from the explicit
// manager list when given, otherwise from marker-file detection in the
// project directory (file existence only, no content inspection), or nothing
// when detection is skipped.
func (c *Controller) Initialize() error {
	if c.opts.BaseDir == "" {
		return fault.New(fault.CodeInitFailed, "cache base directory not configured")
	}
	if err := os.MkdirAll(c.opts.BaseDir, 0o755); err != nil {
		return fault.Wrap(fault.CodeInitFailed, err, "cannot create cache root %s", c.opts.BaseDir).
			WithSuggestion("check permissions on the parent directory")
	}

	managers := c.opts.Managers
	if len(managers) == 0 && !c.opts.SkipDetection {
		managers = DetectManagers(c.opts.ProjectDir)
	}
	for _, name := range managers {
		if !IsKnownManager(name) {
			// A typo in an explicit manager list should degrade to a warning,
			// not block every other mount.
			c.logger.Warn("skipping unknown manager", "manager", name, "known", KnownManagers())
			continue
		}
		if _, err := c.Mount(name, ""); err != nil {
			// One manager failing to mount must not take down the whole
			// controller.
			c.logger.Warn("mount failed during initialization", "manager", name, "error", err)
		}
	}
	return nil
}

// DetectManagers scans dir for manifest/lock markers and returns the
// managers they imply, sorted for stable iteration.
func DetectManagers(dir string) []string {
	if dir == "" {
		return nil
	}
	var found []string
	for name, spec := range managerCatalog {
		for _, marker := range spec.markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				found = append(found, name)
				break
			}
		}
	}
	// pyproject.toml is shared between pip-family tools; claim it for pip
	// only when no more specific Python manager matched.
	if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err == nil {
		if !contains(found, "uv") && !contains(found, "poetry") && !contains(found, "pip") {
			found = append(found, "pip")
		}
	}
	sort.Strings(found)
	return found
}

// Mount creates or updates the Mount for manager. The directory tree is
// created if missing, including manager-specific cache subdirectories, and
// validated for accessibility. Mounting an already-mounted manager with a
// different path updates the existing Mount rather than duplicating it.
func (c *Controller) Mount(manager, cachePath string) (*Mount, error) {
	spec, ok := managerCatalog[manager]
	if !ok {
		return nil, fault.New(fault.CodeMountFailed, "unknown package manager %q", manager).
			WithSuggestion(fmt.Sprintf("known managers: %v", KnownManagers()))
	}
	if cachePath == "" {
		cachePath = filepath.Join(c.opts.BaseDir, manager)
	}
	abs, err := filepath.Abs(cachePath)
	if err == nil {
		cachePath = abs
	}

	if err := os.MkdirAll(cachePath, 0o755); err != nil {
		return nil, fault.Wrap(fault.CodeMountFailed, err, "cannot create cache directory %s", cachePath).
			WithSuggestion("check permissions on the parent directory")
	}
	for _, sub := range spec.subdirs {
		if err := os.MkdirAll(filepath.Join(cachePath, sub), 0o755); err != nil {
			return nil, fault.Wrap(fault.CodeMountFailed, err, "cannot create cache subdirectory %s/%s", cachePath, sub)
		}
	}
	// Creation succeeding does not guarantee the directory is usable (mode
	// changes, read-only filesystems); probe with a real write.
	if err := probeWritable(cachePath); err != nil {
		return nil, fault.Wrap(fault.CodeMountInaccessible, err, "cache directory %s is not writable", cachePath).
			WithSuggestion("check mount options and directory ownership")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if m, ok := c.mounts[manager]; ok {
		m.Path = cachePath
		m.Active = true
		m.LastAccessed = now
		return m, nil
	}
	m := &Mount{
		Manager:      manager,
		Path:         cachePath,
		MountPath:    path.Join("/bottle/cache", manager),
		Active:       true,
		CreatedAt:    now,
		LastAccessed: now,
	}
	c.mounts[manager] = m
	c.writeMarker(spec, m)
	return m, nil
}

// Unmount deactivates the Mount (the record and the cache directory are
// kept) and writes a small diagnostic marker, best-effort.
func (c *Controller) Unmount(manager string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mounts[manager]
	if !ok {
		return fault.New(fault.CodeMountFailed, "no mount for manager %q", manager)
	}
	m.Active = false
	marker := unmountMarker{
		Manager:     manager,
		UnmountedAt: time.Now(),
		MountedFor:  time.Since(m.CreatedAt).Round(time.Second).String(),
	}
	if data, err := json.MarshalIndent(marker, "", "  "); err == nil {
		if err := os.WriteFile(filepath.Join(m.Path, unmountFileName), data, 0o644); err != nil {
			c.logger.Warn("could not write unmount marker", "manager", manager, "error", err)
		}
	}
	return nil
}

// Clear empties one manager's cache directory, or every mounted one when
// manager is empty. The directory itself is preserved (removed and
// recreated, subdirectories re-seeded).
func (c *Controller) Clear(manager string) error {
	c.mu.Lock()
	targets := make([]*Mount, 0, len(c.mounts))
	if manager == "" {
		for _, m := range c.mounts {
			targets = append(targets, m)
		}
	} else {
		m, ok := c.mounts[manager]
		if !ok {
			c.mu.Unlock()
			return fault.New(fault.CodeMountFailed, "no mount for manager %q", manager)
		}
		targets = append(targets, m)
	}
	c.mu.Unlock()

	for _, m := range targets {
		if err := os.RemoveAll(m.Path); err != nil {
			return fault.Wrap(fault.CodeMountFailed, err, "cannot clear cache for %s", m.Manager)
		}
		spec := managerCatalog[m.Manager]
		if err := os.MkdirAll(m.Path, 0o755); err != nil {
			return fault.Wrap(fault.CodeMountFailed, err, "cannot recreate cache for %s", m.Manager)
		}
		for _, sub := range spec.subdirs {
			if err := os.MkdirAll(filepath.Join(m.Path, sub), 0o755); err != nil {
				return fault.Wrap(fault.CodeMountFailed, err, "cannot recreate cache subdirectory for %s", m.Manager)
			}
		}
	}
	return nil
}

// GetMount returns the Mount for manager, or nil.
func (c *Controller) GetMount(manager string) *Mount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.mounts[manager]; ok {
		m.LastAccessed = time.Now()
		snapshot := *m
		return &snapshot
	}
	return nil
}

// AllMounts returns a snapshot of every Mount, active or not, sorted by
// manager name.
func (c *Controller) AllMounts() []Mount {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Mount, 0, len(c.mounts))
	for _, m := range c.mounts {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manager < out[j].Manager })
	return out
}

// MountEnvVars returns the flat map of environment variables that point
// every active Mount's package manager at its redirected cache. Inactive
// Mounts contribute nothing.
func (c *Controller) MountEnvVars() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	env := make(map[string]string)
	for name, m := range c.mounts {
		if !m.Active {
			continue
		}
		spec := managerCatalog[name]
		for k, v := range spec.envVars(m.Path) {
			env[k] = v
		}
	}
	return env
}

func (c *Controller) writeMarker(spec managerSpec, m *Mount) {
	strategy := "detected"
	if len(c.opts.Managers) > 0 {
		strategy = "explicit"
	}
	marker := markerFile{
		Manager:         m.Manager,
		SystemCachePath: systemCachePath(spec),
		CreatedAt:       m.CreatedAt,
		Strategy:        strategy,
	}
	markerPath := filepath.Join(m.Path, markerFileName)
	if _, err := os.Stat(markerPath); err == nil {
		return // first-initialization provenance only
	}
	if data, err := json.MarshalIndent(marker, "", "  "); err == nil {
		if err := os.WriteFile(markerPath, data, 0o644); err != nil {
			c.logger.Warn("could not write cache marker", "manager", m.Manager, "error", err)
		}
	}
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".bottle-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
