package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bottlehq/bottle/internal/adapter"
	"github.com/bottlehq/bottle/internal/config"
	"github.com/bottlehq/bottle/internal/execshell"
	"github.com/bottlehq/bottle/internal/project"
	"github.com/bottlehq/bottle/internal/volume"
)

// runContext bundles the collaborators a subcommand needs: the configured
// volume controller, a pooled engine keyed by project directory, and the
// adapter dependencies assembled from both.
type runContext struct {
	cfg     *config.Config
	volumes *volume.Controller
	poolKey string
	deps    adapter.Deps
}

// newRunContext wires the execution engine, volume controller, and adapter
// deps for a project directory. Pass "" to use the working directory.
func newRunContext(projectDir string) (*runContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	projectDir = project.FindRoot(projectDir)

	volumes := volume.NewController(volume.Options{
		BaseDir:       cfg.CacheRoot,
		Managers:      cfg.Managers,
		SkipDetection: cfg.SkipDetection,
		ProjectDir:    projectDir,
	})
	if err := volumes.Initialize(); err != nil {
		return nil, err
	}

	adapter.ApplyTimeoutMultiplier(cfg.TimeoutMultiplier)
	execshell.Shared().SetMax(cfg.PoolSize)

	envMode := execshell.EnvStandard
	if cfg.EnvMode == "clean" {
		envMode = execshell.EnvClean
	}
	poolKey := projectDir
	engine, err := execshell.Shared().Acquire(poolKey, execshell.Options{
		EnvMode:        envMode,
		ExtraPaths:     cfg.ExtraPaths,
		WorkDir:        projectDir,
		DefaultTimeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	return &runContext{
		cfg:     cfg,
		volumes: volumes,
		poolKey: poolKey,
		deps: adapter.Deps{
			Engine:     engine,
			Volumes:    volumes,
			ProjectDir: projectDir,
		},
	}, nil
}

// close releases the pooled engine for reuse.
func (rc *runContext) close() {
	execshell.Shared().Release(rc.poolKey)
}

// resolveAdapter picks the adapter: the explicit --manager flag if given,
// otherwise the highest-confidence detection for the project directory.
func (rc *runContext) resolveAdapter(manager string) (adapter.Adapter, error) {
	if manager != "" {
		return adapter.Lookup(manager, rc.deps)
	}
	ranked := adapter.DetectAll(rc.deps.ProjectDir, rc.deps)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no package manager detected in %s (try --manager)", rc.deps.ProjectDir)
	}
	Debug("detected %s (confidence %.2f)", ranked[0].Name, ranked[0].Detection.Confidence)
	return adapter.Lookup(ranked[0].Name, rc.deps)
}
