package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// GetStats walks every active Mount's directory tree and returns per-manager
// usage statistics, computed fresh on every call. Mounts are walked
// concurrently; inaccessible subpaths are skipped with a warning, never
// aborting the whole walk.
func (c *Controller) GetStats() ([]Stats, error) {
	mounts := c.AllMounts()

	var (
		mu  sync.Mutex
		out []Stats
	)
	var g errgroup.Group
	g.SetLimit(4)
	for _, m := range mounts {
		if !m.Active {
			continue
		}
		m := m
		g.Go(func() error {
			s := c.walkMount(m)
			mu.Lock()
			out = append(out, s)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // walk errors are swallowed per-path, never returned

	// Deterministic order for callers that print.
	sortStats(out)
	return out, nil
}

func (c *Controller) walkMount(m Mount) Stats {
	s := Stats{Manager: m.Manager, Path: m.Path}
	err := filepath.WalkDir(m.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("skipping inaccessible path in stats walk", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == m.Path {
			return nil
		}
		s.ItemCount++
		info, err := d.Info()
		if err != nil {
			c.logger.Warn("skipping unreadable entry in stats walk", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			s.SizeBytes += info.Size()
		}
		if info.ModTime().After(s.LastModified) {
			s.LastModified = info.ModTime()
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("stats walk incomplete", "manager", m.Manager, "error", err)
	}
	return s
}

// HumanSize renders the byte total for display.
func (s Stats) HumanSize() string {
	return humanize.Bytes(uint64(s.SizeBytes))
}

func (s Stats) String() string {
	age := "never"
	if !s.LastModified.IsZero() {
		age = humanize.Time(s.LastModified)
	}
	return fmt.Sprintf("%s: %s in %d items (last modified %s)", s.Manager, s.HumanSize(), s.ItemCount, age)
}

func sortStats(stats []Stats) {
	sort.Slice(stats, func(i, j int) bool { return stats[i].Manager < stats[j].Manager })
}

// TotalSize sums a stats slice.
func TotalSize(stats []Stats) int64 {
	var total int64
	for _, s := range stats {
		total += s.SizeBytes
	}
	return total
}
