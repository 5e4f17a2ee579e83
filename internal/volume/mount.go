package volume

import "time"

// Mount is one package manager's cache binding: the local directory that
// backs it, the bottle-relative label it is addressed by, and lifecycle
// timestamps. At most one Mount exists per manager; remounting updates the
// existing record in place.
type Mount struct {
	Manager      string    `json:"manager"`
	Path         string    `json:"path"`       // absolute local cache path
	MountPath    string    `json:"mount_path"` // bottle-relative label, e.g. /bottle/cache/pip
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Stats is a derived, read-only aggregation over a Mount's directory tree.
// It is computed on demand and never cached across calls.
type Stats struct {
	Manager      string    `json:"manager"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	ItemCount    int       `json:"item_count"` // files + directories
	LastModified time.Time `json:"last_modified"`
}

// markerFile records first-initialization provenance inside each cache
// directory.
type markerFile struct {
	Manager         string    `json:"manager"`
	SystemCachePath string    `json:"system_cache_path"`
	CreatedAt       time.Time `json:"created_at"`
	Strategy        string    `json:"strategy"` // "detected" or "explicit"
}

// unmountMarker is the small diagnostic record written on unmount.
type unmountMarker struct {
	Manager     string    `json:"manager"`
	UnmountedAt time.Time `json:"unmounted_at"`
	MountedFor  string    `json:"mounted_for"` // human-readable duration
}

const (
	markerFileName  = ".bottle-cache.json"
	unmountFileName = ".bottle-unmount.json"
)
