// Package bottle tracks isolated logical sessions ("bottles"), each scoping
// one project's package-manager operations. A bottle's ID doubles as the
// execution pool key, so commands for the same bottle reuse one shell.
package bottle

import "time"

// Status values for a bottle.
const (
	StatusCreated = "created"
	StatusActive  = "active"
	StatusClosed  = "closed"
)

// Bottle records one session's configuration.
type Bottle struct {
	ID         string    `json:"id"`
	ProjectDir string    `json:"project_dir"`
	Manager    string    `json:"manager"` // detected or explicitly chosen
	CacheDir   string    `json:"cache_dir"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}
