package bottle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
)

// Store manages bottle persistence at ~/.bottle/bottles/
type Store struct {
	dir string
}

// NewStore creates a new bottle store.
func NewStore() (*Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".bottle", "bottles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bottles directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// NewStoreAt creates a store rooted at an explicit directory, for tests.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bottles directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create registers a new bottle for a project directory.
func (s *Store) Create(projectDir, manager, cacheDir string) (*Bottle, error) {
	now := time.Now()
	b := &Bottle{
		ID:         uuid.NewString(),
		ProjectDir: projectDir,
		Manager:    manager,
		CacheDir:   cacheDir,
		Status:     StatusCreated,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.Save(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Save persists a bottle to disk.
func (s *Store) Save(b *Bottle) error {
	path := filepath.Join(s.dir, b.ID+".json")

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bottle: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bottle file: %w", err)
	}

	return nil
}

// Load reads a bottle from disk by ID.
func (s *Store) Load(id string) (*Bottle, error) {
	path := filepath.Join(s.dir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("bottle not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read bottle file: %w", err)
	}

	var b Bottle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bottle: %w", err)
	}

	return &b, nil
}

// List returns all saved bottles.
func (s *Store) List() ([]*Bottle, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Bottle{}, nil
		}
		return nil, fmt.Errorf("failed to read bottles directory: %w", err)
	}

	var bottles []*Bottle
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := entry.Name()[:len(entry.Name())-5]
		b, err := s.Load(id)
		if err != nil {
			continue // Skip invalid bottles
		}
		bottles = append(bottles, b)
	}

	return bottles, nil
}

// Delete removes a bottle file.
func (s *Store) Delete(id string) error {
	path := filepath.Join(s.dir, id+".json")

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete bottle file: %w", err)
	}

	return nil
}

// Dir returns the bottle storage directory.
func (s *Store) Dir() string {
	return s.dir
}
