package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

// Number of parsed artifacts kept in memory, enough for the whole suite and
// then some.
const storeCacheSize = 16

// Store loads artifacts from a directory of JSON files. An artifact named X
// is expected at <dir>/X.json. Parsed artifacts are cached.
type Store struct {
	dir   string
	cache *lru.Cache
}

// NewStore returns a Store reading artifacts from the given directory.
func NewStore(dir string) *Store {
	c, _ := lru.New(storeCacheSize) // Never errors for positive size.
	return &Store{dir: dir, cache: c}
}

// Artifact returns the named artifact, loading and parsing the file on first
// use.
func (s *Store) Artifact(name string) (*Artifact, error) {
	if v, ok := s.cache.Get(name); ok {
		return v.(*Artifact), nil
	}
	path := filepath.Join(s.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	a, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("artifact %s (%s): %w", name, path, err)
	}
	if a.Name == "" {
		a.Name = name
	}
	s.cache.Add(name, a)
	return a, nil
}
