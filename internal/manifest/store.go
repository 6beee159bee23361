// File: internal/manifest/store.go
// Brief: Config-dir manifest store with source-URL records.

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	stacksDirName = "stacks"
	urlSuffix     = ".url"
)

// Store keeps one manifest file per stack under the user's configuration
// directory, with an optional <name>.yaml.url record alongside so the
// manifest can be re-fetched later.
type Store struct {
	Dir string
}

func NewStore(configDir string) *Store {
	return &Store{Dir: filepath.Join(configDir, stacksDirName)}
}

func (s *Store) ManifestPath(stack string) string {
	return filepath.Join(s.Dir, stack+".yaml")
}

func (s *Store) urlPath(stack string) string {
	return s.ManifestPath(stack) + urlSuffix
}

// Save writes the manifest bytes for the named stack, plus the source URL
// record when one is known. Directories are created as needed.
func (s *Store) Save(stack string, data []byte, sourceURL string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.Dir, err)
	}
	if err := os.WriteFile(s.ManifestPath(stack), data, 0o644); err != nil {
		return fmt.Errorf("write manifest for %s: %w", stack, err)
	}
	if strings.TrimSpace(sourceURL) != "" {
		if err := os.WriteFile(s.urlPath(stack), []byte(sourceURL+"\n"), 0o644); err != nil {
			return fmt.Errorf("write url record for %s: %w", stack, err)
		}
	}
	return nil
}

// Load parses the stored manifest for the named stack.
func (s *Store) Load(stack string) (*Manifest, error) {
	path := s.ManifestPath(stack)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "stack", Name: stack}
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Load(raw, path)
}

// SourceURL returns the recorded fetch URL for the named stack, or "" when
// none was recorded.
func (s *Store) SourceURL(stack string) string {
	raw, err := os.ReadFile(s.urlPath(stack))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// List returns the names of all stored stacks, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, urlSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}
