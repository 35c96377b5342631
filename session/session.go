// Package session persists a working set of files, pipelines and the
// dataset selection as YAML, and rebuilds it later.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/razeghi71/csvqb/loader"
	"github.com/razeghi71/csvqb/table"
)

// Session is the saved form of a workspace. Pipelines are stored as
// whitespace-joined atom text.
type Session struct {
	Name      string   `yaml:"name"`
	Files     []string `yaml:"files"`
	Pipelines []string `yaml:"pipelines"`
	Selected  []int    `yaml:"selected_files"`
}

// ErrInvalidName is returned for names that cannot be used as a file name.
var ErrInvalidName = errors.New("invalid session name")

// FileName is the file a session is saved under.
func FileName(name string) string {
	return name + ".yaml"
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Save writes s to dir, replacing any previous save of the same name.
func Save(dir string, s Session) error {
	if !validName(s.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, s.Name)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.Name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, FileName(s.Name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return nil
}

// Load reads one session file.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// LoadDir reads every .yaml or .yml file in dir, ordered by file name.
// A missing directory yields no sessions.
func LoadDir(dir string) ([]Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sessions := make([]Session, 0, len(names))
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Reconstruct loads every file of s concurrently. The store keeps the
// order of s.Files. The first load failure is returned.
func Reconstruct(ctx context.Context, s Session) (table.Store, error) {
	store := make(table.Store, len(s.Files))
	errs := make([]error, len(s.Files))
	var wg sync.WaitGroup

	for i, f := range s.Files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			store[i], errs[i] = loader.Load(f)
		}(i, f)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("session %s: load %s: %w", s.Name, s.Files[i], err)
		}
	}
	return store, nil
}
