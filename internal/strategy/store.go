package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"syntaxforge/internal/logging"
)

// Store loads and persists strategy definition documents from a directory of
// YAML files. Malformed documents are skipped with a warning so one bad file
// never takes down a whole load; duplicate strategy names across documents
// are a hard conflict.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory does not have to
// exist yet; a missing directory loads as an empty strategy set.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// LoadAll scans the store directory and returns all valid strategy
// definitions keyed by name. Two documents declaring the same name fail the
// whole load with ErrDuplicateStrategy: shadowing strategies by load order
// makes runs depend on directory iteration and is never what the operator
// wants.
func (s *Store) LoadAll() (map[string]*Definition, error) {
	log := logging.Get(logging.CategoryStore)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("strategy directory %s not found", s.dir)
			return map[string]*Definition{}, nil
		}
		return nil, fmt.Errorf("read strategy directory %s: %w", s.dir, err)
	}

	defs := make(map[string]*Definition)
	sources := make(map[string]string) // name -> file, for conflict reporting
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		def, err := loadDefinition(path)
		if err != nil {
			log.Warn("skipping %s: %v", entry.Name(), err)
			continue
		}

		if prev, dup := sources[def.Name]; dup {
			return nil, fmt.Errorf("%w: %q declared by both %s and %s",
				ErrDuplicateStrategy, def.Name, prev, entry.Name())
		}
		sources[def.Name] = entry.Name()
		defs[def.Name] = def
		log.Info("loaded strategy %s (%s) from %s", def.Name, def.Version, entry.Name())
	}
	return defs, nil
}

// Get loads a single strategy by name, returning ErrStrategyNotFound if no
// document declares it.
func (s *Store) Get(name string) (*Definition, error) {
	defs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrStrategyNotFound, name, availableNames(defs))
	}
	return def, nil
}

// Save writes a definition to <dir>/<name>.yaml and returns the path.
func (s *Store) Save(def *Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create strategy directory: %w", err)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("encode strategy %s: %w", def.Name, err)
	}

	path := filepath.Join(s.dir, def.Name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write strategy %s: %w", def.Name, err)
	}

	logging.Get(logging.CategoryStore).Info("saved strategy %s to %s", def.Name, path)
	return path, nil
}

func loadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func availableNames(defs map[string]*Definition) string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
