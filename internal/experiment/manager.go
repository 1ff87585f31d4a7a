// Package experiment tracks dataset-generation experiments: one YAML config
// per experiment recording the strategy used, the split parameters, and the
// run's lifecycle status and results.
package experiment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"syntaxforge/internal/logging"
)

// ErrExperimentNotFound reports a lookup for an unknown experiment ID.
var ErrExperimentNotFound = errors.New("experiment not found")

// Lifecycle statuses.
const (
	StatusCreated          = "created"
	StatusDatasetGenerated = "dataset_generated"
	StatusCompleted        = "completed"
	StatusFailed           = "failed"
)

// DatasetParams are the split parameters an experiment's dataset is built
// with.
type DatasetParams struct {
	TrainRatio float64 `yaml:"train_ratio"`
	ValidRatio float64 `yaml:"valid_ratio"`
	RandomSeed int64   `yaml:"random_seed"`
}

// DefaultDatasetParams returns the standard 80/15/5 split.
func DefaultDatasetParams() DatasetParams {
	return DatasetParams{TrainRatio: 0.8, ValidRatio: 0.15, RandomSeed: 42}
}

// Config is one experiment's persisted state.
type Config struct {
	ID            string            `yaml:"experiment_id"`
	Name          string            `yaml:"experiment_name"`
	StrategyName  string            `yaml:"strategy_name"`
	Description   string            `yaml:"description,omitempty"`
	CreatedAt     string            `yaml:"created_at"`
	LastUpdated   string            `yaml:"last_updated,omitempty"`
	Status        string            `yaml:"status"`
	DatasetParams DatasetParams     `yaml:"dataset_params"`
	DatasetDir    string            `yaml:"dataset_dir,omitempty"`
	Results       map[string]string `yaml:"results,omitempty"`
}

// Manager stores experiment configs under <base>/experiments, one directory
// per experiment.
type Manager struct {
	dir string
}

// NewManager returns a manager rooted at baseDir.
func NewManager(baseDir string) *Manager {
	return &Manager{dir: filepath.Join(baseDir, "experiments")}
}

// Dir returns the experiments directory.
func (m *Manager) Dir() string { return m.dir }

// Create registers a new experiment for strategyName and persists its
// config. The ID combines the experiment name, a creation timestamp and a
// short random suffix, so concurrent creations with the same name cannot
// collide.
func (m *Manager) Create(name, strategyName, description string, params *DatasetParams) (*Config, error) {
	if name == "" {
		return nil, fmt.Errorf("experiment name is required")
	}
	if strategyName == "" {
		return nil, fmt.Errorf("strategy name is required")
	}

	now := time.Now()
	id := fmt.Sprintf("%s_%s_%s", sanitize(name), now.Format("20060102_150405"), uuid.NewString()[:8])

	cfg := &Config{
		ID:            id,
		Name:          name,
		StrategyName:  strategyName,
		Description:   description,
		CreatedAt:     now.Format(time.RFC3339Nano),
		Status:        StatusCreated,
		DatasetParams: DefaultDatasetParams(),
		DatasetDir:    filepath.Join("data_experiments", id),
	}
	if params != nil {
		cfg.DatasetParams = *params
	}

	if err := m.write(cfg); err != nil {
		return nil, err
	}
	logging.Get(logging.CategoryExperiment).Info("created experiment %s (strategy %s)", id, strategyName)
	return cfg, nil
}

// List returns every readable experiment config, newest first. Unreadable
// configs are skipped with a warning.
func (m *Manager) List() ([]*Config, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read experiments dir: %w", err)
	}

	log := logging.Get(logging.CategoryExperiment)
	var configs []*Config
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		cfg, err := m.read(e.Name())
		if err != nil {
			log.Warn("skipping experiment %s: %v", e.Name(), err)
			continue
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].CreatedAt > configs[j].CreatedAt
	})
	return configs, nil
}

// Get loads one experiment by ID.
func (m *Manager) Get(id string) (*Config, error) {
	cfg, err := m.read(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrExperimentNotFound, id)
		}
		return nil, err
	}
	return cfg, nil
}

// UpdateStatus transitions an experiment to status and merges results into
// its config.
func (m *Manager) UpdateStatus(id, status string, results map[string]string) (*Config, error) {
	cfg, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	cfg.Status = status
	cfg.LastUpdated = time.Now().Format(time.RFC3339Nano)
	if len(results) > 0 {
		if cfg.Results == nil {
			cfg.Results = make(map[string]string)
		}
		for k, v := range results {
			cfg.Results[k] = v
		}
	}
	if err := m.write(cfg); err != nil {
		return nil, err
	}
	logging.Get(logging.CategoryExperiment).Info("experiment %s -> %s", id, status)
	return cfg, nil
}

func (m *Manager) configPath(id string) string {
	return filepath.Join(m.dir, id, id+"_config.yaml")
}

func (m *Manager) read(id string) (*Config, error) {
	data, err := os.ReadFile(m.configPath(id))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse experiment config %s: %w", id, err)
	}
	return &cfg, nil
}

func (m *Manager) write(cfg *Config) error {
	dir := filepath.Join(m.dir, cfg.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create experiment dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal experiment config: %w", err)
	}
	if err := os.WriteFile(m.configPath(cfg.ID), data, 0o644); err != nil {
		return fmt.Errorf("write experiment config: %w", err)
	}
	return nil
}

// sanitize makes a name safe for use in directory names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
}
