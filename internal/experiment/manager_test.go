package experiment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	mgr := NewManager(t.TempDir())

	cfg, err := mgr.Create("merge test", "dynamic_8cats", "eight category run", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.ID, "merge_test_"), "id = %q", cfg.ID)
	assert.Equal(t, StatusCreated, cfg.Status)
	assert.Equal(t, DefaultDatasetParams(), cfg.DatasetParams)

	loaded, err := mgr.Get(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.StrategyName, loaded.StrategyName)
	assert.Equal(t, cfg.CreatedAt, loaded.CreatedAt)
}

func TestCreateRequiresNameAndStrategy(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.Create("", "s", "", nil)
	assert.Error(t, err)
	_, err = mgr.Create("n", "", "", nil)
	assert.Error(t, err)
}

func TestCreateCustomParams(t *testing.T) {
	mgr := NewManager(t.TempDir())
	params := DatasetParams{TrainRatio: 0.7, ValidRatio: 0.2, RandomSeed: 7}
	cfg, err := mgr.Create("custom", "dynamic_5cats", "", &params)
	require.NoError(t, err)

	loaded, err := mgr.Get(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, params, loaded.DatasetParams)
}

func TestGetUnknown(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.Get("missing")
	assert.ErrorIs(t, err, ErrExperimentNotFound)
}

func TestListNewestFirst(t *testing.T) {
	mgr := NewManager(t.TempDir())

	first, err := mgr.Create("first", "s1", "", nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := mgr.Create("second", "s2", "", nil)
	require.NoError(t, err)

	configs, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, second.ID, configs[0].ID)
	assert.Equal(t, first.ID, configs[1].ID)
}

func TestListEmptyDir(t *testing.T) {
	mgr := NewManager(t.TempDir())
	configs, err := mgr.List()
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestUpdateStatusMergesResults(t *testing.T) {
	mgr := NewManager(t.TempDir())
	cfg, err := mgr.Create("run", "dynamic_5cats", "", nil)
	require.NoError(t, err)

	updated, err := mgr.UpdateStatus(cfg.ID, StatusDatasetGenerated, map[string]string{"total_examples": "1200"})
	require.NoError(t, err)
	assert.Equal(t, StatusDatasetGenerated, updated.Status)
	assert.NotEmpty(t, updated.LastUpdated)

	final, err := mgr.UpdateStatus(cfg.ID, StatusCompleted, map[string]string{"accuracy": "0.91"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, "1200", final.Results["total_examples"])
	assert.Equal(t, "0.91", final.Results["accuracy"])

	_, err = mgr.UpdateStatus("missing", StatusFailed, nil)
	assert.ErrorIs(t, err, ErrExperimentNotFound)
}
