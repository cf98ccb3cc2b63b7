package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	runID, dir, err := store.CreateRun("expansion")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, store.RunDir(runID))

	meta := RunMetadata{
		ID:             runID,
		Preset:         "expansion",
		Timestamp:      time.Now().UTC().Truncate(time.Second),
		Seed:           42,
		Dt:             1e-6,
		TimeSteps:      1000,
		Ions:           2000,
		CollisionModel: "none",
		Metrics:        map[string]float64{"energy_drift": 1.2e-5},
	}
	require.NoError(t, store.SaveMetadata(meta))

	loaded, err := store.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, meta, *loaded)

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
}

func TestSeriesRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	runID, _, err := store.CreateRun("cooling")
	require.NoError(t, err)

	series := []SeriesRecord{
		{Step: 1, Time: 1e-6, Active: 100, KineticEnergy: 2.5e-20},
		{Step: 2, Time: 2e-6, Active: 99, KineticEnergy: 2.4e-20},
	}
	require.NoError(t, store.SaveSeries(runID, series))

	loaded, err := store.LoadSeries(runID)
	require.NoError(t, err)
	assert.Equal(t, series, loaded)
}

func TestListOnEmptyStore(t *testing.T) {
	store := New(t.TempDir() + "/does-not-exist")
	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTrajectoryPaths(t *testing.T) {
	store := New("/runs")
	assert.Equal(t, "/runs/r1/trajectory.csv", store.TrajectoryPath("r1", false))
	assert.Equal(t, "/runs/r1/trajectory.csv.zst", store.TrajectoryPath("r1", true))
	assert.Equal(t, "/runs/r1/splats.csv", store.SplatPath("r1"))
}
