package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/trajectory"
)

func record(step int, time float64, pos, vel core.Vector, active bool) trajectory.Record {
	return trajectory.Record{
		Step: step, Time: time,
		X: pos.X, Y: pos.Y, Z: pos.Z,
		VX: vel.X, VY: vel.Y, VZ: vel.Z,
		MassAMU: 100.0, ChargeElementary: 1.0,
		Active: active,
	}
}

func TestGroupBySteps(t *testing.T) {
	records := []trajectory.Record{
		record(0, 0, core.Vector{}, core.Vector{}, true),
		record(0, 0, core.Vector{X: 1}, core.Vector{}, true),
		record(10, 1e-5, core.Vector{}, core.Vector{}, true),
	}

	snapshots := GroupBySteps(records)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 0, snapshots[0].Step)
	assert.Len(t, snapshots[0].Records, 2)
	assert.Equal(t, 10, snapshots[1].Step)
	assert.Equal(t, 1e-5, snapshots[1].Time)
	assert.Len(t, snapshots[1].Records, 1)

	assert.Empty(t, GroupBySteps(nil))
}

func TestSnapshotIgnoresInactiveParticles(t *testing.T) {
	s := Snapshot{Records: []trajectory.Record{
		record(0, 0, core.Vector{X: 1}, core.Vector{X: 100}, true),
		record(0, 0, core.Vector{X: 1e6}, core.Vector{X: 1e6}, false),
	}}

	assert.Equal(t, 1, s.ActiveCount())
	assert.InDelta(t, 1.0, s.CenterOfMass().X, 1e-12)
	assert.Equal(t, 0.0, s.RMSRadius())
	assert.Equal(t, []float64{100}, s.Speeds())
}

func TestSnapshotCloudGeometry(t *testing.T) {
	s := Snapshot{Records: []trajectory.Record{
		record(0, 0, core.Vector{X: -1}, core.Vector{}, true),
		record(0, 0, core.Vector{X: 1}, core.Vector{}, true),
	}}

	com := s.CenterOfMass()
	assert.InDelta(t, 0.0, com.X, 1e-12)
	assert.InDelta(t, 1.0, s.RMSRadius(), 1e-12)
}

func TestSnapshotTemperature(t *testing.T) {
	// a 100 amu particle moving at 200 m/s
	s := Snapshot{Records: []trajectory.Record{
		record(0, 0, core.Vector{}, core.Vector{X: 200}, true),
	}}

	kinetic := 0.5 * 100.0 * core.AmuToKg * 200 * 200
	assert.InDelta(t, kinetic, s.MeanKineticEnergy(), kinetic*1e-12)

	want := 2 * kinetic / (3 * core.Boltzmann)
	assert.InDelta(t, want, s.Temperature(), want*1e-12)
}

func TestSummarizeSeries(t *testing.T) {
	records := []trajectory.Record{
		record(0, 0, core.Vector{X: -1}, core.Vector{X: 100}, true),
		record(0, 0, core.Vector{X: 1}, core.Vector{X: 300}, true),
		record(5, 5e-6, core.Vector{}, core.Vector{}, true),
	}

	summaries := Summarize(records)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, 2, first.Active)
	assert.InDelta(t, 200.0, first.MeanSpeed, 1e-9)
	assert.Greater(t, first.SpeedStdDev, 0.0)
	assert.InDelta(t, 1.0, first.RMSRadius, 1e-12)

	// a single particle at rest has no spread
	assert.Equal(t, 0.0, summaries[1].MeanSpeed)
	assert.Equal(t, 0.0, summaries[1].SpeedStdDev)
}

func TestSpeedHistogram(t *testing.T) {
	s := Snapshot{Records: []trajectory.Record{
		record(0, 0, core.Vector{}, core.Vector{X: 10}, true),
		record(0, 0, core.Vector{}, core.Vector{X: 50}, true),
		record(0, 0, core.Vector{}, core.Vector{X: 99}, true),
		record(0, 0, core.Vector{}, core.Vector{X: 100}, true),
	}}

	h := NewSpeedHistogram(s, 4)
	require.Len(t, h.Edges, 5)
	require.Len(t, h.Counts, 4)
	assert.Equal(t, 0.0, h.Edges[0])
	assert.InDelta(t, 100.0, h.Edges[4], 1e-9)

	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 4.0, total)
	// the maximum speed lands in the last bin
	assert.GreaterOrEqual(t, h.Counts[3], 2.0)
}

func TestSpeedHistogramEmptySnapshot(t *testing.T) {
	h := NewSpeedHistogram(Snapshot{}, 8)
	require.Len(t, h.Counts, 8)
	for _, c := range h.Counts {
		assert.Equal(t, 0.0, c)
	}
	assert.False(t, math.IsNaN(h.Edges[8]))
}
