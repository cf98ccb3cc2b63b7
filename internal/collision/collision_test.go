package collision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

const (
	nitrogenMassAMU  = 28.0
	nitrogenDiameter = 3.64e-10
	roomTemperature  = 298.0
)

func testSource() *rng.Source {
	return rng.NewTestGeneratorPoolWithSize(1).SourceForWorker(0)
}

func testIon() *core.Particle {
	return core.NewParticle(core.Vector{}, core.Vector{}, 1.0, 100.0)
}

func TestNoneLeavesParticleUntouched(t *testing.T) {
	p := testIon()
	p.Velocity = core.Vector{X: 100, Y: -50, Z: 25}
	before := p.Velocity

	model := None{}
	model.InitializeModelParticleParameters(p)
	model.ApplyCollision(p, 1e-6, testSource())

	assert.Equal(t, before, p.Velocity)
	assert.Equal(t, 0, p.IntAttribute(AttrCollisionCount))
}

func TestHardSphereZeroPressureIsInert(t *testing.T) {
	p := testIon()
	p.Velocity = core.Vector{X: 300}
	before := p.Velocity

	model := NewHardSphere(0.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
	model.InitializeModelParticleParameters(p)
	src := testSource()
	for i := 0; i < 100; i++ {
		model.ApplyCollision(p, 1e-6, src)
	}

	assert.Equal(t, before, p.Velocity)
	assert.Equal(t, 0, p.IntAttribute(AttrCollisionCount))
}

func TestHardSphereCollisionCountGrowsWithPressure(t *testing.T) {
	const steps = 500
	pressures := []float64{0.0, 1.0, 100.0, 10000.0}

	prev := -1
	for _, pressure := range pressures {
		p := testIon()
		model := NewHardSphere(pressure, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
		model.InitializeModelParticleParameters(p)

		src := testSource()
		for i := 0; i < steps; i++ {
			model.ApplyCollision(p, 1e-6, src)
		}

		count := p.IntAttribute(AttrCollisionCount)
		assert.GreaterOrEqual(t, count, prev, "count dropped at %v Pa", pressure)
		prev = count
	}
	// At the highest pressure every step must collide.
	assert.Equal(t, steps, prev)
}

func TestHardSphereThermalizesFastIon(t *testing.T) {
	p := testIon()
	p.Velocity = core.Vector{X: 5000}

	model := NewHardSphere(1000.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
	model.InitializeModelParticleParameters(p)

	src := testSource()
	for i := 0; i < 300; i++ {
		model.ApplyCollision(p, 1e-6, src)
	}

	// Thermal speed of a 100 amu ion at room temperature is ~250 m/s.
	assert.Less(t, p.Velocity.Norm(), 1500.0)
	assert.Greater(t, p.IntAttribute(AttrCollisionCount), 100)
}

func TestHardSphereIsReproducibleWithTestPool(t *testing.T) {
	run := func() core.Vector {
		p := testIon()
		p.Velocity = core.Vector{X: 1000}
		model := NewHardSphere(100.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
		model.InitializeModelParticleParameters(p)
		src := testSource()
		for i := 0; i < 200; i++ {
			model.ApplyCollision(p, 1e-6, src)
		}
		return p.Velocity
	}

	assert.Equal(t, run(), run())
}

func TestHardSphereLazyParameterInitialization(t *testing.T) {
	// A particle that never passed through parameter initialization still
	// collides; the model derives the parameters on first contact.
	p := testIon()
	model := NewHardSphere(10000.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)

	src := testSource()
	for i := 0; i < 50; i++ {
		model.ApplyCollision(p, 1e-6, src)
	}
	assert.Greater(t, p.IntAttribute(AttrCollisionCount), 0)
}

func TestDiameterEstimateScalesWithMass(t *testing.T) {
	light := estimateCollisionDiameterFromMass(4.0)
	medium := estimateCollisionDiameterFromMass(28.0)
	heavy := estimateCollisionDiameterFromMass(1000.0)

	assert.Less(t, light, medium)
	assert.Less(t, medium, heavy)
	assert.InDelta(t, nitrogenDiameter, medium, 1e-15)
}

func TestStatisticalDiffusionRelaxesToThermalSpeed(t *testing.T) {
	p := testIon()
	p.Velocity = core.Vector{X: 10000}

	model := NewStatisticalDiffusion(100.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
	model.InitializeModelParticleParameters(p)

	src := testSource()
	for i := 0; i < 100; i++ {
		model.ApplyCollision(p, 1e-6, src)
	}

	assert.Less(t, p.Velocity.Norm(), 1500.0)
	assert.Greater(t, p.Velocity.Norm(), 0.0)
}

func TestStatisticalDiffusionZeroPressureIsInert(t *testing.T) {
	p := testIon()
	p.Velocity = core.Vector{X: 300}
	before := p.Velocity

	model := NewStatisticalDiffusion(0.0, roomTemperature, nitrogenMassAMU, nitrogenDiameter)
	model.InitializeModelParticleParameters(p)
	model.ApplyCollision(p, 1e-6, testSource())

	assert.Equal(t, before, p.Velocity)
}

func TestCollisionStatisticsTable(t *testing.T) {
	stats := NewCollisionStatistics()

	assert.Equal(t, 0.0, stats.Sample(0))
	assert.InDelta(t, maxNormalizedSpeed, stats.Sample(1), 1e-9)

	// Quantiles invert the CDF.
	for _, u := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		assert.InDelta(t, u, maxwellSpeedCDF(stats.Sample(u)), 0.01, "u = %v", u)
	}

	// Monotone in u.
	prev := -1.0
	for u := 0.0; u < 1.0; u += 0.05 {
		s := stats.Sample(u)
		require.GreaterOrEqual(t, s, prev)
		prev = s
	}

	// Median of the Maxwell speed distribution with unit scale.
	assert.InDelta(t, 1.538, stats.Sample(0.5), 0.01)
}

type recordingModel struct {
	initialized int
	applied     int
}

func (m *recordingModel) InitializeModelParticleParameters(*core.Particle) { m.initialized++ }

func (m *recordingModel) ApplyCollision(*core.Particle, float64, *rng.Source) { m.applied++ }

func TestMultiForwardsToAllSubModels(t *testing.T) {
	a := &recordingModel{}
	b := &recordingModel{}
	model := NewMulti(a, b)

	p := testIon()
	model.InitializeModelParticleParameters(p)
	model.ApplyCollision(p, 1e-6, testSource())
	model.ApplyCollision(p, 1e-6, testSource())

	assert.Equal(t, 1, a.initialized)
	assert.Equal(t, 1, b.initialized)
	assert.Equal(t, 2, a.applied)
	assert.Equal(t, 2, b.applied)
}

func TestSpeciesAwareDispatchesOnSpeciesIndex(t *testing.T) {
	a := &recordingModel{}
	b := &recordingModel{}
	model := NewSpeciesAware(map[int]Model{0: a, 1: b})

	p := testIon() // species 0
	q := testIon()
	q.SetSpeciesIndex(1)
	stranger := testIon()
	stranger.SetSpeciesIndex(7)

	model.InitializeModelParticleParameters(p)
	model.InitializeModelParticleParameters(q)
	model.InitializeModelParticleParameters(stranger)
	model.ApplyCollision(p, 1e-6, testSource())
	model.ApplyCollision(q, 1e-6, testSource())
	model.ApplyCollision(stranger, 1e-6, testSource())

	assert.Equal(t, 1, a.initialized)
	assert.Equal(t, 1, a.applied)
	assert.Equal(t, 1, b.initialized)
	assert.Equal(t, 1, b.applied)
}

func TestIsotropicDirectionIsUnitLength(t *testing.T) {
	src := testSource()
	for i := 0; i < 100; i++ {
		d := isotropicDirection(src)
		require.InDelta(t, 1.0, d.Norm(), 1e-12)
	}
}

func TestMaxwellCDFBounds(t *testing.T) {
	assert.Equal(t, 0.0, maxwellSpeedCDF(0))
	assert.InDelta(t, 1.0, maxwellSpeedCDF(maxNormalizedSpeed), 1e-9)
	assert.True(t, math.IsNaN(maxwellSpeedCDF(math.NaN())))
}
