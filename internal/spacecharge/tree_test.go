package spacecharge

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

func testDomain() (core.Vector, core.Vector) {
	return core.Vector{X: -1, Y: -1, Z: -1}, core.Vector{X: 1, Y: 1, Z: 1}
}

func randomCloud(n int) []*core.Particle {
	pool := rng.NewTestGeneratorPoolWithSize(1)
	dist := pool.UniformDistribution(-0.9, 0.9)

	particles := make([]*core.Particle, n)
	for i := range particles {
		pos := core.Vector{X: dist.RndValue(), Y: dist.RndValue(), Z: dist.RndValue()}
		particles[i] = core.NewParticle(pos, core.Vector{}, 1.0, 100.0)
	}
	return particles
}

func buildTree(particles []*core.Particle, theta float64) *Tree {
	min, max := testDomain()
	tree := NewTree(min, max, theta)
	for _, p := range particles {
		if err := tree.InsertParticle(p); err != nil {
			panic(err)
		}
	}
	tree.ComputeChargeDistribution()
	return tree
}

func buildDirect(particles []*core.Particle) *DirectSolver {
	direct := NewDirectSolver()
	for _, p := range particles {
		_ = direct.InsertParticle(p)
	}
	return direct
}

func TestInsertAndCount(t *testing.T) {
	particles := randomCloud(50)
	tree := buildTree(particles, DefaultTheta)
	assert.Equal(t, 50, tree.NumberOfParticles())
}

func TestInsertOutsideDomain(t *testing.T) {
	min, max := testDomain()
	tree := NewTree(min, max, DefaultTheta)

	p := core.NewParticle(core.Vector{X: 5}, core.Vector{}, 1.0, 100.0)
	err := tree.InsertParticle(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrOutsideDomain)
	assert.Equal(t, 0, tree.NumberOfParticles())
}

func TestChargeAggregation(t *testing.T) {
	min, max := testDomain()
	tree := NewTree(min, max, DefaultTheta)

	a := core.NewParticle(core.Vector{X: -0.5}, core.Vector{}, 1.0, 100.0)
	b := core.NewParticle(core.Vector{X: 0.5}, core.Vector{}, 3.0, 100.0)
	require.NoError(t, tree.InsertParticle(a))
	require.NoError(t, tree.InsertParticle(b))
	tree.ComputeChargeDistribution()

	root := tree.nodes[0]
	assert.InDelta(t, 4.0*core.ElementaryCharge, root.charge, 1e-30)
	// centroid = (-0.5*1 + 0.5*3) / 4 = 0.25
	assert.InDelta(t, 0.25, root.centroid.X, 1e-12)
	assert.InDelta(t, 0.0, root.centroid.Y, 1e-12)
}

func TestFieldOfSingleChargeMatchesCoulombLaw(t *testing.T) {
	min, max := testDomain()
	tree := NewTree(min, max, 0.0)

	source := core.NewParticle(core.Vector{}, core.Vector{}, 1.0, 100.0)
	probe := core.NewParticle(core.Vector{X: 0.5}, core.Vector{}, 1.0, 100.0)
	require.NoError(t, tree.InsertParticle(source))
	require.NoError(t, tree.InsertParticle(probe))
	tree.ComputeChargeDistribution()

	field := tree.EFieldFromSpaceCharge(probe)
	want := core.ElectricConstant * core.ElementaryCharge / (0.5 * 0.5)
	assert.InDelta(t, want, field.X, want*1e-12)
	assert.InDelta(t, 0.0, field.Y, 1e-12)
	assert.InDelta(t, 0.0, field.Z, 1e-12)
}

func TestNewtonsThirdLaw(t *testing.T) {
	particles := []*core.Particle{
		core.NewParticle(core.Vector{X: -0.3, Y: 0.1}, core.Vector{}, 1.0, 100.0),
		core.NewParticle(core.Vector{X: 0.4, Y: -0.2}, core.Vector{}, -1.0, 50.0),
	}
	tree := buildTree(particles, 0.0)

	forceA := tree.EFieldFromSpaceCharge(particles[0]).Mul(particles[0].Charge())
	forceB := tree.EFieldFromSpaceCharge(particles[1]).Mul(particles[1].Charge())

	assert.InDelta(t, -forceB.X, forceA.X, math.Abs(forceA.X)*1e-10)
	assert.InDelta(t, -forceB.Y, forceA.Y, math.Abs(forceA.Y)*1e-10)
	assert.InDelta(t, -forceB.Z, forceA.Z, 1e-30)
}

// rmsFieldError is the root mean square deviation between tree and direct
// solver fields over all particles.
func rmsFieldError(tree *Tree, direct *DirectSolver, particles []*core.Particle) float64 {
	sum := 0.0
	for _, p := range particles {
		diff := tree.EFieldFromSpaceCharge(p).Sub(direct.EFieldFromSpaceCharge(p))
		sum += diff.NormSquared()
	}
	return math.Sqrt(sum / float64(len(particles)))
}

func TestApproximationConvergesToDirectSum(t *testing.T) {
	particles := randomCloud(200)
	direct := buildDirect(particles)

	thetas := []float64{1.5, 0.9, 0.3, 0.0}
	prev := math.Inf(1)
	for _, theta := range thetas {
		tree := buildTree(particles, theta)
		err := rmsFieldError(tree, direct, particles)
		assert.LessOrEqual(t, err, prev+1e-9, "error grew when theta shrank to %v", theta)
		prev = err
	}

	// theta = 0 must reproduce the direct sum to floating point accuracy.
	exact := buildTree(particles, 0.0)
	for _, p := range particles {
		want := direct.EFieldFromSpaceCharge(p)
		got := exact.EFieldFromSpaceCharge(p)
		require.InDelta(t, want.X, got.X, math.Abs(want.X)*1e-9+1e-12)
		require.InDelta(t, want.Y, got.Y, math.Abs(want.Y)*1e-9+1e-12)
		require.InDelta(t, want.Z, got.Z, math.Abs(want.Z)*1e-9+1e-12)
	}
}

func TestColocatedParticlesTerminate(t *testing.T) {
	min, max := testDomain()
	tree := NewTree(min, max, DefaultTheta)

	pos := core.Vector{X: 0.1, Y: 0.1, Z: 0.1}
	a := core.NewParticle(pos, core.Vector{}, 1.0, 100.0)
	b := core.NewParticle(pos, core.Vector{}, 1.0, 100.0)
	require.NoError(t, tree.InsertParticle(a))
	require.NoError(t, tree.InsertParticle(b))
	tree.ComputeChargeDistribution()

	assert.Equal(t, 2, tree.NumberOfParticles())
	// Colocated sources cancel at their own position but the probe sees both.
	probe := core.NewParticle(core.Vector{X: 0.6, Y: 0.1, Z: 0.1}, core.Vector{}, 1.0, 100.0)
	require.NoError(t, tree.InsertParticle(probe))
	tree.ComputeChargeDistribution()

	field := tree.EFieldFromSpaceCharge(probe)
	want := 2 * core.ElectricConstant * core.ElementaryCharge / (0.5 * 0.5)
	assert.InDelta(t, want, field.X, want*1e-9)
}

func TestRemoveParticle(t *testing.T) {
	particles := randomCloud(20)
	tree := buildTree(particles, 0.0)

	require.NoError(t, tree.RemoveParticle(particles[7]))
	tree.ComputeChargeDistribution()
	assert.Equal(t, 19, tree.NumberOfParticles())

	// Removing again fails.
	assert.Error(t, tree.RemoveParticle(particles[7]))

	// The removed particle no longer contributes to the field.
	rest := append([]*core.Particle{}, particles[:7]...)
	rest = append(rest, particles[8:]...)
	direct := buildDirect(rest)
	for _, p := range rest {
		want := direct.EFieldFromSpaceCharge(p)
		got := tree.EFieldFromSpaceCharge(p)
		require.InDelta(t, want.X, got.X, math.Abs(want.X)*1e-9+1e-15)
	}
}

func TestTreeReset(t *testing.T) {
	particles := randomCloud(30)
	tree := buildTree(particles, DefaultTheta)
	require.Equal(t, 30, tree.NumberOfParticles())

	tree.Reset()
	assert.Equal(t, 0, tree.NumberOfParticles())

	require.NoError(t, tree.InsertParticle(particles[0]))
	tree.ComputeChargeDistribution()
	assert.Equal(t, 1, tree.NumberOfParticles())
}

func TestConcurrentFieldQueries(t *testing.T) {
	particles := randomCloud(100)
	tree := buildTree(particles, DefaultTheta)

	reference := make([]core.Vector, len(particles))
	for i, p := range particles {
		reference[i] = tree.EFieldFromSpaceCharge(p)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range particles {
				got := tree.EFieldFromSpaceCharge(p)
				if got != reference[i] {
					t.Errorf("concurrent query diverged for particle %d", i)
					return
				}
			}
		}()
	}
	wg.Wait()
}
