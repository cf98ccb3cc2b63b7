package integrate

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/san-kum/ionsim/internal/collision"
	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
	"github.com/san-kum/ionsim/internal/spacecharge"
)

// defaultDomainHalfExtent spans the default simulation domain cube,
// [-1000, 1000] m on every axis.
const defaultDomainHalfExtent = 1000.0

// Options configures a VerletIntegrator. Acceleration is required, every
// other field has a usable default.
type Options struct {
	Acceleration    AccelerationFunc
	TimestepWrite   TimestepWriteFunc
	OtherActions    OtherActionsFunc
	StartMonitoring ParticleStartMonitoringFunc

	// CollisionModel is applied to every active particle each step after
	// the velocity update. Nil means no background gas.
	CollisionModel collision.Model

	// RandomPool provides the per-worker random sources. Defaults to a
	// fresh entropy seeded pool.
	RandomPool rng.Pool

	// Solver overrides the space charge solver. Defaults to a Barnes-Hut
	// tree over the domain with Theta.
	Solver spacecharge.Solver

	// DomainMin and DomainMax bound the default tree solver. Both zero
	// means the default cube of half extent 1000 m.
	DomainMin core.Vector
	DomainMax core.Vector

	// Theta is the multipole acceptance threshold of the default solver.
	// Zero means spacecharge.DefaultTheta; use a small negative value for
	// an exact tree sum.
	Theta float64

	// Workers caps the parallelism of the particle phases. Zero means
	// GOMAXPROCS; the value is clamped to the random pool size so every
	// worker owns a source.
	Workers int
}

// VerletIntegrator advances a particle cloud with the velocity Verlet
// scheme. One step runs three phases: a parallel position update with the
// per-particle action hook, an exclusive space charge rebuild, and a
// parallel acceleration, velocity and collision update. Particles are
// statically chunked over the workers, so runs with a deterministic pool
// and a fixed worker count are reproducible bit for bit.
//
// All methods must be called from a single goroutine except
// TerminateSimulation, which may be called from anywhere including the
// step callbacks.
type VerletIntegrator struct {
	particles []*core.Particle

	acceleration    AccelerationFunc
	timestepWrite   TimestepWriteFunc
	otherActions    OtherActionsFunc
	startMonitoring ParticleStartMonitoringFunc
	model           collision.Model

	pool    rng.Pool
	solver  spacecharge.Solver
	workers int

	time float64
	step int

	aT     []core.Vector
	aTdt   []core.Vector
	newPos []core.Vector

	initialized bool
	state       atomic.Int32
	terminate   atomic.Bool
}

// NewVerletIntegrator creates an integrator over the given particles. The
// slice is adopted; the caller keeps ownership of the particles themselves.
func NewVerletIntegrator(particles []*core.Particle, opts Options) (*VerletIntegrator, error) {
	if opts.Acceleration == nil {
		return nil, fmt.Errorf("%w: acceleration function is required", core.ErrInvalidConfiguration)
	}

	pool := opts.RandomPool
	if pool == nil {
		pool = rng.NewGeneratorPool()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > pool.Size() {
		workers = pool.Size()
	}

	solver := opts.Solver
	if solver == nil {
		min, max := opts.DomainMin, opts.DomainMax
		if min == (core.Vector{}) && max == (core.Vector{}) {
			min = core.Vector{X: -defaultDomainHalfExtent, Y: -defaultDomainHalfExtent, Z: -defaultDomainHalfExtent}
			max = core.Vector{X: defaultDomainHalfExtent, Y: defaultDomainHalfExtent, Z: defaultDomainHalfExtent}
		}
		theta := opts.Theta
		if theta == 0 {
			theta = spacecharge.DefaultTheta
		} else if theta < 0 {
			theta = 0
		}
		solver = spacecharge.NewTree(min, max, theta)
	}

	v := &VerletIntegrator{
		particles:       append([]*core.Particle(nil), particles...),
		acceleration:    opts.Acceleration,
		timestepWrite:   opts.TimestepWrite,
		otherActions:    opts.OtherActions,
		startMonitoring: opts.StartMonitoring,
		model:           opts.CollisionModel,
		pool:            pool,
		solver:          solver,
		workers:         workers,
	}
	v.aT = make([]core.Vector, len(v.particles))
	v.aTdt = make([]core.Vector, len(v.particles))
	v.newPos = make([]core.Vector, len(v.particles))

	for _, p := range v.particles {
		v.bearParticle(p, 0)
	}
	return v, nil
}

func (v *VerletIntegrator) bearParticle(p *core.Particle, time float64) {
	p.SetTimeOfBirth(time)
	if v.model != nil {
		v.model.InitializeModelParticleParameters(p)
	}
	if v.startMonitoring != nil {
		v.startMonitoring(p, time)
	}
}

// AddParticle inserts a particle into the running simulation. It must not
// be called while a step is in progress (use the step callbacks).
func (v *VerletIntegrator) AddParticle(p *core.Particle) error {
	if RunState(v.state.Load()) == StateFinalized {
		return fmt.Errorf("%w: integrator is finalized", core.ErrNotRunnable)
	}
	v.particles = append(v.particles, p)
	v.aT = append(v.aT, core.Vector{})
	v.aTdt = append(v.aTdt, core.Vector{})
	v.newPos = append(v.newPos, core.Vector{})
	v.bearParticle(p, v.time)

	if v.initialized && p.Active() {
		if err := v.solver.InsertParticle(p); err != nil {
			p.SetActive(false)
			p.SetSplatTime(v.time)
			return nil
		}
		v.solver.ComputeChargeDistribution()
		v.aT[len(v.particles)-1] = v.acceleration(p, len(v.particles)-1, v.solver, v.time, v.step)
	}
	return nil
}

// Particles exposes the particle slice for callbacks and diagnostics.
func (v *VerletIntegrator) Particles() []*core.Particle { return v.particles }

// Time is the simulated time reached so far.
func (v *VerletIntegrator) Time() float64 { return v.time }

// Step is the number of completed steps.
func (v *VerletIntegrator) Step() int { return v.step }

// RunState reports the lifecycle state.
func (v *VerletIntegrator) RunState() RunState { return RunState(v.state.Load()) }

// TerminateSimulation requests a stop at the next step boundary. Safe to
// call from the step callbacks and from other goroutines.
func (v *VerletIntegrator) TerminateSimulation() {
	v.terminate.Store(true)
	v.state.CompareAndSwap(int32(StateRunning), int32(StateTerminating))
}

// Run advances the cloud by steps steps of width dt, then finalizes. The
// run stops early at a step boundary when the context is cancelled, when
// TerminateSimulation was called, or when every particle has become
// inactive; completed steps are never interrupted.
func (v *VerletIntegrator) Run(ctx context.Context, steps int, dt float64) error {
	if RunState(v.state.Load()) == StateFinalized {
		return fmt.Errorf("%w: integrator is finalized", core.ErrNotRunnable)
	}
	if dt <= 0 {
		return fmt.Errorf("%w: time step must be positive", core.ErrInvalidConfiguration)
	}
	v.state.Store(int32(StateRunning))

	for i := 0; i < steps; i++ {
		if v.allInactive() {
			v.TerminateSimulation()
		}
		if v.terminate.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			v.Finalize()
			return err
		}
		v.advance(dt)
	}
	v.Finalize()
	return nil
}

// allInactive reports whether the cloud has particles and none is active.
func (v *VerletIntegrator) allInactive() bool {
	if len(v.particles) == 0 {
		return false
	}
	for _, p := range v.particles {
		if p.Active() {
			return false
		}
	}
	return true
}

// RunSingleStep advances the cloud by exactly one step. Finalization is
// left to the caller.
func (v *VerletIntegrator) RunSingleStep(dt float64) error {
	if RunState(v.state.Load()) == StateFinalized {
		return fmt.Errorf("%w: integrator is finalized", core.ErrNotRunnable)
	}
	if dt <= 0 {
		return fmt.Errorf("%w: time step must be positive", core.ErrInvalidConfiguration)
	}
	v.state.Store(int32(StateRunning))
	v.advance(dt)
	return nil
}

// Finalize emits the last timestep write and freezes the integrator.
// Calling it again is a no-op.
func (v *VerletIntegrator) Finalize() {
	if RunState(v.state.Load()) == StateFinalized {
		return
	}
	if v.timestepWrite != nil {
		v.timestepWrite(v.particles, v.time, v.step, true)
	}
	v.state.Store(int32(StateFinalized))
}

// initialize builds the space charge distribution of the initial positions
// and computes the initial accelerations. Runs lazily before the first
// step so particles may still be added after construction.
func (v *VerletIntegrator) initialize() {
	v.rebuildSolver()
	v.parallel(func(worker, start, end int) {
		for i := start; i < end; i++ {
			p := v.particles[i]
			if !p.Active() {
				continue
			}
			v.aT[i] = v.acceleration(p, i, v.solver, v.time, v.step)
		}
	})
	v.initialized = true
}

func (v *VerletIntegrator) rebuildSolver() {
	v.solver.Reset()
	for _, p := range v.particles {
		if !p.Active() {
			continue
		}
		if err := v.solver.InsertParticle(p); err != nil {
			p.SetActive(false)
			p.SetSplatTime(v.time)
		}
	}
	v.solver.ComputeChargeDistribution()
}

// advance performs one velocity Verlet step.
func (v *VerletIntegrator) advance(dt float64) {
	if !v.initialized {
		v.initialize()
	}

	// Phase one: new positions and per-particle actions.
	v.parallel(func(worker, start, end int) {
		src := v.pool.SourceForWorker(worker)
		for i := start; i < end; i++ {
			p := v.particles[i]
			if !p.Active() {
				continue
			}
			v.newPos[i] = p.Location.
				Add(p.Velocity.Mul(dt)).
				Add(v.aT[i].Mul(dt * dt / 2))
			if v.otherActions != nil {
				v.otherActions(&v.newPos[i], p, i, v.time, v.step, src)
			}
		}
	})

	// Exclusive phase: commit positions and rebuild the charge
	// distribution. Particles leaving the domain splat at the boundary.
	for i, p := range v.particles {
		if p.Active() {
			p.Location = v.newPos[i]
		}
	}
	v.rebuildSolver()

	// Phase two: accelerations at the new positions, velocities,
	// collisions.
	v.parallel(func(worker, start, end int) {
		src := v.pool.SourceForWorker(worker)
		for i := start; i < end; i++ {
			p := v.particles[i]
			if !p.Active() {
				continue
			}
			v.aTdt[i] = v.acceleration(p, i, v.solver, v.time+dt, v.step)
			p.Velocity = p.Velocity.Add(v.aT[i].Add(v.aTdt[i]).Mul(dt / 2))
			v.aT[i] = v.aTdt[i]
			if v.model != nil {
				v.model.ApplyCollision(p, dt, src)
			}
		}
	})

	v.time += dt
	v.step++

	if v.timestepWrite != nil {
		v.timestepWrite(v.particles, v.time, v.step, false)
	}
}

// parallel runs fn over static particle chunks, one chunk per worker. The
// chunk to worker mapping depends only on the particle count and worker
// count, which keeps runs with a deterministic pool reproducible.
func (v *VerletIntegrator) parallel(fn func(worker, start, end int)) {
	n := len(v.particles)
	workers := v.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, 0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			fn(w, start, end)
		}(w, start, end)
	}
	wg.Wait()
}
