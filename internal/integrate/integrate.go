// Package integrate advances particle clouds through time. The velocity
// Verlet integrator alternates parallel particle phases with an exclusive
// space charge tree rebuild; user supplied function values hook external
// forces, per-step output and custom particle actions into the step
// pipeline.
package integrate

import (
	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
	"github.com/san-kum/ionsim/internal/spacecharge"
)

// AccelerationFunc computes the total acceleration of a particle. field
// yields the space charge contribution; external fields, gas flow drag and
// similar forces are added by the function itself. It is called from
// parallel phases and must not mutate shared state.
type AccelerationFunc func(p *core.Particle, index int, field spacecharge.FieldCalculator, time float64, step int) core.Vector

// TimestepWriteFunc receives the full particle slice after every completed
// step and once more with lastStep true when the run is finalized. It is
// called serially; gating output to an interval is the callback's business.
type TimestepWriteFunc func(particles []*core.Particle, time float64, step int, lastStep bool)

// OtherActionsFunc runs during the position update phase, after the new
// position is computed but before it is committed. It may modify newPos
// (boundary reflection, restart) or deactivate the particle (splat). It is
// called from parallel phases; it must only touch its own particle, and any
// random draws must come from src, the source owned by the calling worker.
type OtherActionsFunc func(newPos *core.Vector, p *core.Particle, index int, time float64, step int, src *rng.Source)

// ParticleStartMonitoringFunc is invoked once when a particle enters the
// simulation, either at integrator construction or through AddParticle.
type ParticleStartMonitoringFunc func(p *core.Particle, time float64)

// RunState is the lifecycle state of an integrator.
type RunState int32

const (
	// StateInitializing is the state before the first step; the initial
	// accelerations are not computed yet.
	StateInitializing RunState = iota
	// StateRunning is the state while steps are being taken.
	StateRunning
	// StateTerminating means termination was requested; the run stops at
	// the next step boundary.
	StateTerminating
	// StateFinalized means Finalize ran; the integrator takes no more steps.
	StateFinalized
)

func (s RunState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}
