package simulation

import (
	"fmt"

	"github.com/san-kum/ionsim/internal/collision"
	"github.com/san-kum/ionsim/internal/config"
	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/integrate"
	"github.com/san-kum/ionsim/internal/rng"
	"github.com/san-kum/ionsim/internal/spacecharge"
)

// Setup is a fully assembled simulation built from a configuration. The
// caller attaches a timestep write hook and constructs the integrator.
type Setup struct {
	Particles []*core.Particle
	Tracker   *StartSplatTracker
	Zone      StartZone
	Pool      rng.Pool

	// RestartResetsVelocity additionally zeroes the velocity of particles
	// restarted at the boundary.
	RestartResetsVelocity bool

	cfg *config.Config
}

// Build assembles particles, random pool, tracker and start zone from a
// validated configuration.
func Build(cfg *config.Config) (*Setup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var pool rng.Pool
	if cfg.Seed != 0 {
		p := rng.NewTestGeneratorPool()
		p.SetSeedForElements(cfg.Seed)
		pool = p
	} else {
		pool = rng.NewGeneratorPool()
	}

	zone, err := buildZone(cfg.StartZone)
	if err != nil {
		return nil, err
	}

	setupSrc := pool.SourceForWorker(0)
	particles := make([]*core.Particle, 0, cfg.TotalIons())
	for species, group := range cfg.Ions {
		batch := RandomParticlesInStartZone(zone, group.N, group.ChargeElementary, group.MassAMU, 0, setupSrc)
		for _, p := range batch {
			p.SetSpeciesIndex(species)
		}
		particles = append(particles, batch...)
	}

	return &Setup{
		Particles: particles,
		Tracker:   NewStartSplatTracker(),
		Zone:      zone,
		Pool:      pool,
		cfg:       cfg,
	}, nil
}

func buildZone(zc config.StartZone) (StartZone, error) {
	switch zc.Shape {
	case config.ZoneBox:
		return NewBoxStartZone(config.Vec(zc.Corner), config.Vec(zc.Size)), nil
	case config.ZoneCylinder:
		return NewCylinderStartZone(zc.Radius, zc.HalfLength, config.Vec(zc.Center), config.Vec(zc.Axis)), nil
	default:
		return nil, fmt.Errorf("%w: unknown start zone shape %q", core.ErrInvalidConfiguration, zc.Shape)
	}
}

// CollisionModel builds the configured background gas model, or nil for
// a collisionless run.
func (s *Setup) CollisionModel() collision.Model {
	gas := s.cfg.BackgroundGas
	switch s.cfg.CollisionModel {
	case config.ModelHardSphere:
		g := gas[0]
		return collision.NewHardSphere(g.PressurePa, g.TemperatureK, g.MassAMU, g.DiameterM)
	case config.ModelSDS:
		g := gas[0]
		return collision.NewStatisticalDiffusion(g.PressurePa, g.TemperatureK, g.MassAMU, g.DiameterM)
	case config.ModelMulti:
		subs := make([]collision.Model, len(gas))
		for i, g := range gas {
			subs[i] = collision.NewHardSphere(g.PressurePa, g.TemperatureK, g.MassAMU, g.DiameterM)
		}
		return collision.NewMulti(subs...)
	default:
		return nil
	}
}

// Acceleration is the configured acceleration function: scaled space
// charge field plus the uniform background field, times q/m.
func (s *Setup) Acceleration() integrate.AccelerationFunc {
	factor := s.cfg.SpaceChargeFactor
	background := config.Vec(s.cfg.BackgroundField)

	return func(p *core.Particle, _ int, field spacecharge.FieldCalculator, _ float64, _ int) core.Vector {
		e := background
		if factor > 0 {
			e = e.Add(field.EFieldFromSpaceCharge(p).Mul(factor))
		}
		return e.Mul(p.Charge() / p.Mass())
	}
}

// OtherActions is the configured boundary policy hook. In terminate mode
// particles leaving the domain splat; in restart mode they are moved to a
// fresh position in the start zone, drawn from the calling worker's source
// so restarts stay reproducible under a deterministic pool.
func (s *Setup) OtherActions() integrate.OtherActionsFunc {
	min := config.Vec(s.cfg.Domain.Min)
	max := config.Vec(s.cfg.Domain.Max)
	restart := s.cfg.TerminationMode == config.TerminationRestart

	return func(newPos *core.Vector, p *core.Particle, _ int, time float64, _ int, src *rng.Source) {
		if insideBox(*newPos, min, max) {
			return
		}
		if restart {
			fresh := s.Zone.RandomParticlePosition(src)
			*newPos = fresh
			if s.RestartResetsVelocity {
				p.Velocity = core.Vector{}
			}
			s.Tracker.ParticleRestart(p, fresh, time)
			return
		}
		p.SetActive(false)
		p.SetSplatTime(time)
		s.Tracker.ParticleSplat(p, time)
	}
}

// StartMonitoring feeds new particles into the tracker.
func (s *Setup) StartMonitoring() integrate.ParticleStartMonitoringFunc {
	return func(p *core.Particle, time float64) {
		s.Tracker.ParticleStart(p, time)
	}
}

// IntegratorOptions bundles the configured pieces into integrator options.
// The timestep write hook is left for the caller.
func (s *Setup) IntegratorOptions() integrate.Options {
	theta := s.cfg.Theta
	if theta == 0 {
		theta = -1 // configured zero means exact sum
	}
	return integrate.Options{
		Acceleration:    s.Acceleration(),
		OtherActions:    s.OtherActions(),
		StartMonitoring: s.StartMonitoring(),
		CollisionModel:  s.CollisionModel(),
		RandomPool:      s.Pool,
		DomainMin:       config.Vec(s.cfg.Domain.Min),
		DomainMax:       config.Vec(s.cfg.Domain.Max),
		Theta:           theta,
		Workers:         s.cfg.Workers,
	}
}

func insideBox(v, min, max core.Vector) bool {
	return v.X >= min.X && v.X <= max.X &&
		v.Y >= min.Y && v.Y <= max.Y &&
		v.Z >= min.Z && v.Z <= max.Z
}
