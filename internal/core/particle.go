package core

// Particle is a single simulated charged particle. Particles are owned by
// the caller; the integrator and field solvers hold non-owning references.
// The attribute maps carry named per-particle quantities that collision
// models and diagnostics stash between steps (for example a collision
// counter or the last sampled field value). They are allocated lazily.
//
// A particle is touched by at most one worker during a parallel phase, so
// none of the mutators are synchronized.
type Particle struct {
	Location Vector
	Velocity Vector

	charge   float64 // coulomb
	mass     float64 // kg
	diameter float64 // m, used by collision models

	active      bool
	splatTime   float64
	timeOfBirth float64

	speciesIndex int

	floatAttrs map[string]float64
	intAttrs   map[string]int
}

// NewParticle creates an active particle with a charge given in elementary
// charges and a mass given in atomic mass units.
func NewParticle(location Vector, velocity Vector, chargeElementary float64, massAMU float64) *Particle {
	return &Particle{
		Location: location,
		Velocity: velocity,
		charge:   chargeElementary * ElementaryCharge,
		mass:     massAMU * AmuToKg,
		active:   true,
	}
}

func (p *Particle) Charge() float64 { return p.charge }

// SetChargeElementary sets the charge in units of elementary charges.
func (p *Particle) SetChargeElementary(charge float64) {
	p.charge = charge * ElementaryCharge
}

func (p *Particle) Mass() float64 { return p.mass }

// SetMassAMU sets the mass in atomic mass units.
func (p *Particle) SetMassAMU(massAMU float64) {
	p.mass = massAMU * AmuToKg
}

func (p *Particle) Diameter() float64            { return p.diameter }
func (p *Particle) SetDiameter(diameter float64) { p.diameter = diameter }

func (p *Particle) Active() bool          { return p.active }
func (p *Particle) SetActive(active bool) { p.active = active }

func (p *Particle) SplatTime() float64       { return p.splatTime }
func (p *Particle) SetSplatTime(t float64)   { p.splatTime = t }
func (p *Particle) TimeOfBirth() float64     { return p.timeOfBirth }
func (p *Particle) SetTimeOfBirth(t float64) { p.timeOfBirth = t }

// SpeciesIndex identifies the chemical species of the particle. Collision
// models refresh their per-particle parameters when it changes.
func (p *Particle) SpeciesIndex() int       { return p.speciesIndex }
func (p *Particle) SetSpeciesIndex(idx int) { p.speciesIndex = idx }

func (p *Particle) SetFloatAttribute(key string, value float64) {
	if p.floatAttrs == nil {
		p.floatAttrs = make(map[string]float64)
	}
	p.floatAttrs[key] = value
}

// FloatAttribute returns the named float attribute, or zero if unset.
func (p *Particle) FloatAttribute(key string) float64 {
	return p.floatAttrs[key]
}

func (p *Particle) HasFloatAttribute(key string) bool {
	_, ok := p.floatAttrs[key]
	return ok
}

func (p *Particle) SetIntAttribute(key string, value int) {
	if p.intAttrs == nil {
		p.intAttrs = make(map[string]int)
	}
	p.intAttrs[key] = value
}

// IntAttribute returns the named integer attribute, or zero if unset.
func (p *Particle) IntAttribute(key string) int {
	return p.intAttrs[key]
}

func (p *Particle) HasIntAttribute(key string) bool {
	_, ok := p.intAttrs[key]
	return ok
}
