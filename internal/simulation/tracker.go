package simulation

import (
	"sort"
	"sync"

	"github.com/san-kum/ionsim/internal/core"
)

// AttrGlobalIndex is the particle integer attribute carrying the global
// particle index assigned by the tracker.
const AttrGlobalIndex = "global index"

// LifecycleState describes where a tracked particle is in its lifecycle.
type LifecycleState int

const (
	LifecycleStarted LifecycleState = iota
	LifecycleSplatted
	LifecycleRestarted
)

// StartSplatRecord is the recorded lifecycle of one particle.
type StartSplatRecord struct {
	GlobalIndex   int
	State         LifecycleState
	StartTime     float64
	SplatTime     float64
	StartLocation core.Vector
	SplatLocation core.Vector
	Restarts      int
	LastRestart   float64
}

// StartSplatTracker records when and where particles enter the simulation
// and when and where they splat. Particles restarted at a boundary keep
// their record; only the restart count grows. All methods are safe for
// concurrent use, so the tracker can be driven directly from the
// integrator hooks.
type StartSplatTracker struct {
	mu        sync.Mutex
	records   map[*core.Particle]*StartSplatRecord
	nextIndex int
}

func NewStartSplatTracker() *StartSplatTracker {
	return &StartSplatTracker{records: make(map[*core.Particle]*StartSplatRecord)}
}

// ParticleStart registers a particle and stamps its global index into the
// particle attributes. Registering a particle twice keeps the first record.
func (t *StartSplatTracker) ParticleStart(p *core.Particle, time float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[p]; ok {
		return
	}
	rec := &StartSplatRecord{
		GlobalIndex:   t.nextIndex,
		State:         LifecycleStarted,
		StartTime:     time,
		StartLocation: p.Location,
	}
	t.records[p] = rec
	t.nextIndex++
	p.SetIntAttribute(AttrGlobalIndex, rec.GlobalIndex)
}

// ParticleSplat records the terminal position and time of a particle.
func (t *StartSplatTracker) ParticleSplat(p *core.Particle, time float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[p]
	if !ok {
		return
	}
	rec.State = LifecycleSplatted
	rec.SplatTime = time
	rec.SplatLocation = p.Location
}

// ParticleRestart records that a particle hit a boundary and was moved to
// newPosition instead of splatting.
func (t *StartSplatTracker) ParticleRestart(p *core.Particle, newPosition core.Vector, time float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[p]
	if !ok {
		return
	}
	rec.State = LifecycleRestarted
	rec.Restarts++
	rec.LastRestart = time
	p.Location = newPosition
}

// Records returns a snapshot of all lifecycle records sorted by global
// index.
func (t *StartSplatTracker) Records() []StartSplatRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]StartSplatRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalIndex < out[j].GlobalIndex })
	return out
}

// Started reports how many particles were registered.
func (t *StartSplatTracker) Started() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Splatted reports how many registered particles have splatted.
func (t *StartSplatTracker) Splatted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, rec := range t.records {
		if rec.State == LifecycleSplatted {
			n++
		}
	}
	return n
}
