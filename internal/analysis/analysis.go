// Package analysis computes cloud diagnostics from recorded trajectories:
// effective temperature, spatial extent and speed distributions per
// recorded time step.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/trajectory"
)

// Snapshot holds the trajectory records of a single recorded time step.
type Snapshot struct {
	Step    int
	Time    float64
	Records []trajectory.Record
}

// GroupBySteps splits a trajectory into per-step snapshots, in record
// order. Trajectory files are written step by step, so the result is
// ordered by time.
func GroupBySteps(records []trajectory.Record) []Snapshot {
	var snapshots []Snapshot
	for _, rec := range records {
		n := len(snapshots)
		if n == 0 || snapshots[n-1].Step != rec.Step {
			snapshots = append(snapshots, Snapshot{Step: rec.Step, Time: rec.Time})
			n++
		}
		snapshots[n-1].Records = append(snapshots[n-1].Records, rec)
	}
	return snapshots
}

// ActiveCount is the number of active particles in the snapshot.
func (s Snapshot) ActiveCount() int {
	n := 0
	for _, rec := range s.Records {
		if rec.Active {
			n++
		}
	}
	return n
}

// CenterOfMass is the mass weighted mean position of the active particles.
func (s Snapshot) CenterOfMass() core.Vector {
	var com core.Vector
	total := 0.0
	for _, rec := range s.Records {
		if !rec.Active {
			continue
		}
		m := rec.MassAMU * core.AmuToKg
		com = com.Add(core.Vector{X: rec.X, Y: rec.Y, Z: rec.Z}.Mul(m))
		total += m
	}
	if total == 0 {
		return core.Vector{}
	}
	return com.Mul(1 / total)
}

// RMSRadius is the root mean square distance of the active particles from
// their center of mass.
func (s Snapshot) RMSRadius() float64 {
	com := s.CenterOfMass()
	sum := 0.0
	n := 0
	for _, rec := range s.Records {
		if !rec.Active {
			continue
		}
		d := core.Vector{X: rec.X, Y: rec.Y, Z: rec.Z}.Sub(com)
		sum += d.Dot(d)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// MeanKineticEnergy is the mean kinetic energy of the active particles
// in joule.
func (s Snapshot) MeanKineticEnergy() float64 {
	sum := 0.0
	n := 0
	for _, rec := range s.Records {
		if !rec.Active {
			continue
		}
		v2 := rec.VX*rec.VX + rec.VY*rec.VY + rec.VZ*rec.VZ
		sum += 0.5 * rec.MassAMU * core.AmuToKg * v2
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Temperature is the effective translational temperature of the active
// particles, T = 2<E_kin> / (3 k_B).
func (s Snapshot) Temperature() float64 {
	return 2 * s.MeanKineticEnergy() / (3 * core.Boltzmann)
}

// Speeds collects the speeds of the active particles.
func (s Snapshot) Speeds() []float64 {
	speeds := make([]float64, 0, len(s.Records))
	for _, rec := range s.Records {
		if !rec.Active {
			continue
		}
		speeds = append(speeds, math.Sqrt(rec.VX*rec.VX+rec.VY*rec.VY+rec.VZ*rec.VZ))
	}
	return speeds
}

// Summary is the per-snapshot diagnostic row of a trajectory.
type Summary struct {
	Step        int
	Time        float64
	Active      int
	MeanKinetic float64
	Temperature float64
	RMSRadius   float64
	MeanSpeed   float64
	SpeedStdDev float64
}

// Summarize computes the diagnostic series of a recorded trajectory.
func Summarize(records []trajectory.Record) []Summary {
	snapshots := GroupBySteps(records)
	summaries := make([]Summary, 0, len(snapshots))
	for _, s := range snapshots {
		speeds := s.Speeds()
		mean, std := stat.MeanStdDev(speeds, nil)
		if len(speeds) < 2 {
			std = 0
		}
		if len(speeds) == 0 {
			mean = 0
		}
		summaries = append(summaries, Summary{
			Step:        s.Step,
			Time:        s.Time,
			Active:      s.ActiveCount(),
			MeanKinetic: s.MeanKineticEnergy(),
			Temperature: s.Temperature(),
			RMSRadius:   s.RMSRadius(),
			MeanSpeed:   mean,
			SpeedStdDev: std,
		})
	}
	return summaries
}

// SpeedHistogram is a binned speed distribution.
type SpeedHistogram struct {
	// Edges holds bins+1 bin boundaries in m/s.
	Edges []float64
	// Counts holds the particle count per bin.
	Counts []float64
}

// NewSpeedHistogram bins the speed distribution of a snapshot into the
// given number of equal width bins spanning [0, max speed].
func NewSpeedHistogram(s Snapshot, bins int) SpeedHistogram {
	if bins < 1 {
		bins = 1
	}
	speeds := s.Speeds()

	maxSpeed := 0.0
	for _, v := range speeds {
		if v > maxSpeed {
			maxSpeed = v
		}
	}
	if maxSpeed == 0 {
		maxSpeed = 1
	}

	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = maxSpeed * float64(i) / float64(bins)
	}

	counts := make([]float64, bins)
	for _, v := range speeds {
		bin := int(v / maxSpeed * float64(bins))
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	return SpeedHistogram{Edges: edges, Counts: counts}
}
