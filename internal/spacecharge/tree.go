package spacecharge

import (
	"fmt"

	"github.com/san-kum/ionsim/internal/core"
)

// DefaultTheta is the default multipole acceptance threshold. Smaller
// values trade speed for accuracy; zero degenerates to the exact pairwise
// sum.
const DefaultTheta = 0.9

// maxDepth caps the subdivision of colocated particles. Below this depth
// particles are merged into one leaf and treated as individual point
// charges during field queries.
const maxDepth = 32

const noChild int32 = -1

// node is one cubical region of the octree. Nodes live in the tree's arena
// and reference children by arena index, so a rebuild discards the whole
// step's allocation at once.
type node struct {
	center     core.Vector
	halfLength float64

	charge   float64
	centroid core.Vector
	count    int32

	children  [8]int32
	leaf      bool
	particles []*core.Particle
}

func (n *node) reset(center core.Vector, halfLength float64) {
	n.center = center
	n.halfLength = halfLength
	n.charge = 0
	n.centroid = core.Vector{}
	n.count = 0
	n.children = [8]int32{noChild, noChild, noChild, noChild, noChild, noChild, noChild, noChild}
	n.leaf = true
	n.particles = n.particles[:0]
}

// octant selects the child octant of pos relative to the node center.
func (n *node) octant(pos core.Vector) int {
	o := 0
	if pos.X >= n.center.X {
		o |= 1
	}
	if pos.Y >= n.center.Y {
		o |= 2
	}
	if pos.Z >= n.center.Z {
		o |= 4
	}
	return o
}

func (n *node) childCenter(octant int) core.Vector {
	q := n.halfLength / 2
	c := n.center
	if octant&1 != 0 {
		c.X += q
	} else {
		c.X -= q
	}
	if octant&2 != 0 {
		c.Y += q
	} else {
		c.Y -= q
	}
	if octant&4 != 0 {
		c.Z += q
	} else {
		c.Z -= q
	}
	return c
}

func (n *node) contains(pos core.Vector) bool {
	return pos.X >= n.center.X-n.halfLength && pos.X <= n.center.X+n.halfLength &&
		pos.Y >= n.center.Y-n.halfLength && pos.Y <= n.center.Y+n.halfLength &&
		pos.Z >= n.center.Z-n.halfLength && pos.Z <= n.center.Z+n.halfLength
}

// Tree is a Barnes-Hut octree over the particle charges. Construction is a
// single-writer phase; after ComputeChargeDistribution the tree is
// immutable and EFieldFromSpaceCharge may be called from many goroutines
// concurrently.
type Tree struct {
	rootCenter     core.Vector
	rootHalfLength float64
	theta          float64

	nodes []node
}

// NewTree creates an empty tree spanning the axis-aligned box [min, max].
// The box is grown to a cube along its largest extent. theta is the
// multipole acceptance threshold.
func NewTree(min, max core.Vector, theta float64) *Tree {
	ext := max.Sub(min)
	half := ext.X
	if ext.Y > half {
		half = ext.Y
	}
	if ext.Z > half {
		half = ext.Z
	}
	half /= 2

	t := &Tree{
		rootCenter:     min.Add(max).Mul(0.5),
		rootHalfLength: half,
		theta:          theta,
	}
	t.Reset()
	return t
}

// Theta returns the multipole acceptance threshold.
func (t *Tree) Theta() float64 { return t.theta }

// Reset discards all nodes and restores the empty root. Node storage is
// kept for reuse by the next build.
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.newNode(t.rootCenter, t.rootHalfLength)
}

func (t *Tree) newNode(center core.Vector, halfLength float64) int32 {
	idx := int32(len(t.nodes))
	if cap(t.nodes) > len(t.nodes) {
		t.nodes = t.nodes[:len(t.nodes)+1]
	} else {
		t.nodes = append(t.nodes, node{})
	}
	t.nodes[idx].reset(center, halfLength)
	return idx
}

// NumberOfParticles reports how many particles the tree currently holds.
func (t *Tree) NumberOfParticles() int { return int(t.nodes[0].count) }

// InsertParticle adds a particle to the tree. A position outside the root
// cube is a domain error; the caller is expected to deactivate the
// particle rather than abort the step.
func (t *Tree) InsertParticle(p *core.Particle) error {
	if !t.nodes[0].contains(p.Location) {
		return fmt.Errorf("%w: position %+v", core.ErrOutsideDomain, p.Location)
	}

	idx := int32(0)
	depth := 0
	for {
		n := &t.nodes[idx]
		n.count++

		if !n.leaf {
			idx = t.childFor(idx, p.Location)
			depth++
			continue
		}

		if len(n.particles) == 0 || depth >= maxDepth {
			n.particles = append(n.particles, p)
			return nil
		}

		// Occupied leaf: push the occupants one level down and retry.
		// Count already includes them, so only relocate the references.
		occupants := n.particles
		n.particles = nil
		n.leaf = false
		for _, q := range occupants {
			child := t.childFor(idx, q.Location)
			c := &t.nodes[child]
			c.count++
			c.particles = append(c.particles, q)
		}
		n = &t.nodes[idx]
		n.count-- // undo the increment; the retry pass counts it again
	}
}

// childFor returns the child node of parent covering pos, creating it if
// needed. May grow the arena and therefore invalidate node pointers.
func (t *Tree) childFor(parent int32, pos core.Vector) int32 {
	o := t.nodes[parent].octant(pos)
	child := t.nodes[parent].children[o]
	if child == noChild {
		center := t.nodes[parent].childCenter(o)
		half := t.nodes[parent].halfLength / 2
		child = t.newNode(center, half)
		t.nodes[parent].children[o] = child
	}
	return child
}

// RemoveParticle takes a particle out of the tree. The node counts along
// the path are adjusted; aggregates are only valid again after the next
// ComputeChargeDistribution.
func (t *Tree) RemoveParticle(p *core.Particle) error {
	// Locate first so counts stay consistent if the particle is absent.
	path := make([]int32, 0, maxDepth+1)
	idx := int32(0)
	for {
		n := &t.nodes[idx]
		path = append(path, idx)
		if n.leaf {
			break
		}
		o := n.octant(p.Location)
		child := n.children[o]
		if child == noChild {
			return fmt.Errorf("%w: particle not in tree", core.ErrOutsideDomain)
		}
		idx = child
	}

	leaf := &t.nodes[idx]
	found := -1
	for i, q := range leaf.particles {
		if q == p {
			found = i
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("%w: particle not in tree", core.ErrOutsideDomain)
	}
	leaf.particles = append(leaf.particles[:found], leaf.particles[found+1:]...)
	for _, i := range path {
		t.nodes[i].count--
	}
	return nil
}

// ComputeChargeDistribution aggregates total charge and charge centroid of
// every node from the leaves upward. It must complete before any field
// query; empty nodes are skipped during queries, which prunes them
// logically.
func (t *Tree) ComputeChargeDistribution() {
	t.aggregate(0)
}

func (t *Tree) aggregate(idx int32) {
	n := &t.nodes[idx]
	n.charge = 0
	weighted := core.Vector{}
	positions := core.Vector{}

	if n.leaf {
		for _, p := range n.particles {
			q := p.Charge()
			n.charge += q
			weighted = weighted.Add(p.Location.Mul(q))
			positions = positions.Add(p.Location)
		}
		n.centroid = centroidOf(weighted, positions, n.charge, int(n.count), n.center)
		return
	}

	for _, child := range n.children {
		if child == noChild || t.nodes[child].count == 0 {
			continue
		}
		t.aggregate(child)
		c := &t.nodes[child]
		n.charge += c.charge
		weighted = weighted.Add(c.centroid.Mul(c.charge))
		positions = positions.Add(c.centroid)
	}
	n.centroid = centroidOf(weighted, positions, n.charge, childCount(t, idx), n.center)
}

// centroidOf computes the charge weighted centroid with a fallback to the
// arithmetic mean for neutral aggregates (total charge zero).
func centroidOf(weighted, positions core.Vector, charge float64, n int, center core.Vector) core.Vector {
	if charge != 0 {
		return weighted.Div(charge)
	}
	if n > 0 {
		return positions.Div(float64(n))
	}
	return center
}

func childCount(t *Tree, idx int32) int {
	n := 0
	for _, child := range t.nodes[idx].children {
		if child != noChild && t.nodes[child].count > 0 {
			n++
		}
	}
	return n
}

// EFieldFromSpaceCharge returns the electric field at the particle's
// position caused by all other particles in the tree. A node is taken as a
// point charge at its centroid when its edge length over the distance to
// the target is below theta; otherwise it is opened. The target particle
// itself contributes nothing.
func (t *Tree) EFieldFromSpaceCharge(p *core.Particle) core.Vector {
	field := core.Vector{}
	stack := make([]int32, 0, 64)
	stack = append(stack, 0)

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[idx]
		if n.count == 0 {
			continue
		}

		if n.leaf {
			for _, q := range n.particles {
				if q == p {
					continue
				}
				field = field.Add(coulombField(q.Charge(), q.Location, p.Location))
			}
			continue
		}

		r := p.Location.Sub(n.centroid)
		d := r.Norm()
		if d > 0 && (2*n.halfLength)/d < t.theta {
			field = field.Add(coulombField(n.charge, n.centroid, p.Location))
			continue
		}

		for _, child := range n.children {
			if child != noChild && t.nodes[child].count > 0 {
				stack = append(stack, child)
			}
		}
	}
	return field
}

// coulombField is the field at target caused by a point charge at source.
func coulombField(charge float64, source, target core.Vector) core.Vector {
	r := target.Sub(source)
	d2 := r.NormSquared()
	if d2 == 0 {
		return core.Vector{}
	}
	d := r.Norm()
	return r.Mul(core.ElectricConstant * charge / (d2 * d))
}
