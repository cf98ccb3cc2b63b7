package core

import "math"

// Vector is a cartesian vector in three dimensions.
type Vector struct {
	X, Y, Z float64
}

func (v Vector) Add(other Vector) Vector {
	return Vector{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vector) Sub(other Vector) Vector {
	return Vector{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vector) Mul(s float64) Vector {
	return Vector{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector) Div(s float64) Vector {
	return Vector{v.X / s, v.Y / s, v.Z / s}
}

func (v Vector) Dot(other Vector) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vector) Cross(other Vector) Vector {
	return Vector{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

func (v Vector) NormSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

// Normalized returns the unit vector pointing in the direction of v,
// or the zero vector if v has zero length.
func (v Vector) Normalized() Vector {
	n := v.Norm()
	if n == 0 {
		return Vector{}
	}
	return v.Div(n)
}

func (v Vector) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
