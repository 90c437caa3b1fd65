// Package geom provides the 2D vector value type used by the simulation.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector2 is an immutable 2D vector. Every operation returns a new value.
// It shares its layout with r2.Vec so arithmetic can delegate to gonum.
type Vector2 r2.Vec

// Zero is the zero vector.
var Zero = Vector2{}

// V builds a vector from its components.
func V(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// FromAngle returns the unit vector pointing at angle radians.
func FromAngle(angle float64) Vector2 {
	return Vector2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Polar returns a vector with the given magnitude pointing at angle radians.
func Polar(angle, magnitude float64) Vector2 {
	return Vector2{X: math.Cos(angle) * magnitude, Y: math.Sin(angle) * magnitude}
}

func (v Vector2) vec() r2.Vec { return r2.Vec(v) }

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2(r2.Add(v.vec(), o.vec()))
}

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2(r2.Sub(v.vec(), o.vec()))
}

// Scale returns v * f.
func (v Vector2) Scale(f float64) Vector2 {
	return Vector2(r2.Scale(f, v.vec()))
}

// Div returns v / f.
func (v Vector2) Div(f float64) Vector2 {
	return Vector2{X: v.X / f, Y: v.Y / f}
}

// Neg returns -v.
func (v Vector2) Neg() Vector2 {
	return Vector2{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of v and o.
func (v Vector2) Dot(o Vector2) float64 {
	return r2.Dot(v.vec(), o.vec())
}

// Cross returns the z component of the cross product of v and o.
func (v Vector2) Cross(o Vector2) float64 {
	return r2.Cross(v.vec(), o.vec())
}

// Len returns the magnitude of v.
func (v Vector2) Len() float64 {
	return r2.Norm(v.vec())
}

// LenSq returns the squared magnitude of v.
func (v Vector2) LenSq() float64 {
	return r2.Norm2(v.vec())
}

// IsZero reports whether both components are zero.
func (v Vector2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Normalize returns the unit vector with the direction of v.
// The zero vector normalizes to itself.
func (v Vector2) Normalize() Vector2 {
	if v.IsZero() {
		return Zero
	}
	return Vector2(r2.Unit(v.vec()))
}

// Rotate returns v rotated by angle radians around the origin.
func (v Vector2) Rotate(angle float64) Vector2 {
	return Vector2(r2.Rotate(v.vec(), angle, r2.Vec{}))
}

// Angle returns the signed angle in radians from v to o, in [-π/2, π/2].
// Returns 0 when either vector is zero.
func (v Vector2) Angle(o Vector2) float64 {
	denom := v.Len() * o.Len()
	if denom == 0 {
		return 0
	}
	s := v.Cross(o) / denom
	// clamp rounding noise before asin
	s = math.Max(-1, math.Min(1, s))
	return math.Asin(s)
}

// Heading returns the angle of v relative to the positive X axis.
func (v Vector2) Heading() float64 {
	return math.Atan2(v.Y, v.X)
}

// DistanceSq returns the squared distance between v and o.
func (v Vector2) DistanceSq(o Vector2) float64 {
	return v.Sub(o).LenSq()
}

// String renders the vector as "(x, y)".
func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
