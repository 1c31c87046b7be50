package arena

import "math"

type Vec struct {
	X float64
	Y float64
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns the unit vector, or the zero vector unchanged.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Bounds is the axis-aligned rectangle entities are clamped to.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (b Bounds) Clamp(v Vec) Vec {
	return Vec{
		X: math.Min(math.Max(v.X, b.MinX), b.MaxX),
		Y: math.Min(math.Max(v.Y, b.MinY), b.MaxY),
	}
}

// Contains reports whether v lies inside the rectangle (inclusive).
func (b Bounds) Contains(v Vec) bool {
	return v.X >= b.MinX && v.X <= b.MaxX && v.Y >= b.MinY && v.Y <= b.MaxY
}
