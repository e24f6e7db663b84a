package model

import "math"

// Location is a point in the world plus a facing angle. Value type, passed
// by value everywhere. Z is the vertical axis; Heading is radians in the
// XY plane.
type Location struct {
	X       float64
	Y       float64
	Z       float64
	Heading float64
}

// NewLocation creates a location at the given coordinates with zero heading.
func NewLocation(x, y, z float64) Location {
	return Location{X: x, Y: y, Z: z}
}

// WithHeading returns a copy of the location with the facing angle replaced.
func (l Location) WithHeading(heading float64) Location {
	l.Heading = heading
	return l
}

// DistanceSquared returns the squared distance to another point. Prefer
// this on hot paths where the comparison radius can be squared instead.
func (l Location) DistanceSquared(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the distance to another point.
func (l Location) Distance(other Location) float64 {
	return math.Sqrt(l.DistanceSquared(other))
}

// HeadingTo returns the facing angle from this point toward another, in
// radians in the XY plane.
func (l Location) HeadingTo(other Location) float64 {
	return math.Atan2(other.Y-l.Y, other.X-l.X)
}
