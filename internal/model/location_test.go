package model

import (
	"math"
	"testing"
)

func TestLocationDistance(t *testing.T) {
	a := NewLocation(0, 0, 0)
	b := NewLocation(3, 4, 0)

	if got := a.Distance(b); got != 5 {
		t.Errorf("expected distance 5, got %v", got)
	}
	if got := a.DistanceSquared(b); got != 25 {
		t.Errorf("expected squared distance 25, got %v", got)
	}
}

func TestLocationDistanceUsesAllAxes(t *testing.T) {
	a := NewLocation(1, 2, 3)
	b := NewLocation(1, 2, 10)

	if got := a.Distance(b); got != 7 {
		t.Errorf("expected vertical distance 7, got %v", got)
	}
}

func TestLocationHeadingTo(t *testing.T) {
	origin := NewLocation(0, 0, 0)

	tests := []struct {
		name   string
		target Location
		want   float64
	}{
		{"east", NewLocation(10, 0, 0), 0},
		{"north", NewLocation(0, 10, 0), math.Pi / 2},
		{"west", NewLocation(-10, 0, 0), math.Pi},
		{"south", NewLocation(0, -10, 0), -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := origin.HeadingTo(tt.target); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected heading %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLocationWithHeading(t *testing.T) {
	loc := NewLocation(5, 6, 7)
	turned := loc.WithHeading(1.5)

	if turned.Heading != 1.5 {
		t.Errorf("expected heading 1.5, got %v", turned.Heading)
	}
	if turned.X != 5 || turned.Y != 6 || turned.Z != 7 {
		t.Errorf("WithHeading must not move the point, got %+v", turned)
	}
	if loc.Heading != 0 {
		t.Errorf("original location modified: %+v", loc)
	}
}
