package world

import (
	"math"
	"testing"
	"time"

	"github.com/veyrn/ravenfell/internal/model"
)

func TestMoverMoveTowardsStepsAtSpeed(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Wolf", model.KindNPC, 20, 4, model.NewLocation(0, 0, 0))
	h := w.Add(a)

	// 4 units/s at a 500ms step: 2 units per call.
	m := NewMover(w, h, 500*time.Millisecond)
	target := model.NewLocation(10, 0, 0)

	m.MoveTowards(target)
	if loc := a.Location(); math.Abs(loc.X-2) > 1e-9 || loc.Y != 0 {
		t.Errorf("expected (2,0) after one step, got (%v,%v)", loc.X, loc.Y)
	}

	m.MoveTowards(target)
	if loc := a.Location(); math.Abs(loc.X-4) > 1e-9 {
		t.Errorf("expected (4,0) after two steps, got %v", loc.X)
	}
}

func TestMoverMoveTowardsNoOvershoot(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Wolf", model.KindNPC, 20, 100, model.NewLocation(0, 0, 0))
	h := w.Add(a)

	m := NewMover(w, h, time.Second)
	target := model.NewLocation(3, 4, 0)

	m.MoveTowards(target)
	loc := a.Location()
	if loc.X != 3 || loc.Y != 4 {
		t.Errorf("expected to land exactly on target, got (%v,%v)", loc.X, loc.Y)
	}

	// Standing on the target, another step stays put.
	m.MoveTowards(target)
	loc = a.Location()
	if loc.X != 3 || loc.Y != 4 {
		t.Errorf("expected to stay on target, got (%v,%v)", loc.X, loc.Y)
	}
}

func TestMoverMoveTowardsFacesTravel(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Wolf", model.KindNPC, 20, 1, model.NewLocation(0, 0, 0))
	h := w.Add(a)

	NewMover(w, h, time.Second).MoveTowards(model.NewLocation(0, 50, 0))
	if got := a.Location().Heading; math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("expected heading pi/2, got %v", got)
	}
}

func TestMoverRotateTowards(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Wolf", model.KindNPC, 20, 3, model.NewLocation(5, 5, 0))
	h := w.Add(a)

	NewMover(w, h, time.Second).RotateTowards(model.NewLocation(-5, 5, 0))
	loc := a.Location()
	if math.Abs(loc.Heading-math.Pi) > 1e-9 {
		t.Errorf("expected heading pi, got %v", loc.Heading)
	}
	if loc.X != 5 || loc.Y != 5 {
		t.Errorf("rotation must not move the actor, got (%v,%v)", loc.X, loc.Y)
	}
}

func TestMoverStaleHandleNoOp(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Wolf", model.KindNPC, 20, 3, model.NewLocation(0, 0, 0))
	h := w.Add(a)
	m := NewMover(w, h, time.Second)
	w.Remove(h)

	m.MoveTowards(model.NewLocation(10, 0, 0))
	m.RotateTowards(model.NewLocation(10, 0, 0))

	if loc := a.Location(); loc.X != 0 || loc.Heading != 0 {
		t.Errorf("stale mover must not touch the actor, got %+v", loc)
	}
}

func TestMoverZeroSpeedStaysPut(t *testing.T) {
	w := NewWorld(16)
	a := model.NewActor("Statue", model.KindNPC, 20, 0, model.NewLocation(1, 1, 0))
	h := w.Add(a)

	NewMover(w, h, time.Second).MoveTowards(model.NewLocation(10, 10, 0))
	if loc := a.Location(); loc.X != 1 || loc.Y != 1 {
		t.Errorf("zero-speed actor must not move, got (%v,%v)", loc.X, loc.Y)
	}
}
