package world

import (
	"time"

	"github.com/veyrn/ravenfell/internal/model"
)

// Mover is the kinematic movement capability for one actor: rotate toward
// a point, step toward it at the actor's speed. It satisfies the AI
// movement contract and keeps the grid in sync through UpdateLocation.
// A full locomotion system (pathing, collision) would replace it behind
// the same two methods.
type Mover struct {
	world *World
	self  model.Handle
	step  time.Duration
}

// NewMover creates a mover for the actor behind self. step is the movement
// timestep, normally the AI tick interval.
func NewMover(w *World, self model.Handle, step time.Duration) *Mover {
	if step <= 0 {
		step = time.Second
	}
	return &Mover{world: w, self: self, step: step}
}

// RotateTowards points the actor at the target. No-op once the handle has
// gone stale.
func (m *Mover) RotateTowards(target model.Location) {
	a := m.world.Get(m.self)
	if a == nil {
		return
	}
	loc := a.Location()
	m.world.UpdateLocation(m.self, loc.WithHeading(loc.HeadingTo(target)))
}

// MoveTowards advances the actor one step toward the target at its move
// speed, facing the direction of travel and never overshooting. No-op
// once the handle has gone stale.
func (m *Mover) MoveTowards(target model.Location) {
	a := m.world.Get(m.self)
	if a == nil {
		return
	}

	loc := a.Location()
	dist := loc.Distance(target)
	if dist == 0 {
		return
	}

	maxStep := a.MoveSpeed() * m.step.Seconds()
	if maxStep <= 0 {
		return
	}

	frac := maxStep / dist
	if frac > 1 {
		frac = 1
	}

	next := model.Location{
		X:       loc.X + (target.X-loc.X)*frac,
		Y:       loc.Y + (target.Y-loc.Y)*frac,
		Z:       loc.Z + (target.Z-loc.Z)*frac,
		Heading: loc.HeadingTo(target),
	}
	m.world.UpdateLocation(m.self, next)
}
