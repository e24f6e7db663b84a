package ai

import (
	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/model"
)

// ScanFunc scans for actors within radius of center.
// Injected by the spawn manager to avoid import cycle with world package.
// Iteration order is unspecified; fn returning false stops the scan.
type ScanFunc func(center model.Location, radius float64, fn func(model.Handle, *model.Actor) bool)

// GetActorFunc looks up an actor by handle, nil for stale handles.
// Injected by the spawn manager to avoid import cycle with world package.
type GetActorFunc func(model.Handle) *model.Actor

// RaycastFunc returns the first actor hit along the ray from one point to
// another. Injected when line-of-sight filtering is wanted; the server has
// no physics, so it normally stays nil and detection ignores occlusion.
type RaycastFunc func(from, to model.Location) (model.Handle, bool)

// AffiliationResolver fetches the machine's own faction affiliation.
// Called lazily every tick until it returns non-nil, so attaching the
// affiliation may lag machine construction without breaking anything.
type AffiliationResolver func() *faction.Affiliation

// Movement is the locomotion capability a state machine drives. Required:
// a machine cannot be built without one.
type Movement interface {
	// RotateTowards points the actor at the target point.
	RotateTowards(target model.Location)

	// MoveTowards advances the actor toward the target point.
	MoveTowards(target model.Location)
}

// CombatBehavior is the combat capability a state machine drives.
// Optional: without one the machine still detects and chases but never
// enters combat.
type CombatBehavior interface {
	// AttackRange returns the distance at which combat can begin.
	AttackRange() float64

	// ExitCombatRange returns the distance beyond which combat ends. The
	// machine adds its configured exit buffer on top.
	ExitCombatRange() float64

	// CanEnterCombat reports whether the behavior accepts combat right now.
	CanEnterCombat() bool

	// OnCombatEnter fires after the machine has entered combat.
	OnCombatEnter(target model.Handle)

	// OnCombatExit fires before the machine leaves combat, whatever state
	// it leaves to.
	OnCombatExit()

	// ExecuteAttack performs one attack against the target.
	ExecuteAttack(target model.Handle)
}

// Events are optional transition observers. They fire synchronously inside
// the owning actor's tick: OnStateChanged first, then the target event of
// the same transition. Same-state transitions fire nothing.
type Events struct {
	OnStateChanged   func(from, to State)
	OnTargetAcquired func(target model.Handle)
	OnTargetLost     func(target model.Handle)
}
