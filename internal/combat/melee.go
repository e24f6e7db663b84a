package combat

import (
	"log/slog"
	"sync/atomic"

	"github.com/veyrn/ravenfell/internal/model"
)

// ResolveFunc looks an actor up by handle. Injected by the world driver so
// this package carries no world dependency.
type ResolveFunc func(model.Handle) *model.Actor

// HitFunc observes landed hits. Used by the inspect event stream and tests.
type HitFunc func(target model.Handle, damage int32, remaining int32)

// MeleeConfig tunes one melee behavior.
type MeleeConfig struct {
	// AttackRange is the distance at which combat can begin.
	AttackRange float64

	// ExitRange is the distance beyond which combat ends. Zero defaults
	// to 1.5x the attack range so a target stepping just outside attack
	// range does not immediately break combat.
	ExitRange float64

	// Damage dealt per attack.
	Damage int32
}

// Melee is the basic strike-in-range combat behavior. It satisfies the AI
// combat capability: range queries, enter and exit hooks, and attack
// execution against the target's health pool.
type Melee struct {
	owner    model.Handle
	resolve  ResolveFunc
	cfg      MeleeConfig
	inCombat atomic.Bool
	onHit    HitFunc
}

// NewMelee creates a melee behavior for the actor behind owner.
func NewMelee(owner model.Handle, resolve ResolveFunc, cfg MeleeConfig) *Melee {
	if cfg.ExitRange <= 0 {
		cfg.ExitRange = cfg.AttackRange * 1.5
	}
	return &Melee{owner: owner, resolve: resolve, cfg: cfg}
}

// SetHitFunc registers an observer for landed hits.
func (m *Melee) SetHitFunc(fn HitFunc) {
	m.onHit = fn
}

// AttackRange returns the distance at which combat can begin.
func (m *Melee) AttackRange() float64 {
	return m.cfg.AttackRange
}

// ExitCombatRange returns the distance beyond which combat ends.
func (m *Melee) ExitCombatRange() float64 {
	return m.cfg.ExitRange
}

// CanEnterCombat reports whether the owner is alive and able to fight.
func (m *Melee) CanEnterCombat() bool {
	owner := m.resolve(m.owner)
	return owner != nil && !owner.IsDead()
}

// OnCombatEnter marks the behavior as engaged.
func (m *Melee) OnCombatEnter(target model.Handle) {
	m.inCombat.Store(true)
	slog.Debug("combat entered", "attacker", m.owner, "target", target)
}

// OnCombatExit marks the behavior as disengaged.
func (m *Melee) OnCombatExit() {
	m.inCombat.Store(false)
	slog.Debug("combat exited", "attacker", m.owner)
}

// InCombat reports whether the behavior is currently engaged.
func (m *Melee) InCombat() bool {
	return m.inCombat.Load()
}

// ExecuteAttack lands one hit on the target. Stale handles and already
// dead targets are ignored; the state machine notices the dead target on
// its next tick and drops it.
func (m *Melee) ExecuteAttack(target model.Handle) {
	victim := m.resolve(target)
	if victim == nil || victim.IsDead() {
		return
	}

	remaining := victim.ReduceHealth(m.cfg.Damage)
	slog.Debug("attack executed",
		"attacker", m.owner,
		"target", target,
		"damage", m.cfg.Damage,
		"remaining", remaining)

	if m.onHit != nil {
		m.onHit(target, m.cfg.Damage, remaining)
	}
}
