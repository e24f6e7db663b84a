package ai

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/model"
)

// Tuning defaults applied when a template leaves a value unset.
const (
	defaultDetectionRange = 12.0
	defaultCombatTimeout  = 5 * time.Second
	defaultAttackCooldown = 1500 * time.Millisecond
)

// Config tunes one state machine.
type Config struct {
	// DetectionRange is the idle scan radius. While chasing it also marks
	// the distance inside which the target counts as seen.
	DetectionRange float64

	// CombatTimeout drops a chased target that has stayed beyond
	// DetectionRange for this long.
	CombatTimeout time.Duration

	// AttackCooldown gates how often the combat behavior attacks.
	AttackCooldown time.Duration

	// CombatExitBuffer is hysteresis added on top of the behavior's exit
	// range so combat does not flap at the boundary.
	CombatExitBuffer float64

	// OnlyDetectHostileTargets restricts the idle scan to hostile actors.
	// When false the first living non-scenery actor in range is acquired.
	OnlyDetectHostileTargets bool
}

func (c Config) withDefaults() Config {
	if c.DetectionRange <= 0 {
		c.DetectionRange = defaultDetectionRange
	}
	if c.CombatTimeout <= 0 {
		c.CombatTimeout = defaultCombatTimeout
	}
	if c.AttackCooldown <= 0 {
		c.AttackCooldown = defaultAttackCooldown
	}
	if c.CombatExitBuffer < 0 {
		c.CombatExitBuffer = 0
	}
	return c
}

// StateMachine drives one NPC's combat decisions: Idle scans for a target,
// Chase closes distance, Combat attacks on a cooldown.
//
// All mutation happens inside Tick on the tick goroutine. State, Target,
// SelfFaction and RelationTo are safe to call from other goroutines.
type StateMachine struct {
	self      model.Handle
	cfg       Config
	movement  Movement
	detector  *Detector
	getActor  GetActorFunc
	registry  *faction.Registry
	combat    CombatBehavior
	resolve   AffiliationResolver
	events    Events
	isRunning atomic.Bool

	state atomic.Int32

	mu      sync.RWMutex
	target  model.Handle
	selfAff *faction.Affiliation

	// Only accessed from the Tick() goroutine, no sync needed.
	lastSeen   time.Time
	lastAttack time.Time
}

// NewStateMachine creates a state machine for the actor behind self.
// Movement, detector, actor lookup and registry are structural: a machine
// missing one is a content bug, reported as an error so the spawner can
// leave the actor AI-less without killing the process.
func NewStateMachine(
	self model.Handle,
	cfg Config,
	movement Movement,
	detector *Detector,
	getActor GetActorFunc,
	registry *faction.Registry,
) (*StateMachine, error) {
	if movement == nil {
		return nil, errors.New("state machine requires a movement capability")
	}
	if detector == nil {
		return nil, errors.New("state machine requires a detector")
	}
	if getActor == nil {
		return nil, errors.New("state machine requires an actor lookup")
	}
	if registry == nil {
		return nil, errors.New("state machine requires a faction registry")
	}

	m := &StateMachine{
		self:     self,
		cfg:      cfg.withDefaults(),
		movement: movement,
		detector: detector,
		getActor: getActor,
		registry: registry,
	}
	m.resolve = func() *faction.Affiliation {
		if a := m.getActor(m.self); a != nil {
			return a.Affiliation()
		}
		return nil
	}
	return m, nil
}

// SetCombatBehavior sets the combat capability. Without one the machine
// detects and chases but never enters combat.
func (m *StateMachine) SetCombatBehavior(cb CombatBehavior) {
	m.combat = cb
}

// SetEvents sets the transition observers.
func (m *StateMachine) SetEvents(ev Events) {
	m.events = ev
}

// SetAffiliationResolver replaces the default resolver (which reads the
// affiliation off the machine's own actor).
func (m *StateMachine) SetAffiliationResolver(fn AffiliationResolver) {
	if fn != nil {
		m.resolve = fn
	}
}

// Start starts the state machine.
func (m *StateMachine) Start() {
	m.isRunning.Store(true)

	if IsDebugEnabled() {
		slog.Debug("state machine started",
			"actor", m.self,
			"detectionRange", m.cfg.DetectionRange,
			"onlyHostile", m.cfg.OnlyDetectHostileTargets)
	}
}

// Stop stops the state machine and resets it to Idle without firing any
// callbacks.
func (m *StateMachine) Stop() {
	m.isRunning.Store(false)

	m.mu.Lock()
	m.target = model.Handle{}
	m.mu.Unlock()
	m.state.Store(int32(StateIdle))

	if IsDebugEnabled() {
		slog.Debug("state machine stopped", "actor", m.self)
	}
}

// State returns the current decision state.
func (m *StateMachine) State() State {
	return State(m.state.Load())
}

// Target returns the current target handle, zero when there is none.
func (m *StateMachine) Target() model.Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.target
}

// SelfFaction returns the machine's own faction once its affiliation has
// resolved.
func (m *StateMachine) SelfFaction() (faction.ID, bool) {
	if aff := m.selfAffiliation(); aff != nil {
		return aff.Faction(), true
	}
	return faction.None, false
}

// RelationTo resolves this machine's relation to an arbitrary faction.
// While the own affiliation is unresolved the machine reads as None.
func (m *StateMachine) RelationTo(other faction.ID) faction.Relation {
	self := faction.None
	if aff := m.selfAffiliation(); aff != nil {
		self = aff.Faction()
	}
	return m.registry.Relation(self, other)
}

// Tick performs one AI decision step.
func (m *StateMachine) Tick(now time.Time) {
	if !m.isRunning.Load() {
		return
	}

	self := m.getActor(m.self)
	if self == nil || self.IsDead() {
		m.ForceTargetLost()
		return
	}

	switch m.State() {
	case StateIdle:
		m.thinkIdle(now, self)
	case StateChase:
		m.thinkChase(now, self)
	case StateCombat:
		m.thinkCombat(now, self)
	}
}

// ForceTargetLost drops the current target and returns to Idle from any
// state. Idempotent: with no target and already idle it does nothing.
// Leaving combat fires OnCombatExit first; OnTargetLost fires once, only
// when a target was actually set.
func (m *StateMachine) ForceTargetLost() {
	if m.State() == StateCombat && m.combat != nil {
		m.combat.OnCombatExit()
	}

	m.mu.Lock()
	lost := m.target
	m.target = model.Handle{}
	m.mu.Unlock()

	m.setState(StateIdle)

	if !lost.IsZero() {
		if IsDebugEnabled() {
			slog.Debug("target lost", "actor", m.self, "target", lost)
		}
		if m.events.OnTargetLost != nil {
			m.events.OnTargetLost(lost)
		}
	}
}

// DetectOnce runs a single detection pass against the live world without
// mutating the machine. Diagnostic, used by the inspect endpoints.
func (m *StateMachine) DetectOnce() (model.Handle, bool) {
	self := m.getActor(m.self)
	if self == nil {
		return model.Handle{}, false
	}
	return m.detector.FindTarget(m.self, self.Location(), m.cfg.DetectionRange,
		m.cfg.OnlyDetectHostileTargets, m.isHostileTarget)
}

// thinkIdle scans for a target and starts chasing the first match.
func (m *StateMachine) thinkIdle(now time.Time, self *model.Actor) {
	target, ok := m.detector.FindTarget(m.self, self.Location(), m.cfg.DetectionRange,
		m.cfg.OnlyDetectHostileTargets, m.isHostileTarget)
	if !ok {
		return
	}

	m.mu.Lock()
	m.target = target
	m.mu.Unlock()
	m.lastSeen = now

	m.setState(StateChase)

	if IsDebugEnabled() {
		slog.Debug("target acquired", "actor", m.self, "target", target)
	}
	if m.events.OnTargetAcquired != nil {
		m.events.OnTargetAcquired(target)
	}
}

// thinkChase validates the target, enters combat in range, drops the
// target after the timeout, otherwise keeps closing distance.
func (m *StateMachine) thinkChase(now time.Time, self *model.Actor) {
	target := m.Target()
	targetActor := m.getActor(target)
	if targetActor == nil || targetActor.IsDead() {
		m.ForceTargetLost()
		return
	}

	targetLoc := targetActor.Location()
	dist := self.Location().Distance(targetLoc)

	if m.combat != nil && dist <= m.combat.AttackRange() && m.combat.CanEnterCombat() {
		m.setState(StateCombat)
		m.combat.OnCombatEnter(target)
		return
	}

	// lastSeen tracks when the target was last inside DetectionRange.
	// Beyond it the clock runs; after CombatTimeout the target is dropped.
	if dist > m.cfg.DetectionRange {
		if now.Sub(m.lastSeen) > m.cfg.CombatTimeout {
			if IsDebugEnabled() {
				slog.Debug("chase timed out",
					"actor", m.self,
					"target", target,
					"distance", dist)
			}
			m.ForceTargetLost()
			return
		}
	} else {
		m.lastSeen = now
	}

	m.movement.RotateTowards(targetLoc)
	m.movement.MoveTowards(targetLoc)
}

// thinkCombat validates the target, falls back to chase outside the exit
// range, otherwise faces the target and attacks on cooldown.
func (m *StateMachine) thinkCombat(now time.Time, self *model.Actor) {
	target := m.Target()
	targetActor := m.getActor(target)
	if targetActor == nil || targetActor.IsDead() {
		m.ForceTargetLost()
		return
	}

	// Combat is unreachable without a behavior; recover just in case.
	if m.combat == nil {
		m.setState(StateChase)
		return
	}

	targetLoc := targetActor.Location()
	dist := self.Location().Distance(targetLoc)

	if dist > m.combat.ExitCombatRange()+m.cfg.CombatExitBuffer {
		m.combat.OnCombatExit()
		m.setState(StateChase)
		m.lastSeen = now
		return
	}

	m.lastSeen = now
	m.movement.RotateTowards(targetLoc)

	if !now.Before(m.lastAttack.Add(m.cfg.AttackCooldown)) {
		m.combat.ExecuteAttack(target)
		m.lastAttack = now
	}
}

// setState transitions the machine. Same-state transitions are no-ops and
// fire nothing.
func (m *StateMachine) setState(next State) {
	old := State(m.state.Swap(int32(next)))
	if old == next {
		return
	}

	if IsDebugEnabled() {
		slog.Debug("state changed", "actor", m.self, "from", old, "to", next)
	}
	if m.events.OnStateChanged != nil {
		m.events.OnStateChanged(old, next)
	}
}

// isHostileTarget decides whether the candidate should be attacked.
//
// An actor whose own affiliation never resolves attacks indiscriminately,
// so a missing component degrades loudly instead of producing an inert
// NPC. Once self resolves, a candidate whose faction cannot be determined
// is never hostile.
func (m *StateMachine) isHostileTarget(candidate *model.Actor) bool {
	aff := m.selfAffiliation()
	if aff == nil {
		return true
	}
	if !aff.Enabled() || !aff.AggressiveToHostile() {
		return false
	}

	targetFaction, ok := factionOf(candidate)
	if !ok {
		return false
	}
	return m.registry.IsHostile(aff.Faction(), targetFaction)
}

// selfAffiliation returns the cached own affiliation, retrying resolution
// on every call until it succeeds.
func (m *StateMachine) selfAffiliation() *faction.Affiliation {
	m.mu.RLock()
	aff := m.selfAff
	m.mu.RUnlock()
	if aff != nil {
		return aff
	}

	aff = m.resolve()
	if aff == nil {
		return nil
	}

	m.mu.Lock()
	m.selfAff = aff
	m.mu.Unlock()
	return aff
}

// factionOf resolves the faction of an arbitrary actor. Player and NPC
// identities share the same attachment point, so the lookup is uniform:
// an actor without an attached affiliation has no faction.
func factionOf(a *model.Actor) (faction.ID, bool) {
	if aff := a.Affiliation(); aff != nil {
		return aff.Faction(), true
	}
	return faction.None, false
}
