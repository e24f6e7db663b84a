package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/veyrn/ravenfell/internal/faction"
)

// Kind classifies an actor for identity resolution.
type Kind int32

const (
	// KindProp is scenery without a combat identity: crates, markers,
	// camp fires. Props are skipped by target detection.
	KindProp Kind = iota
	// KindNPC is an AI-driven actor.
	KindNPC
	// KindPlayer is a player-controlled actor.
	KindPlayer
)

// String returns a human-readable kind name
func (k Kind) String() string {
	switch k {
	case KindProp:
		return "PROP"
	case KindNPC:
		return "NPC"
	case KindPlayer:
		return "PLAYER"
	default:
		return "UNKNOWN"
	}
}

// ParseKind parses a kind name from data files. Case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "prop":
		return KindProp, nil
	case "npc":
		return KindNPC, nil
	case "player":
		return KindPlayer, nil
	default:
		return KindProp, fmt.Errorf("unknown actor kind %q", s)
	}
}

// Actor is any entity placed in the world. Combat-capable actors carry a
// health pool (maxHealth > 0) and usually a faction affiliation; props
// carry neither. The world table stamps the handle when the actor is added.
//
// All mutable state is guarded by one mutex; accessors return copies.
type Actor struct {
	name string
	kind Kind

	mu            sync.RWMutex
	handle        Handle
	location      Location
	currentHealth int32
	maxHealth     int32
	moveSpeed     float64
	affiliation   *faction.Affiliation
}

// NewActor creates an actor at the given location. maxHealth == 0 means
// the actor has no health resource at all; otherwise health starts full.
func NewActor(name string, kind Kind, maxHealth int32, moveSpeed float64, loc Location) *Actor {
	if maxHealth < 0 {
		maxHealth = 0
	}
	return &Actor{
		name:          name,
		kind:          kind,
		location:      loc,
		currentHealth: maxHealth,
		maxHealth:     maxHealth,
		moveSpeed:     moveSpeed,
	}
}

// Name returns the display name. Immutable after creation.
func (a *Actor) Name() string {
	return a.name
}

// Kind returns the actor classification. Immutable after creation.
func (a *Actor) Kind() Kind {
	return a.kind
}

// Handle returns the world handle, or the zero handle before placement.
func (a *Actor) Handle() Handle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handle
}

// SetHandle stamps the world handle. Called by the world table on Add.
func (a *Actor) SetHandle(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handle = h
}

// Location returns the current position.
func (a *Actor) Location() Location {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.location
}

// SetLocation moves the actor. Go through the world's UpdateLocation so
// the spatial index stays in sync; this setter alone does not reindex.
func (a *Actor) SetLocation(loc Location) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.location = loc
}

// CurrentHealth returns the current health value.
func (a *Actor) CurrentHealth() int32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentHealth
}

// MaxHealth returns the health pool size, zero for actors without one.
func (a *Actor) MaxHealth() int32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxHealth
}

// SetCurrentHealth sets health clamped to [0, maxHealth].
func (a *Actor) SetCurrentHealth(hp int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentHealth = clampHealth(hp, a.maxHealth)
}

// ReduceHealth subtracts damage from the current health, clamped at zero,
// and returns the remaining value.
func (a *Actor) ReduceHealth(damage int32) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentHealth = clampHealth(a.currentHealth-damage, a.maxHealth)
	return a.currentHealth
}

// HasHealth reports whether the actor has a health resource at all.
// Actors without one are scenery as far as target detection goes.
func (a *Actor) HasHealth() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxHealth > 0
}

// IsDead reports whether the actor has a health resource and it is empty.
// Actors without a health resource are never dead.
func (a *Actor) IsDead() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxHealth > 0 && a.currentHealth <= 0
}

// MoveSpeed returns the movement speed in world units per second.
func (a *Actor) MoveSpeed() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.moveSpeed
}

// SetMoveSpeed sets the movement speed, clamped at zero.
func (a *Actor) SetMoveSpeed(speed float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if speed < 0 {
		speed = 0
	}
	a.moveSpeed = speed
}

// Affiliation returns the attached faction affiliation, or nil when the
// actor has none.
func (a *Actor) Affiliation() *faction.Affiliation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.affiliation
}

// AttachAffiliation attaches the faction affiliation. Attach before the
// actor's AI registers: the machine resolves its own affiliation lazily
// and treats everything as hostile until resolution succeeds.
func (a *Actor) AttachAffiliation(aff *faction.Affiliation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.affiliation = aff
}

func clampHealth(hp, maxHP int32) int32 {
	if hp < 0 {
		return 0
	}
	if hp > maxHP {
		return maxHP
	}
	return hp
}
