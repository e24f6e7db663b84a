package faction

import (
	"fmt"
	"sync"
)

// SnapshotVersion is the serialization version written by Snapshot and the
// only version RestoreSnapshot accepts.
const SnapshotVersion = 1

// Snapshot is the persistable affiliation record. The version field is
// explicit so stored records from an incompatible build are rejected
// instead of silently misread.
type Snapshot struct {
	Version             int    `json:"version"`
	Faction             string `json:"faction"`
	AggressiveToHostile bool   `json:"aggressive_to_hostile"`
	AssistsAllies       bool   `json:"assists_allies"`
	DefendsMembers      bool   `json:"defends_members"`
}

// Affiliation declares an actor's faction membership plus its combat
// behavior flags. One per actor; world drivers attach it before the
// actor's AI registers so lazy resolution succeeds on the first tick.
type Affiliation struct {
	mu                  sync.RWMutex
	faction             ID
	aggressiveToHostile bool
	assistsAllies       bool
	defendsMembers      bool
	enabled             bool
}

// NewAffiliation creates an enabled affiliation with the given flags.
func NewAffiliation(f ID, aggressiveToHostile, assistsAllies, defendsMembers bool) *Affiliation {
	return &Affiliation{
		faction:             f,
		aggressiveToHostile: aggressiveToHostile,
		assistsAllies:       assistsAllies,
		defendsMembers:      defendsMembers,
		enabled:             true,
	}
}

// Faction returns the current faction membership.
func (a *Affiliation) Faction() ID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.faction
}

// SetFaction changes the faction unconditionally. Whether an actor is
// allowed to switch allegiance is the caller's policy, not enforced here.
func (a *Affiliation) SetFaction(f ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.faction = f
}

// AggressiveToHostile reports whether the actor initiates attacks against
// hostile factions.
func (a *Affiliation) AggressiveToHostile() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.aggressiveToHostile
}

// SetAggressiveToHostile toggles attack initiation.
func (a *Affiliation) SetAggressiveToHostile(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aggressiveToHostile = v
}

// AssistsAllies reports whether the actor joins fights on behalf of
// friendly factions.
func (a *Affiliation) AssistsAllies() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.assistsAllies
}

// DefendsMembers reports whether the actor retaliates when a faction
// member is attacked.
func (a *Affiliation) DefendsMembers() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.defendsMembers
}

// Enabled reports whether the affiliation participates in hostility
// decisions. A disabled affiliation still answers identity queries, it
// just never initiates combat.
func (a *Affiliation) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled toggles participation in hostility decisions.
func (a *Affiliation) SetEnabled(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = v
}

// RelationTo resolves this affiliation's relation to another faction.
func (a *Affiliation) RelationTo(reg *Registry, other ID) Relation {
	return reg.Relation(a.Faction(), other)
}

// IsHostileTo reports whether the other faction is hostile to this one.
func (a *Affiliation) IsHostileTo(reg *Registry, other ID) bool {
	return a.RelationTo(reg, other) == RelationHostile
}

// Snapshot captures the affiliation for persistence.
func (a *Affiliation) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		Version:             SnapshotVersion,
		Faction:             a.faction.String(),
		AggressiveToHostile: a.aggressiveToHostile,
		AssistsAllies:       a.assistsAllies,
		DefendsMembers:      a.defendsMembers,
	}
}

// RestoreSnapshot overwrites the affiliation from a stored record. Records
// with an unknown version or faction name are rejected and leave the
// affiliation untouched.
func (a *Affiliation) RestoreSnapshot(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported affiliation snapshot version %d", s.Version)
	}
	f, err := ParseID(s.Faction)
	if err != nil {
		return fmt.Errorf("restoring affiliation: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.faction = f
	a.aggressiveToHostile = s.AggressiveToHostile
	a.assistsAllies = s.AssistsAllies
	a.defendsMembers = s.DefendsMembers
	return nil
}
