package faction

import (
	"fmt"
	"strings"
)

// ID identifies a faction. The set is fixed at compile time; data files
// reference factions by name and are resolved through ParseID at load time.
type ID uint8

const (
	// None marks an actor without any allegiance. Pairs involving None
	// resolve to neutral unless an override faction is on the other side.
	None ID = iota
	// Player is the faction every player character belongs to.
	Player
	Elves
	Humans
	Dwarves
	Warlocks
	Undead
	Bandits
	Wildlife
	Monsters
	// NeutralFolk covers villagers and traders that never pick sides.
	NeutralFolk

	// Friendly is a universal override: every faction treats it as friendly.
	Friendly
	// Hostile is a universal override: every faction treats it as hostile.
	Hostile
)

// String returns the canonical faction name
func (id ID) String() string {
	switch id {
	case None:
		return "None"
	case Player:
		return "Player"
	case Elves:
		return "Elves"
	case Humans:
		return "Humans"
	case Dwarves:
		return "Dwarves"
	case Warlocks:
		return "Warlocks"
	case Undead:
		return "Undead"
	case Bandits:
		return "Bandits"
	case Wildlife:
		return "Wildlife"
	case Monsters:
		return "Monsters"
	case NeutralFolk:
		return "NeutralFolk"
	case Friendly:
		return "Friendly"
	case Hostile:
		return "Hostile"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(id))
	}
}

// IsOverride reports whether the faction is one of the universal overrides.
func (id ID) IsOverride() bool {
	return id == Friendly || id == Hostile
}

// IDs returns every defined faction in declaration order.
func IDs() []ID {
	return []ID{
		None, Player, Elves, Humans, Dwarves, Warlocks,
		Undead, Bandits, Wildlife, Monsters, NeutralFolk,
		Friendly, Hostile,
	}
}

// ParseID resolves a faction by name, case-insensitively.
func ParseID(name string) (ID, error) {
	for _, id := range IDs() {
		if strings.EqualFold(name, id.String()) {
			return id, nil
		}
	}
	return None, fmt.Errorf("unknown faction %q", name)
}
