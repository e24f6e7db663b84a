package faction

import (
	"fmt"
	"strings"
)

// Relation is the combat stance between two factions. The zero value is
// neutral, which is also what every unconfigured pair resolves to unless
// the table was built with a different default.
type Relation uint8

const (
	RelationNeutral Relation = iota
	RelationFriendly
	RelationHostile
)

// String returns a human-readable relation name
func (r Relation) String() string {
	switch r {
	case RelationNeutral:
		return "NEUTRAL"
	case RelationFriendly:
		return "FRIENDLY"
	case RelationHostile:
		return "HOSTILE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(r))
	}
}

// ParseRelation resolves a relation by name, case-insensitively.
func ParseRelation(name string) (Relation, error) {
	switch strings.ToLower(name) {
	case "neutral":
		return RelationNeutral, nil
	case "friendly":
		return RelationFriendly, nil
	case "hostile":
		return RelationHostile, nil
	default:
		return RelationNeutral, fmt.Errorf("unknown relation %q", name)
	}
}
