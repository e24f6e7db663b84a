package data

import (
	"time"

	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/model"
)

// ActorTemplate describes one spawnable actor archetype. Zero AI tuning
// values mean "use the engine defaults"; the state machine fills them in.
type ActorTemplate struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Kind      string  `yaml:"kind"`
	MaxHealth int32   `yaml:"max_health"`
	MoveSpeed float64 `yaml:"move_speed"`

	// Affiliation. An empty faction spawns the actor without one.
	Faction             string `yaml:"faction"`
	AggressiveToHostile bool   `yaml:"aggressive_to_hostile"`
	AssistsAllies       bool   `yaml:"assists_allies"`
	DefendsMembers      bool   `yaml:"defends_members"`

	// AI tuning. DetectionRange 0 leaves the actor without a state machine.
	DetectionRange   float64 `yaml:"detection_range"`
	CombatTimeoutSec float64 `yaml:"combat_timeout_sec"`
	AttackCooldownMS int64   `yaml:"attack_cooldown_ms"`
	CombatExitBuffer float64 `yaml:"combat_exit_buffer"`
	DetectAnyTarget  bool    `yaml:"detect_any_target"`

	// Melee tuning.
	AttackRange  float64 `yaml:"attack_range"`
	AttackDamage int32   `yaml:"attack_damage"`
}

// Templates indexes actor templates by ID.
type Templates map[string]*ActorTemplate

// Get returns the template with the given ID. Returns nil when absent.
func (t Templates) Get(id string) *ActorTemplate {
	return t[id]
}

// ActorKind returns the parsed actor kind.
func (t *ActorTemplate) ActorKind() (model.Kind, error) {
	return model.ParseKind(t.Kind)
}

// FactionID returns the parsed faction, false when the template has none.
func (t *ActorTemplate) FactionID() (faction.ID, bool) {
	if t.Faction == "" {
		return faction.None, false
	}
	id, err := faction.ParseID(t.Faction)
	if err != nil {
		return faction.None, false
	}
	return id, true
}

// BuildAffiliation creates a fresh affiliation from the template fields.
// Returns nil when the template carries no faction.
func (t *ActorTemplate) BuildAffiliation() *faction.Affiliation {
	id, ok := t.FactionID()
	if !ok {
		return nil
	}
	return faction.NewAffiliation(id, t.AggressiveToHostile, t.AssistsAllies, t.DefendsMembers)
}

// CombatTimeout converts the tuning value. Zero when unset.
func (t *ActorTemplate) CombatTimeout() time.Duration {
	return time.Duration(t.CombatTimeoutSec * float64(time.Second))
}

// AttackCooldown converts the tuning value. Zero when unset.
func (t *ActorTemplate) AttackCooldown() time.Duration {
	return time.Duration(t.AttackCooldownMS) * time.Millisecond
}

// WantsAI reports whether actors spawned from this template get a state
// machine: NPCs with a positive detection range.
func (t *ActorTemplate) WantsAI() bool {
	k, err := t.ActorKind()
	return err == nil && k == model.KindNPC && t.DetectionRange > 0
}

func (t *ActorTemplate) validate() error {
	if t.ID == "" {
		return errTemplateID
	}
	if _, err := model.ParseKind(t.Kind); err != nil {
		return err
	}
	if t.Faction != "" {
		if _, err := faction.ParseID(t.Faction); err != nil {
			return err
		}
	}
	if t.MaxHealth < 0 || t.MoveSpeed < 0 || t.AttackRange < 0 || t.AttackDamage < 0 {
		return errNegativeStat
	}
	if t.DetectionRange < 0 || t.CombatTimeoutSec < 0 || t.AttackCooldownMS < 0 || t.CombatExitBuffer < 0 {
		return errNegativeTuning
	}
	return nil
}
