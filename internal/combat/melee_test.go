package combat

import (
	"testing"

	"github.com/veyrn/ravenfell/internal/model"
)

func testResolver(actors map[model.Handle]*model.Actor) ResolveFunc {
	return func(h model.Handle) *model.Actor {
		return actors[h]
	}
}

func TestMeleeExecuteAttack(t *testing.T) {
	owner := model.Handle{Index: 1, Gen: 1}
	target := model.Handle{Index: 2, Gen: 1}
	victim := model.NewActor("Boar", model.KindNPC, 50, 0, model.NewLocation(0, 0, 0))

	m := NewMelee(owner, testResolver(map[model.Handle]*model.Actor{target: victim}), MeleeConfig{
		AttackRange: 3,
		Damage:      20,
	})

	var hits int
	m.SetHitFunc(func(h model.Handle, damage, remaining int32) {
		hits++
		if h != target {
			t.Errorf("hit callback got target %v, expected %v", h, target)
		}
		if damage != 20 {
			t.Errorf("hit callback got damage %d, expected 20", damage)
		}
	})

	m.ExecuteAttack(target)
	if victim.CurrentHealth() != 30 {
		t.Errorf("expected 30 health after one hit, got %d", victim.CurrentHealth())
	}

	m.ExecuteAttack(target)
	m.ExecuteAttack(target)
	if victim.CurrentHealth() != 0 {
		t.Errorf("expected 0 health, got %d", victim.CurrentHealth())
	}
	if hits != 3 {
		t.Errorf("expected 3 hit callbacks, got %d", hits)
	}

	// Dead target absorbs nothing and fires no callback.
	m.ExecuteAttack(target)
	if hits != 3 {
		t.Errorf("attack on a dead target must not fire the hit callback, got %d", hits)
	}
}

func TestMeleeExecuteAttackStaleTarget(t *testing.T) {
	m := NewMelee(model.Handle{Index: 1, Gen: 1}, testResolver(nil), MeleeConfig{AttackRange: 3, Damage: 10})
	// Must not panic.
	m.ExecuteAttack(model.Handle{Index: 9, Gen: 4})
}

func TestMeleeExitRangeDefault(t *testing.T) {
	m := NewMelee(model.Handle{}, testResolver(nil), MeleeConfig{AttackRange: 4, Damage: 1})
	if got := m.ExitCombatRange(); got != 6 {
		t.Errorf("expected default exit range 6, got %v", got)
	}

	explicit := NewMelee(model.Handle{}, testResolver(nil), MeleeConfig{AttackRange: 4, ExitRange: 10, Damage: 1})
	if got := explicit.ExitCombatRange(); got != 10 {
		t.Errorf("expected explicit exit range 10, got %v", got)
	}
}

func TestMeleeCanEnterCombat(t *testing.T) {
	owner := model.Handle{Index: 1, Gen: 1}
	self := model.NewActor("Bandit", model.KindNPC, 40, 3, model.NewLocation(0, 0, 0))
	actors := map[model.Handle]*model.Actor{owner: self}

	m := NewMelee(owner, testResolver(actors), MeleeConfig{AttackRange: 3, Damage: 5})
	if !m.CanEnterCombat() {
		t.Error("living owner should be able to enter combat")
	}

	self.SetCurrentHealth(0)
	if m.CanEnterCombat() {
		t.Error("dead owner must not enter combat")
	}

	delete(actors, owner)
	if m.CanEnterCombat() {
		t.Error("despawned owner must not enter combat")
	}
}

func TestMeleeCombatFlag(t *testing.T) {
	m := NewMelee(model.Handle{Index: 1, Gen: 1}, testResolver(nil), MeleeConfig{AttackRange: 3, Damage: 5})

	if m.InCombat() {
		t.Error("fresh behavior must not be in combat")
	}
	m.OnCombatEnter(model.Handle{Index: 2, Gen: 1})
	if !m.InCombat() {
		t.Error("expected in-combat after enter hook")
	}
	m.OnCombatExit()
	if m.InCombat() {
		t.Error("expected disengaged after exit hook")
	}
}
