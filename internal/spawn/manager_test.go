package spawn

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veyrn/ravenfell/internal/ai"
	"github.com/veyrn/ravenfell/internal/data"
	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/model"
	"github.com/veyrn/ravenfell/internal/world"
)

func testTemplates() data.Templates {
	return data.Templates{
		"bandit_scout": {
			ID:                  "bandit_scout",
			Name:                "Bandit Scout",
			Kind:                "npc",
			MaxHealth:           100,
			MoveSpeed:           4,
			Faction:             "Bandits",
			AggressiveToHostile: true,
			DetectionRange:      10,
			CombatTimeoutSec:    2,
			AttackCooldownMS:    200,
			CombatExitBuffer:    1,
			AttackRange:         3,
			AttackDamage:        15,
		},
		"adventurer": {
			ID:        "adventurer",
			Name:      "Adventurer",
			Kind:      "player",
			MaxHealth: 100,
			MoveSpeed: 5,
			Faction:   "Player",
		},
		"crate": {
			ID:        "crate",
			Name:      "Supply Crate",
			Kind:      "prop",
			MaxHealth: 20,
		},
	}
}

func testRegistry() *faction.Registry {
	reg := faction.NewRegistry()
	reg.SetTable(faction.BuildTable([]faction.Entry{
		{A: faction.Bandits, B: faction.Player, Relation: faction.RelationHostile},
	}, faction.RelationNeutral))
	return reg
}

type managerFixture struct {
	world *world.World
	aiMgr *ai.TickManager
	mgr   *Manager
}

func newManagerFixture(t *testing.T, defs []data.SpawnDef) *managerFixture {
	t.Helper()
	w := world.NewWorld(world.DefaultCellSize)
	aiMgr := ai.NewTickManager(50 * time.Millisecond)
	mgr := NewManager(testTemplates(), defs, w, testRegistry(), aiMgr, 50*time.Millisecond)
	return &managerFixture{world: w, aiMgr: aiMgr, mgr: mgr}
}

func (f *managerFixture) handleByName(t *testing.T, name string) model.Handle {
	t.Helper()
	var found model.Handle
	f.world.ForEachActor(func(h model.Handle, a *model.Actor) bool {
		if a.Name() == name {
			found = h
			return false
		}
		return true
	})
	if found.IsZero() {
		t.Fatalf("actor %q not found in world", name)
	}
	return found
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]faction.Snapshot
	saved   map[string]faction.Snapshot
	loadErr error
	saveErr error
	lastRun uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]faction.Snapshot),
		saved:   make(map[string]faction.Snapshot),
	}
}

func (s *fakeStore) Load(_ context.Context, actorKey string) (faction.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return faction.Snapshot{}, false, s.loadErr
	}
	snap, ok := s.records[actorKey]
	return snap, ok, nil
}

func (s *fakeStore) Save(_ context.Context, actorKey string, snap faction.Snapshot, runID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[actorKey] = snap
	s.lastRun = runID
	return nil
}

func TestManager_SpawnAllPopulatesWorld(t *testing.T) {
	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Ash Bandit", X: 10, Count: 2},
		{Template: "crate", X: -5, Y: 2},
	})

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	if got := f.world.Count(); got != 3 {
		t.Errorf("world.Count() = %d, want 3", got)
	}
	if got := f.mgr.ActorCount(); got != 3 {
		t.Errorf("ActorCount() = %d, want 3", got)
	}
	if got := f.aiMgr.Count(); got != 2 {
		t.Errorf("aiMgr.Count() = %d, want 2 (prop has no AI)", got)
	}

	f.handleByName(t, "Ash Bandit 1")
	f.handleByName(t, "Ash Bandit 2")
	crate := f.handleByName(t, "Supply Crate")

	if _, ok := f.mgr.Machine(crate); ok {
		t.Error("prop actor should not have a state machine")
	}

	actor := f.world.Get(crate)
	if actor.Kind() != model.KindProp {
		t.Errorf("crate kind = %v, want prop", actor.Kind())
	}
	if actor.Affiliation() != nil {
		t.Error("crate should spawn without an affiliation")
	}
}

func TestManager_SpawnAllUnknownTemplate(t *testing.T) {
	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "ghost"},
		{Template: "crate"},
	})

	err := f.mgr.SpawnAll(context.Background())
	if err == nil {
		t.Fatal("SpawnAll() with unknown template should report an error")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q should name the unknown template", err)
	}

	// One bad entry must not stop the rest.
	if got := f.world.Count(); got != 1 {
		t.Errorf("world.Count() = %d, want 1", got)
	}
}

func TestManager_AffiliationAttachedBeforeAI(t *testing.T) {
	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Lone Bandit"},
	})

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	h := f.handleByName(t, "Lone Bandit")
	machine, ok := f.mgr.Machine(h)
	if !ok {
		t.Fatal("bandit should have a state machine")
	}

	// Resolution must succeed on the very first query: the affiliation was
	// attached before the machine registered.
	id, ok := machine.SelfFaction()
	if !ok {
		t.Fatal("SelfFaction() should resolve immediately after spawn")
	}
	if id != faction.Bandits {
		t.Errorf("SelfFaction() = %v, want Bandits", id)
	}
}

func TestManager_StoreOverridesTemplate(t *testing.T) {
	store := newFakeStore()
	store.records["bandit_scout/Lone Bandit"] = faction.Snapshot{
		Version:             faction.SnapshotVersion,
		Faction:             "Wildlife",
		AggressiveToHostile: false,
		AssistsAllies:       true,
	}

	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Lone Bandit"},
	})
	f.mgr.SetStore(store, uuid.New())

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	aff := f.world.Get(f.handleByName(t, "Lone Bandit")).Affiliation()
	if aff == nil {
		t.Fatal("bandit should have an affiliation")
	}
	if got := aff.Faction(); got != faction.Wildlife {
		t.Errorf("Faction() = %v, want Wildlife (stored override)", got)
	}
	if aff.AggressiveToHostile() {
		t.Error("stored override should have cleared AggressiveToHostile")
	}
	if !aff.AssistsAllies() {
		t.Error("stored override should have set AssistsAllies")
	}
	if !aff.Enabled() {
		t.Error("restored affiliation should stay enabled")
	}
}

func TestManager_StoreFailuresKeepTemplateDefaults(t *testing.T) {
	t.Run("unsupported version", func(t *testing.T) {
		store := newFakeStore()
		store.records["bandit_scout/Lone Bandit"] = faction.Snapshot{
			Version: 99,
			Faction: "Wildlife",
		}

		f := newManagerFixture(t, []data.SpawnDef{
			{Template: "bandit_scout", Name: "Lone Bandit"},
		})
		f.mgr.SetStore(store, uuid.New())

		if err := f.mgr.SpawnAll(context.Background()); err != nil {
			t.Fatalf("SpawnAll() error = %v", err)
		}

		aff := f.world.Get(f.handleByName(t, "Lone Bandit")).Affiliation()
		if got := aff.Faction(); got != faction.Bandits {
			t.Errorf("Faction() = %v, want Bandits (template default)", got)
		}
		if !aff.AggressiveToHostile() {
			t.Error("template default AggressiveToHostile should survive a bad snapshot")
		}
	})

	t.Run("load error", func(t *testing.T) {
		store := newFakeStore()
		store.loadErr = errors.New("connection refused")

		f := newManagerFixture(t, []data.SpawnDef{
			{Template: "bandit_scout", Name: "Lone Bandit"},
		})
		f.mgr.SetStore(store, uuid.New())

		if err := f.mgr.SpawnAll(context.Background()); err != nil {
			t.Fatalf("SpawnAll() error = %v", err)
		}

		aff := f.world.Get(f.handleByName(t, "Lone Bandit")).Affiliation()
		if got := aff.Faction(); got != faction.Bandits {
			t.Errorf("Faction() = %v, want Bandits (template default)", got)
		}
	})
}

func TestManager_Despawn(t *testing.T) {
	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Lone Bandit"},
	})

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	h := f.handleByName(t, "Lone Bandit")

	if !f.mgr.Despawn(h) {
		t.Fatal("Despawn() = false, want true")
	}
	if got := f.world.Count(); got != 0 {
		t.Errorf("world.Count() after despawn = %d, want 0", got)
	}
	if got := f.aiMgr.Count(); got != 0 {
		t.Errorf("aiMgr.Count() after despawn = %d, want 0", got)
	}
	if got := f.mgr.ActorCount(); got != 0 {
		t.Errorf("ActorCount() after despawn = %d, want 0", got)
	}
	if _, ok := f.mgr.Machine(h); ok {
		t.Error("machine should be gone after despawn")
	}

	if f.mgr.Despawn(h) {
		t.Error("second Despawn() of the same handle should return false")
	}
}

func TestManager_SaveAffiliations(t *testing.T) {
	store := newFakeStore()
	runID := uuid.New()

	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Ash Bandit", Count: 2},
		{Template: "crate"},
	})
	f.mgr.SetStore(store, runID)

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	if err := f.mgr.SaveAffiliations(context.Background()); err != nil {
		t.Fatalf("SaveAffiliations() error = %v", err)
	}

	// The crate has no affiliation and must not produce a row.
	if got := len(store.saved); got != 2 {
		t.Fatalf("saved %d snapshots, want 2", got)
	}

	snap, ok := store.saved["bandit_scout/Ash Bandit 1"]
	if !ok {
		t.Fatal("snapshot for Ash Bandit 1 missing")
	}
	if snap.Faction != "Bandits" {
		t.Errorf("snapshot faction = %q, want Bandits", snap.Faction)
	}
	if snap.Version != faction.SnapshotVersion {
		t.Errorf("snapshot version = %d, want %d", snap.Version, faction.SnapshotVersion)
	}
	if store.lastRun != runID {
		t.Errorf("run id = %v, want %v", store.lastRun, runID)
	}
}

func TestManager_SaveAffiliationsWithoutStore(t *testing.T) {
	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Lone Bandit"},
	})

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	if err := f.mgr.SaveAffiliations(context.Background()); err != nil {
		t.Errorf("SaveAffiliations() without store = %v, want nil", err)
	}
}

func TestManager_SaveAffiliationsReportsError(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")

	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Lone Bandit"},
	})
	f.mgr.SetStore(store, uuid.New())

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	if err := f.mgr.SaveAffiliations(context.Background()); err == nil {
		t.Error("SaveAffiliations() should surface the store error")
	}
}

func TestManager_PublishesEvents(t *testing.T) {
	var mu sync.Mutex
	var types []string
	payloads := make(map[string]map[string]any)

	f := newManagerFixture(t, []data.SpawnDef{
		{Template: "bandit_scout", Name: "Hunter"},
		{Template: "adventurer", Name: "Mira", X: 2},
	})
	f.mgr.SetPublishFunc(func(eventType string, actor model.Handle, data map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, eventType)
		payloads[eventType] = data
	})

	if err := f.mgr.SpawnAll(context.Background()); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	hunter := f.handleByName(t, "Hunter")
	mira := f.handleByName(t, "Mira")
	machine, ok := f.mgr.Machine(hunter)
	if !ok {
		t.Fatal("hunter should have a state machine")
	}

	t0 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	machine.Tick(t0)                             // detect Mira, chase
	machine.Tick(t0.Add(200 * time.Millisecond)) // in attack range, enter combat
	machine.Tick(t0.Add(400 * time.Millisecond)) // first swing

	mu.Lock()
	defer mu.Unlock()

	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		seen[typ] = true
	}
	for _, want := range []string{"state_changed", "target_acquired", "attack_hit"} {
		if !seen[want] {
			t.Errorf("event %q not published, got %v", want, types)
		}
	}

	if data := payloads["target_acquired"]; data["target"] != mira.String() {
		t.Errorf("target_acquired target = %v, want %v", data["target"], mira.String())
	}
	if data := payloads["attack_hit"]; data["damage"] != int32(15) {
		t.Errorf("attack_hit damage = %v, want 15", data["damage"])
	}
}
