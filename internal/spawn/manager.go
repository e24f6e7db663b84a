package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/veyrn/ravenfell/internal/ai"
	"github.com/veyrn/ravenfell/internal/combat"
	"github.com/veyrn/ravenfell/internal/data"
	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/model"
	"github.com/veyrn/ravenfell/internal/world"
)

// AffiliationStore persists per-actor affiliation snapshots between runs.
type AffiliationStore interface {
	Load(ctx context.Context, actorKey string) (faction.Snapshot, bool, error)
	Save(ctx context.Context, actorKey string, snap faction.Snapshot, runID uuid.UUID) error
}

// PublishFunc receives AI events for broadcast to debug clients.
type PublishFunc func(eventType string, actor model.Handle, data map[string]any)

// Manager populates the world from spawn definitions and wires AI for
// templates that ask for it. Affiliations attach before the state machine
// registers, so lazy resolution normally succeeds on the first tick.
type Manager struct {
	templates    data.Templates
	spawnDefs    []data.SpawnDef
	world        *world.World
	registry     *faction.Registry
	aiManager    *ai.TickManager
	tickInterval time.Duration

	store AffiliationStore
	runID uuid.UUID

	publish PublishFunc

	machines   sync.Map // model.Handle → *ai.StateMachine
	actorKeys  sync.Map // model.Handle → persistence key
	actorCount atomic.Int32
}

// NewManager creates a spawn manager over loaded data.
func NewManager(
	templates data.Templates,
	spawnDefs []data.SpawnDef,
	world *world.World,
	registry *faction.Registry,
	aiManager *ai.TickManager,
	tickInterval time.Duration,
) *Manager {
	return &Manager{
		templates:    templates,
		spawnDefs:    spawnDefs,
		world:        world,
		registry:     registry,
		aiManager:    aiManager,
		tickInterval: tickInterval,
	}
}

// SetStore enables affiliation persistence. Stored snapshots override
// template defaults at spawn; SaveAffiliations writes them back.
// Call before SpawnAll.
func (m *Manager) SetStore(store AffiliationStore, runID uuid.UUID) {
	m.store = store
	m.runID = runID
}

// SetPublishFunc routes AI events to a broadcast sink. Call before SpawnAll.
func (m *Manager) SetPublishFunc(fn PublishFunc) {
	m.publish = fn
}

func (m *Manager) emit(eventType string, actor model.Handle, data map[string]any) {
	if m.publish != nil {
		m.publish(eventType, actor, data)
	}
}

// SpawnAll spawns every definition. Individual failures are logged and
// skipped so one bad entry cannot empty the world; the first error is
// still reported.
func (m *Manager) SpawnAll(ctx context.Context) error {
	spawned := 0
	var firstErr error

	for _, def := range m.spawnDefs {
		count := def.Count
		if count <= 0 {
			count = 1
		}
		for i := 1; i <= count; i++ {
			name := m.instanceName(def, i, count)
			if _, err := m.spawnOne(ctx, def, name); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				slog.Error("failed to spawn actor",
					"template", def.Template,
					"name", name,
					"error", err)
				continue
			}
			spawned++
		}
	}

	if firstErr != nil {
		slog.Warn("spawn pass completed with errors", "spawned", spawned, "error", firstErr)
		return fmt.Errorf("spawning world actors: %w", firstErr)
	}

	slog.Info("world populated", "actors", spawned)
	return nil
}

// spawnOne creates one actor from a definition and wires its AI.
func (m *Manager) spawnOne(ctx context.Context, def data.SpawnDef, name string) (model.Handle, error) {
	tpl := m.templates.Get(def.Template)
	if tpl == nil {
		return model.Handle{}, fmt.Errorf("spawn references unknown template %q", def.Template)
	}

	kind, err := tpl.ActorKind()
	if err != nil {
		return model.Handle{}, fmt.Errorf("template %s: %w", tpl.ID, err)
	}

	actor := model.NewActor(name, kind, tpl.MaxHealth, tpl.MoveSpeed, def.Location())
	handle := m.world.Add(actor)

	// Phase one: affiliation first, so the machine's lazy resolver finds
	// it on the first tick.
	m.attachAffiliation(ctx, actor, tpl, def.Template, name, handle)

	// Phase two: AI for templates that want it. A wiring failure leaves
	// the actor alive but inert.
	if tpl.WantsAI() {
		if err := m.attachAI(handle, tpl); err != nil {
			slog.Error("actor spawned without AI",
				"handle", handle,
				"name", name,
				"error", err)
		}
	}

	m.actorCount.Add(1)

	slog.Info("actor spawned",
		"handle", handle,
		"name", name,
		"template", tpl.ID,
		"kind", kind,
		"location", def.Location())

	return handle, nil
}

func (m *Manager) attachAffiliation(ctx context.Context, actor *model.Actor, tpl *data.ActorTemplate, templateID, name string, handle model.Handle) {
	aff := tpl.BuildAffiliation()
	if aff == nil {
		return
	}

	key := actorKey(templateID, name)
	if m.store != nil {
		snap, found, err := m.store.Load(ctx, key)
		switch {
		case err != nil:
			slog.Warn("affiliation load failed, using template defaults",
				"actor", key, "error", err)
		case found:
			if err := aff.RestoreSnapshot(snap); err != nil {
				slog.Warn("stored affiliation rejected, using template defaults",
					"actor", key, "error", err)
			} else {
				slog.Debug("affiliation restored", "actor", key, "faction", aff.Faction())
			}
		}
	}

	actor.AttachAffiliation(aff)
	m.actorKeys.Store(handle, key)
}

func (m *Manager) attachAI(handle model.Handle, tpl *data.ActorTemplate) error {
	mover := world.NewMover(m.world, handle, m.tickInterval)
	detector := ai.NewDetector(m.world.ForEachActorNear)

	cfg := ai.Config{
		DetectionRange:           tpl.DetectionRange,
		CombatTimeout:            tpl.CombatTimeout(),
		AttackCooldown:           tpl.AttackCooldown(),
		CombatExitBuffer:         tpl.CombatExitBuffer,
		OnlyDetectHostileTargets: !tpl.DetectAnyTarget,
	}

	machine, err := ai.NewStateMachine(handle, cfg, mover, detector, m.world.Get, m.registry)
	if err != nil {
		return fmt.Errorf("building state machine: %w", err)
	}

	if tpl.AttackRange > 0 {
		melee := combat.NewMelee(handle, m.world.Get, combat.MeleeConfig{
			AttackRange: tpl.AttackRange,
			Damage:      tpl.AttackDamage,
		})
		melee.SetHitFunc(func(target model.Handle, damage, remaining int32) {
			m.emit("attack_hit", handle, map[string]any{
				"target":    target.String(),
				"damage":    damage,
				"remaining": remaining,
			})
		})
		machine.SetCombatBehavior(melee)
	}

	machine.SetEvents(ai.Events{
		OnStateChanged: func(from, to ai.State) {
			m.emit("state_changed", handle, map[string]any{
				"from": from.String(),
				"to":   to.String(),
			})
		},
		OnTargetAcquired: func(target model.Handle) {
			m.emit("target_acquired", handle, map[string]any{"target": target.String()})
		},
		OnTargetLost: func(target model.Handle) {
			m.emit("target_lost", handle, map[string]any{"target": target.String()})
		},
	})

	m.machines.Store(handle, machine)
	m.aiManager.Register(handle, machine)
	return nil
}

// Despawn removes an actor and its AI. Returns false for unknown handles.
func (m *Manager) Despawn(handle model.Handle) bool {
	if _, ok := m.machines.LoadAndDelete(handle); ok {
		m.aiManager.Unregister(handle)
	}
	m.actorKeys.Delete(handle)

	if !m.world.Remove(handle) {
		return false
	}
	m.actorCount.Add(-1)

	slog.Info("actor despawned", "handle", handle)
	return true
}

// SaveAffiliations snapshots every live affiliation to the store. No-op
// without a store.
func (m *Manager) SaveAffiliations(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	saved := 0
	var firstErr error

	m.actorKeys.Range(func(k, v any) bool {
		handle := k.(model.Handle)
		key := v.(string)

		actor := m.world.Get(handle)
		if actor == nil {
			return true
		}
		aff := actor.Affiliation()
		if aff == nil {
			return true
		}

		if err := m.store.Save(ctx, key, aff.Snapshot(), m.runID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			slog.Error("affiliation save failed", "actor", key, "error", err)
			return true
		}
		saved++
		return true
	})

	if firstErr != nil {
		return fmt.Errorf("saving affiliations: %w", firstErr)
	}

	slog.Info("affiliations saved", "count", saved)
	return nil
}

// Machine returns the state machine driving an actor, if it has one.
func (m *Manager) Machine(handle model.Handle) (*ai.StateMachine, bool) {
	value, ok := m.machines.Load(handle)
	if !ok {
		return nil, false
	}
	return value.(*ai.StateMachine), true
}

// ActorCount returns the number of actors this manager spawned and has not
// despawned.
func (m *Manager) ActorCount() int {
	return int(m.actorCount.Load())
}

func (m *Manager) instanceName(def data.SpawnDef, i, count int) string {
	base := def.Name
	if base == "" {
		if tpl := m.templates.Get(def.Template); tpl != nil {
			base = tpl.Name
		} else {
			base = def.Template
		}
	}
	if count > 1 {
		return fmt.Sprintf("%s %d", base, i)
	}
	return base
}

// actorKey builds the persistence key for a spawned actor. Template plus
// instance name stays stable across runs as long as the data files do.
func actorKey(templateID, name string) string {
	return templateID + "/" + name
}
