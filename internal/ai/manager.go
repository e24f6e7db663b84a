package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veyrn/ravenfell/internal/model"
)

// TickManager drives AI ticks for all registered actors from a single
// goroutine. Every interval it first drains the deferred queue (the safe
// point for reconfiguring shared state such as the relationship table),
// then ticks every controller with one shared timestamp.
type TickManager struct {
	controllers     sync.Map // map[model.Handle]Controller
	controllerCount atomic.Int32
	interval        time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once

	deferMu  sync.Mutex
	deferred []func()
}

// NewTickManager creates a tick manager. interval <= 0 falls back to one
// second.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register registers and starts the controller for an actor.
func (m *TickManager) Register(h model.Handle, controller Controller) {
	m.controllers.Store(h, controller)
	m.controllerCount.Add(1)
	controller.Start()

	slog.Debug("AI controller registered",
		"actor", h,
		"state", controller.State())
}

// Unregister stops and removes the controller for an actor.
func (m *TickManager) Unregister(h model.Handle) {
	value, ok := m.controllers.LoadAndDelete(h)
	if !ok {
		return
	}

	m.controllerCount.Add(-1)
	value.(Controller).Stop()

	slog.Debug("AI controller unregistered", "actor", h)
}

// Defer queues fn to run on the tick goroutine before the next tick's
// controllers. Deferred functions run even when no controller is
// registered.
func (m *TickManager) Defer(fn func()) {
	if fn == nil {
		return
	}
	m.deferMu.Lock()
	m.deferred = append(m.deferred, fn)
	m.deferMu.Unlock()
}

// Start starts the tick loop (blocks until the context is canceled or
// Stop is called).
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("AI tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped")
			return nil

		case now := <-ticker.C:
			m.tickAll(now)
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// tickAll runs one tick: deferred work first, then every controller.
func (m *TickManager) tickAll(now time.Time) {
	m.deferMu.Lock()
	pending := m.deferred
	m.deferred = nil
	m.deferMu.Unlock()

	for _, fn := range pending {
		fn()
	}

	count := 0
	m.controllers.Range(func(_, value any) bool {
		value.(Controller).Tick(now)
		count++
		return true
	})

	if count > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", count)
	}
}

// Count returns the number of registered controllers (O(1) cached count).
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// Controller returns the controller registered for the actor.
func (m *TickManager) Controller(h model.Handle) (Controller, error) {
	value, ok := m.controllers.Load(h)
	if !ok {
		return nil, fmt.Errorf("no controller registered for actor %s", h)
	}
	return value.(Controller), nil
}
