package faction

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Registry owns the active relationship table and answers every relation
// query in the world. Construct one per server and inject it; nothing in
// this package holds a process-wide instance.
//
// The table reference swaps atomically, so readers never block. Swaps
// should still happen at a tick boundary (via the tick manager's deferred
// queue) so no actor changes its answer mid-decision.
type Registry struct {
	table         atomic.Pointer[Table]
	misconfigured atomic.Bool
	warnOnce      sync.Once
}

// NewRegistry returns a registry with no table installed. Until SetTable is
// called every query degrades to neutral and the registry reports itself
// misconfigured.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetTable installs the active table. Installing a table whose fingerprint
// matches the current one is a no-op. Last installed wins. Returns whether
// the table was actually swapped in.
func (r *Registry) SetTable(t *Table) bool {
	if t == nil {
		return false
	}
	if cur := r.table.Load(); cur != nil && cur.Fingerprint() == t.Fingerprint() {
		slog.Debug("relationship table unchanged, keeping current", "fingerprint", t.FingerprintHex()[:12])
		return false
	}

	r.table.Store(t)
	for _, w := range t.Warnings() {
		slog.Warn("relationship table warning", "warning", w)
	}
	slog.Info("relationship table installed",
		"pairs", t.Len(),
		"default", t.Default(),
		"fingerprint", t.FingerprintHex()[:12])
	return true
}

// Table returns the active table, or nil when none is installed.
func (r *Registry) Table() *Table {
	return r.table.Load()
}

// Relation resolves the relation between two factions. With no table
// installed every query returns neutral; the condition is logged once and
// stays visible through Misconfigured.
func (r *Registry) Relation(a, b ID) Relation {
	t := r.table.Load()
	if t == nil {
		r.misconfigured.Store(true)
		r.warnOnce.Do(func() {
			slog.Warn("relation queried with no relationship table installed, defaulting to neutral")
		})
		return RelationNeutral
	}
	return t.Get(a, b)
}

// IsHostile reports whether the two factions resolve to a hostile relation.
func (r *Registry) IsHostile(a, b ID) bool {
	return r.Relation(a, b) == RelationHostile
}

// IsFriendly reports whether the two factions resolve to a friendly relation.
func (r *Registry) IsFriendly(a, b ID) bool {
	return r.Relation(a, b) == RelationFriendly
}

// IsNeutral reports whether the two factions resolve to a neutral relation.
func (r *Registry) IsNeutral(a, b ID) bool {
	return r.Relation(a, b) == RelationNeutral
}

// Misconfigured reports whether any query ever ran without a table
// installed. Surfaced by the inspect status endpoint.
func (r *Registry) Misconfigured() bool {
	return r.misconfigured.Load()
}
