package world

import (
	"sync"

	"github.com/veyrn/ravenfell/internal/model"
)

// World is the actor table plus a uniform grid spatial index over the XY
// plane. Construct one per server and inject it into everything that
// needs actor lookup or proximity scans.
//
// Actors live in generation-checked slots: Remove bumps the slot
// generation, so handles held elsewhere (AI targets, inspect clients) go
// stale and resolve to nil instead of pointing at a recycled slot.
type World struct {
	mu       sync.RWMutex
	slots    []slot
	free     []uint32
	cells    map[cellKey]map[model.Handle]*model.Actor
	cellSize float64
	count    int
}

type slot struct {
	actor *model.Actor
	gen   uint32
}

// NewWorld creates an empty world. cellSize <= 0 falls back to
// DefaultCellSize.
func NewWorld(cellSize float64) *World {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &World{
		cells:    make(map[cellKey]map[model.Handle]*model.Actor),
		cellSize: cellSize,
	}
}

// Add places the actor in the table and the grid, stamps its handle and
// returns it. Generations start at 1 so the zero Handle never resolves.
func (w *World) Add(a *model.Actor) model.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()

	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.slots = append(w.slots, slot{gen: 1})
		idx = uint32(len(w.slots) - 1)
	}

	w.slots[idx].actor = a
	h := model.Handle{Index: idx, Gen: w.slots[idx].gen}
	a.SetHandle(h)

	loc := a.Location()
	w.cellInsert(cellAt(loc.X, loc.Y, w.cellSize), h, a)
	w.count++
	return h
}

// Remove deletes the actor behind the handle and invalidates every
// outstanding copy of it. Returns false for stale or never-issued handles.
func (w *World) Remove(h model.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	a := w.resolve(h)
	if a == nil {
		return false
	}

	loc := a.Location()
	w.cellDelete(cellAt(loc.X, loc.Y, w.cellSize), h)

	w.slots[h.Index].actor = nil
	w.slots[h.Index].gen++
	w.free = append(w.free, h.Index)
	w.count--
	return true
}

// Get resolves a handle to its actor. Returns nil for the zero handle,
// stale handles and out-of-range indexes.
func (w *World) Get(h model.Handle) *model.Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resolve(h)
}

// UpdateLocation moves the actor and keeps the grid in sync. Returns false
// when the handle no longer resolves.
func (w *World) UpdateLocation(h model.Handle, loc model.Location) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	a := w.resolve(h)
	if a == nil {
		return false
	}

	old := a.Location()
	oldCell := cellAt(old.X, old.Y, w.cellSize)
	newCell := cellAt(loc.X, loc.Y, w.cellSize)
	if oldCell != newCell {
		w.cellDelete(oldCell, h)
		w.cellInsert(newCell, h, a)
	}
	a.SetLocation(loc)
	return true
}

// ForEachActorNear calls fn for every actor within radius of center, in
// unspecified order. Iteration stops early when fn returns false. The
// actor standing exactly at center is included; callers filter self.
//
// Candidates are snapshotted under the read lock and fn runs outside it,
// so fn may call back into the world.
func (w *World) ForEachActorNear(center model.Location, radius float64, fn func(model.Handle, *model.Actor) bool) {
	if radius <= 0 {
		return
	}

	type hit struct {
		h model.Handle
		a *model.Actor
	}

	w.mu.RLock()
	span := cellSpan(radius, w.cellSize)
	origin := cellAt(center.X, center.Y, w.cellSize)
	radiusSq := radius * radius

	var hits []hit
	for cx := origin.cx - span; cx <= origin.cx+span; cx++ {
		for cy := origin.cy - span; cy <= origin.cy+span; cy++ {
			for h, a := range w.cells[cellKey{cx: cx, cy: cy}] {
				if center.DistanceSquared(a.Location()) <= radiusSq {
					hits = append(hits, hit{h: h, a: a})
				}
			}
		}
	}
	w.mu.RUnlock()

	for _, c := range hits {
		if !fn(c.h, c.a) {
			return
		}
	}
}

// ForEachActor calls fn for every live actor, in slot order. Iteration
// stops early when fn returns false. Used by the inspect endpoints.
func (w *World) ForEachActor(fn func(model.Handle, *model.Actor) bool) {
	type entry struct {
		h model.Handle
		a *model.Actor
	}

	w.mu.RLock()
	all := make([]entry, 0, w.count)
	for i := range w.slots {
		if a := w.slots[i].actor; a != nil {
			all = append(all, entry{h: model.Handle{Index: uint32(i), Gen: w.slots[i].gen}, a: a})
		}
	}
	w.mu.RUnlock()

	for _, e := range all {
		if !fn(e.h, e.a) {
			return
		}
	}
}

// Count returns the number of live actors.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// resolve looks up a handle without locking. Callers hold w.mu.
func (w *World) resolve(h model.Handle) *model.Actor {
	if h.IsZero() || h.Index >= uint32(len(w.slots)) {
		return nil
	}
	s := w.slots[h.Index]
	if s.gen != h.Gen {
		return nil
	}
	return s.actor
}

func (w *World) cellInsert(key cellKey, h model.Handle, a *model.Actor) {
	cell := w.cells[key]
	if cell == nil {
		cell = make(map[model.Handle]*model.Actor)
		w.cells[key] = cell
	}
	cell[h] = a
}

func (w *World) cellDelete(key cellKey, h model.Handle) {
	cell := w.cells[key]
	delete(cell, h)
	if len(cell) == 0 {
		delete(w.cells, key)
	}
}
