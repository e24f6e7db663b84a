package ai

import "github.com/veyrn/ravenfell/internal/model"

// Detector finds the first attackable actor around a point.
//
// Selection is scan order, not proximity: the first candidate to survive
// every filter wins, so with several valid targets in range the pick
// follows whatever order the spatial index yields. Nearest-first selection
// would need a full scan per tick and nothing upstream asks for it.
type Detector struct {
	scan           ScanFunc
	raycast        RaycastFunc
	verticalOffset float64
	requireLOS     bool
}

// NewDetector creates a detector over the given spatial scan.
func NewDetector(scan ScanFunc) *Detector {
	return &Detector{scan: scan}
}

// SetLineOfSight enables occlusion filtering: a candidate is kept only
// when the ray from the scan origin (raised by verticalOffset, eye height)
// hits that candidate first. A nil raycast disables the filter.
func (d *Detector) SetLineOfSight(raycast RaycastFunc, verticalOffset float64) {
	d.raycast = raycast
	d.verticalOffset = verticalOffset
	d.requireLOS = raycast != nil
}

// FindTarget scans around origin and returns the first candidate that
// passes the filters:
//
//   - not the scanning actor itself
//   - not scenery (an actor with neither health resource nor affiliation)
//   - not dead
//   - hostile per isHostile, when onlyHostile is set
//   - visible, when line-of-sight filtering is enabled
func (d *Detector) FindTarget(self model.Handle, origin model.Location, radius float64, onlyHostile bool, isHostile func(*model.Actor) bool) (model.Handle, bool) {
	var (
		found model.Handle
		ok    bool
	)

	d.scan(origin, radius, func(h model.Handle, a *model.Actor) bool {
		if h == self {
			return true
		}
		if !a.HasHealth() && a.Affiliation() == nil {
			return true
		}
		if a.IsDead() {
			return true
		}
		if onlyHostile && (isHostile == nil || !isHostile(a)) {
			return true
		}
		if d.requireLOS && !d.hasLineOfSight(origin, h, a) {
			return true
		}

		found = h
		ok = true
		return false
	})

	return found, ok
}

func (d *Detector) hasLineOfSight(origin model.Location, h model.Handle, a *model.Actor) bool {
	from := origin
	from.Z += d.verticalOffset
	hit, hitOK := d.raycast(from, a.Location())
	return hitOK && hit == h
}
