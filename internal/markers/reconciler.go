// Package markers maps the current filtered POI set onto a live set of
// rendered map markers with minimal churn: markers are added, removed, or
// restyled in place, never rebuilt wholesale.
package markers

import (
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

// Appearance is everything the rendering surface needs to style a marker.
// Position is deliberately not part of it: POIs do not move, so a marker's
// coordinates are fixed at placement.
type Appearance struct {
	Type poi.Type `json:"type"`
	// Selected markers get highlight styling and raise to the front of
	// the draw order.
	Selected bool `json:"selected"`
}

// Handle is the renderer's opaque reference to a placed marker.
type Handle any

// Renderer is the drawing surface the reconciler issues operations to.
type Renderer interface {
	PlaceMarker(id string, lat, lon float64, app Appearance) Handle
	UpdateAppearance(h Handle, app Appearance)
	RemoveMarker(h Handle)
}

// Stats counts the operations issued by one reconciliation pass.
type Stats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

type entry struct {
	handle Handle
	app    Appearance
}

// Reconciler owns the marker set. After every Reconcile the set of marker
// ids equals the set of ids in the filtered input; nothing else ever
// touches the renderer.
type Reconciler struct {
	r       Renderer
	markers map[string]*entry
}

// NewReconciler creates a reconciler with an empty marker set.
func NewReconciler(r Renderer) *Reconciler {
	return &Reconciler{
		r:       r,
		markers: make(map[string]*entry),
	}
}

// Reconcile diffs the filtered set against the current markers and issues
// the minimal edit. Idempotent: a second call with unchanged inputs issues
// zero operations. A selection change alone updates exactly the previously
// and newly selected markers.
func (rc *Reconciler) Reconcile(visible []poi.POI, selectedID string) Stats {
	var stats Stats

	want := make(map[string]poi.POI, len(visible))
	for _, p := range visible {
		want[p.ID] = p
	}

	for id, e := range rc.markers {
		if _, keep := want[id]; !keep {
			rc.r.RemoveMarker(e.handle)
			delete(rc.markers, id)
			stats.Removed++
		}
	}

	for _, p := range visible {
		app := Appearance{Type: p.Type, Selected: p.ID == selectedID}
		if e, ok := rc.markers[p.ID]; ok {
			if e.app != app {
				rc.r.UpdateAppearance(e.handle, app)
				e.app = app
				stats.Updated++
			}
			continue
		}
		h := rc.r.PlaceMarker(p.ID, p.Latitude, p.Longitude, app)
		rc.markers[p.ID] = &entry{handle: h, app: app}
		stats.Added++
	}

	if stats != (Stats{}) {
		zap.L().Debug("markers reconciled",
			zap.Int("added", stats.Added),
			zap.Int("updated", stats.Updated),
			zap.Int("removed", stats.Removed),
			zap.Int("total", len(rc.markers)),
		)
	}
	return stats
}

// Len returns the number of live markers.
func (rc *Reconciler) Len() int {
	return len(rc.markers)
}

// Has reports whether a marker exists for the given id.
func (rc *Reconciler) Has(id string) bool {
	_, ok := rc.markers[id]
	return ok
}
