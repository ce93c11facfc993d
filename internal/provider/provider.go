// Package provider implements the client for the remote geospatial POI
// search service: bounding-box queries driven by the viewport and free-text
// name queries.
package provider

import (
	"context"

	"github.com/twpayne/go-geom"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

// Provider is the remote POI search service.
type Provider interface {
	// SearchBounds returns POIs inside the bounding box, optionally
	// restricted to one type (empty = all types). It must honor context
	// cancellation promptly: no side effects after cancel.
	SearchBounds(ctx context.Context, bounds *geom.Bounds, typ poi.Type) ([]poi.POI, error)

	// SearchName returns POIs matching a free-text name query. An empty
	// result is not an error.
	SearchName(ctx context.Context, query string) ([]poi.POI, error)
}
