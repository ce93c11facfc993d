// Package shapefile converts point shapefiles into POIs for bulk import.
package shapefile

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

// ParsePoints reads a point shapefile and returns the POIs it contains.
// Attribute fields are matched case-insensitively: id, name, type,
// altitude, exposure. Records without an id get a generated one; records
// without a parseable type get defaultType. Non-point shapes and records
// that fail validation are skipped, not fatal.
func ParsePoints(path string, defaultType poi.Type) ([]poi.POI, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	log := zap.L().With(zap.String("component", "shapefile"))

	var pois []poi.POI
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			log.Debug("skipping non-point shape", zap.Int("record", n))
			skipped++
			continue
		}

		p := poi.POI{
			ID:        attr("id"),
			Name:      attr("name"),
			Type:      defaultType,
			Latitude:  point.Y,
			Longitude: point.X,
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if t, err := poi.ParseType(attr("type")); err == nil {
			p.Type = t
		}
		if alt, err := strconv.Atoi(attr("altitude")); err == nil {
			p.Altitude = alt
		}
		if exp := attr("exposure"); exp != "" {
			p.Exposure = poi.Exposure(strings.ToLower(exp))
		}

		if err := p.Validate(); err != nil {
			log.Debug("skipping invalid record",
				zap.Int("record", n),
				zap.Error(err),
			)
			skipped++
			continue
		}
		pois = append(pois, p)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "shapefile: read %s", path)
	}

	if skipped > 0 {
		log.Warn("records skipped during import",
			zap.String("path", path),
			zap.Int("skipped", skipped),
			zap.Int("parsed", len(pois)),
		)
	}
	return pois, nil
}
