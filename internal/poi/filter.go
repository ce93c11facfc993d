package poi

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Criteria is the current filter selection. The zero value matches every
// POI. It carries no identity and is recomputed from UI state on every
// evaluation.
type Criteria struct {
	// Type restricts to a single POI type; empty means all types.
	Type Type `json:"type,omitempty"`

	// MinAltitude and MaxAltitude bound the altitude range in meters.
	// MaxAltitude 0 means no upper bound. A POI with the unknown-altitude
	// sentinel always passes, whatever the range.
	MinAltitude int `json:"min_altitude,omitempty"`
	MaxAltitude int `json:"max_altitude,omitempty"`

	// Exposures restricts to the given exposures; empty means all.
	// A POI with ExposureVarious passes any exposure selection.
	Exposures []Exposure `json:"exposures,omitempty"`

	// RequireSignal excludes POIs with no cellular signal.
	RequireSignal bool `json:"require_signal,omitempty"`

	// Amenity toggles. An enabled toggle requires the matching flag;
	// a disabled toggle imposes no constraint.
	RequireWater       bool `json:"require_water,omitempty"`
	RequireRoof        bool `json:"require_roof,omitempty"`
	RequireElectricity bool `json:"require_electricity,omitempty"`
	RequireFireplace   bool `json:"require_fireplace,omitempty"`
}

// Validate checks range sanity for criteria received over the wire.
func (c Criteria) Validate() error {
	if c.Type != "" {
		if _, err := ParseType(string(c.Type)); err != nil {
			return err
		}
	}
	if c.MinAltitude < 0 || c.MinAltitude > MaxAltitude {
		return eris.Errorf("criteria: min altitude %d outside [0, %d]", c.MinAltitude, MaxAltitude)
	}
	if c.MaxAltitude < 0 || c.MaxAltitude > MaxAltitude {
		return eris.Errorf("criteria: max altitude %d outside [0, %d]", c.MaxAltitude, MaxAltitude)
	}
	if c.MaxAltitude != 0 && c.MinAltitude > c.MaxAltitude {
		return eris.Errorf("criteria: min altitude %d above max %d", c.MinAltitude, c.MaxAltitude)
	}
	return nil
}

// Matches reports whether a single POI passes the criteria.
func (c Criteria) Matches(p POI) bool {
	if c.Type != "" && p.Type != c.Type {
		return false
	}
	// Unknown altitude is deliberately never filtered out: hiding
	// unverified points behind a range slider would make them undiscoverable.
	if p.Altitude != UnknownAltitude {
		if p.Altitude < c.MinAltitude {
			return false
		}
		if c.MaxAltitude != 0 && p.Altitude > c.MaxAltitude {
			return false
		}
	}
	if len(c.Exposures) > 0 && p.Exposure != ExposureVarious && !slices.Contains(c.Exposures, p.Exposure) {
		return false
	}
	if c.RequireSignal && p.Signal.Level() == 0 {
		return false
	}
	if c.RequireWater && !p.Water {
		return false
	}
	if c.RequireRoof && !p.Roof {
		return false
	}
	if c.RequireElectricity && !p.Electricity {
		return false
	}
	if c.RequireFireplace && !p.Fireplace {
		return false
	}
	return true
}

// Evaluate returns the subset of snapshot passing the criteria, preserving
// snapshot order. Pure: no side effects, deterministic for fixed inputs.
func Evaluate(snapshot []POI, c Criteria) []POI {
	out := make([]POI, 0, len(snapshot))
	for _, p := range snapshot {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
