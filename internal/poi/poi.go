// Package poi defines the point-of-interest model shared by the store,
// filter pipeline, sync engine, and marker reconciler, along with the pure
// filter evaluation over it.
package poi

import (
	"math"

	"github.com/rotisserie/eris"
)

// Type identifies the kind of point of interest.
type Type string

const (
	TypeShelter Type = "shelter"
	TypeBivouac Type = "bivouac"
	TypeHut     Type = "hut"
	TypeWater   Type = "water"
)

// ParseType converts a string into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeShelter, TypeBivouac, TypeHut, TypeWater:
		return Type(s), nil
	default:
		return "", eris.Errorf("unknown poi type: %q (valid: shelter, bivouac, hut, water)", s)
	}
}

// Types lists every valid POI type.
func Types() []Type {
	return []Type{TypeShelter, TypeBivouac, TypeHut, TypeWater}
}

// Exposure is the compass exposure of a POI. ExposureVarious matches any
// requested exposure when filtering.
type Exposure string

const (
	ExposureNorth   Exposure = "north"
	ExposureEast    Exposure = "east"
	ExposureSouth   Exposure = "south"
	ExposureWest    Exposure = "west"
	ExposureVarious Exposure = "various"
)

// Signal is the cellular signal strength at a POI, ordered weakest to strongest.
type Signal string

const (
	SignalNone Signal = "none"
	SignalPoor Signal = "poor"
	SignalFair Signal = "fair"
	SignalGood Signal = "good"
)

// Level returns the ordinal rank of the signal (none=0 .. good=3).
// Unknown values rank as none.
func (s Signal) Level() int {
	switch s {
	case SignalPoor:
		return 1
	case SignalFair:
		return 2
	case SignalGood:
		return 3
	default:
		return 0
	}
}

// UnknownAltitude is the sentinel for an unverified altitude. POIs carrying
// it are never excluded by altitude range filtering.
const UnknownAltitude = 0

// MaxAltitude is the upper bound of the altitude filter domain, in meters.
const MaxAltitude = 9000

// POI is a geographically anchored point of interest. ID is immutable once
// created; a later merge of the same ID never overwrites an existing entry.
type POI struct {
	ID          string   `json:"id" yaml:"id"`
	Type        Type     `json:"type" yaml:"type"`
	Name        string   `json:"name" yaml:"name"`
	Latitude    float64  `json:"latitude" yaml:"latitude"`
	Longitude   float64  `json:"longitude" yaml:"longitude"`
	Altitude    int      `json:"altitude" yaml:"altitude"`
	Exposure    Exposure `json:"exposure,omitempty" yaml:"exposure,omitempty"`
	Signal      Signal   `json:"signal,omitempty" yaml:"signal,omitempty"`
	Water       bool     `json:"water" yaml:"water"`
	Roof        bool     `json:"roof" yaml:"roof"`
	Electricity bool     `json:"electricity" yaml:"electricity"`
	Fireplace   bool     `json:"fireplace" yaml:"fireplace"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Validate reports whether the POI can be accepted into the store.
func (p POI) Validate() error {
	if p.ID == "" {
		return eris.New("poi: missing id")
	}
	if p.Name == "" {
		return eris.Errorf("poi %s: missing name", p.ID)
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return eris.Wrapf(err, "poi %s", p.ID)
	}
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return eris.Errorf("poi %s: non-finite coordinates", p.ID)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return eris.Errorf("poi %s: latitude %f out of range", p.ID, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return eris.Errorf("poi %s: longitude %f out of range", p.ID, p.Longitude)
	}
	return nil
}
