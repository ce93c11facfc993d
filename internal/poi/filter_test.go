package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture() []POI {
	return []POI{
		{ID: "a", Type: TypeShelter, Name: "Rifugio Alpino", Latitude: 46.1, Longitude: 11.3, Altitude: 2100, Exposure: ExposureSouth, Signal: SignalGood, Water: true, Roof: true},
		{ID: "b", Type: TypeBivouac, Name: "Bivacco Nord", Latitude: 46.2, Longitude: 11.4, Altitude: 2800, Exposure: ExposureNorth, Signal: SignalNone, Roof: true, Fireplace: true},
		{ID: "c", Type: TypeWater, Name: "Fontana Bassa", Latitude: 46.0, Longitude: 11.2, Altitude: 500, Exposure: ExposureVarious, Signal: SignalPoor, Water: true},
		{ID: "d", Type: TypeHut, Name: "Malga Vecchia", Latitude: 46.3, Longitude: 11.5, Altitude: UnknownAltitude, Exposure: ExposureWest, Signal: SignalFair, Electricity: true},
	}
}

func ids(pois []POI) []string {
	out := make([]string, 0, len(pois))
	for _, p := range pois {
		out = append(out, p.ID)
	}
	return out
}

func TestEvaluate_ZeroCriteriaMatchesAll(t *testing.T) {
	snapshot := filterFixture()
	got := Evaluate(snapshot, Criteria{})
	assert.Equal(t, ids(snapshot), ids(got))
}

func TestEvaluate_TypeSelection(t *testing.T) {
	got := Evaluate(filterFixture(), Criteria{Type: TypeBivouac})
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestEvaluate_UnknownAltitudeAlwaysIncluded(t *testing.T) {
	// Range [1000,2000] excludes the 500m and 2100m+ points but keeps the
	// unknown-altitude POI.
	got := Evaluate(filterFixture(), Criteria{MinAltitude: 1000, MaxAltitude: 2000})
	assert.Equal(t, []string{"d"}, ids(got))

	// Even an impossible-looking high range keeps unknowns.
	got = Evaluate(filterFixture(), Criteria{MinAltitude: 8000, MaxAltitude: 9000})
	assert.Equal(t, []string{"d"}, ids(got))
}

func TestEvaluate_AltitudeRange(t *testing.T) {
	got := Evaluate(filterFixture(), Criteria{MinAltitude: 2000, MaxAltitude: 2500})
	assert.Equal(t, []string{"a", "d"}, ids(got))

	// MaxAltitude 0 means unbounded above.
	got = Evaluate(filterFixture(), Criteria{MinAltitude: 2000})
	assert.Equal(t, []string{"a", "b", "d"}, ids(got))
}

func TestEvaluate_ExposureWildcard(t *testing.T) {
	// "various" passes a concrete selection.
	got := Evaluate(filterFixture(), Criteria{Exposures: []Exposure{ExposureNorth}})
	assert.Equal(t, []string{"b", "c"}, ids(got))

	// Empty selection means all.
	got = Evaluate(filterFixture(), Criteria{Exposures: nil})
	assert.Len(t, got, 4)
}

func TestEvaluate_SignalRequirement(t *testing.T) {
	got := Evaluate(filterFixture(), Criteria{RequireSignal: true})
	assert.Equal(t, []string{"a", "c", "d"}, ids(got))
}

func TestEvaluate_AmenityToggles(t *testing.T) {
	got := Evaluate(filterFixture(), Criteria{RequireWater: true})
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got = Evaluate(filterFixture(), Criteria{RequireRoof: true, RequireFireplace: true})
	assert.Equal(t, []string{"b"}, ids(got))

	got = Evaluate(filterFixture(), Criteria{RequireElectricity: true})
	assert.Equal(t, []string{"d"}, ids(got))
}

func TestEvaluate_AllConditionsAnded(t *testing.T) {
	got := Evaluate(filterFixture(), Criteria{
		Type:         TypeShelter,
		MinAltitude:  2000,
		MaxAltitude:  2500,
		RequireWater: true,
	})
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestEvaluate_PureAndOrderPreserving(t *testing.T) {
	snapshot := filterFixture()
	c := Criteria{RequireSignal: true}

	first := Evaluate(snapshot, c)
	second := Evaluate(snapshot, c)
	assert.Equal(t, first, second)

	// Input snapshot untouched.
	assert.Equal(t, filterFixture(), snapshot)
}

func TestCriteria_Validate(t *testing.T) {
	require.NoError(t, Criteria{}.Validate())
	require.NoError(t, Criteria{MinAltitude: 100, MaxAltitude: 200}.Validate())

	assert.Error(t, Criteria{Type: "cave"}.Validate())
	assert.Error(t, Criteria{MinAltitude: -1}.Validate())
	assert.Error(t, Criteria{MaxAltitude: MaxAltitude + 1}.Validate())
	assert.Error(t, Criteria{MinAltitude: 300, MaxAltitude: 200}.Validate())
}
