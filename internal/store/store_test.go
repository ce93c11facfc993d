package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

func testPOIs() []poi.POI {
	return []poi.POI{
		{ID: "a", Type: poi.TypeShelter, Name: "Rifugio Alpino", Latitude: 46.1, Longitude: 11.3, Altitude: 2100},
		{ID: "b", Type: poi.TypeWater, Name: "Fontana Bassa", Latitude: 46.0, Longitude: 11.2, Altitude: 500},
	}
}

func TestStore_MergeDedup(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), "")

	added, err := s.Merge(ctx, testPOIs())
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Merging the same batch again adds nothing.
	added, err = s.Merge(ctx, testPOIs())
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, s.Len())
}

func TestStore_MergeNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), "")

	_, err := s.Merge(ctx, testPOIs())
	require.NoError(t, err)

	renamed := testPOIs()
	renamed[0].Name = "Renamed"
	_, err = s.Merge(ctx, renamed)
	require.NoError(t, err)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Rifugio Alpino", got.Name)
}

func TestStore_MergeDropsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), "")

	batch := append(testPOIs(), poi.POI{ID: "", Name: "no id"})
	added, err := s.Merge(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, s.Len())
}

func TestStore_PersistsOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := New(mem, "")

	_, err := s.Merge(ctx, testPOIs())
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Saves())

	// No new ids, no save.
	_, err = s.Merge(ctx, testPOIs())
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Saves())
}

func TestStore_AllPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), "")

	_, err := s.Merge(ctx, testPOIs())
	require.NoError(t, err)
	_, err = s.Merge(ctx, []poi.POI{{ID: "c", Type: poi.TypeHut, Name: "Malga", Latitude: 46.3, Longitude: 11.5}})
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)
}

func TestStore_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	s := New(mem, "")
	_, err := s.Merge(ctx, testPOIs())
	require.NoError(t, err)

	// A fresh store over the same persistence sees the merged data.
	s2 := New(mem, "")
	s2.Load(ctx)
	assert.Equal(t, 2, s2.Len())
	got, ok := s2.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Rifugio Alpino", got.Name)
}

func TestStore_LoadFallsBackToSeedWhenAbsent(t *testing.T) {
	s := New(NewMemory(), "")
	s.Load(context.Background())

	assert.Equal(t, len(Seed()), s.Len())
	assert.Greater(t, s.Len(), 0)
}

func TestStore_LoadFallsBackToSeedWhenCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Save(ctx, DefaultKey, []byte("{not json")))

	s := New(mem, "")
	s.Load(ctx)

	assert.Equal(t, len(Seed()), s.Len())
}

func TestSeed_Valid(t *testing.T) {
	seed := Seed()
	require.NotEmpty(t, seed)
	for _, p := range seed {
		assert.NoError(t, p.Validate())
	}
}
