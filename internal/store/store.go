// Package store holds the authoritative, deduplicated POI collection and
// its persistence drivers. The store grows monotonically within a session:
// merges add new identifiers and never mutate existing entries.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

// DefaultKey is the persistence key for the serialized POI set.
const DefaultKey = "pois"

// Persistence stores the serialized POI set as a single blob under a key.
type Persistence interface {
	// Load returns the blob for key, with found=false when absent.
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)

	// Save writes the blob for key, replacing any previous value.
	Save(ctx context.Context, key string, blob []byte) error

	Close() error
}

// blobEnvelope is the persisted shape of the serialized store.
type blobEnvelope struct {
	Version int       `json:"version"`
	POIs    []poi.POI `json:"pois"`
}

const blobVersion = 1

// Store is an id-indexed POI set. Snapshots preserve insertion order so
// that filtering and first-match search are deterministic.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]poi.POI
	order []string
	pers  Persistence
	key   string
}

// New creates an empty store backed by the given persistence driver.
func New(pers Persistence, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		byID: make(map[string]poi.POI),
		pers: pers,
		key:  key,
	}
}

// Load initializes the store from persistence. A missing or corrupt blob
// falls back to the bundled seed dataset; Load never fails.
func (s *Store) Load(ctx context.Context) {
	log := zap.L().With(zap.String("component", "store"))

	pois, ok := s.loadBlob(ctx, log)
	if !ok {
		pois = Seed()
		log.Info("loaded seed dataset", zap.Int("count", len(pois)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]poi.POI, len(pois))
	s.order = s.order[:0]
	for _, p := range pois {
		if _, dup := s.byID[p.ID]; dup {
			continue
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p.ID)
	}
}

func (s *Store) loadBlob(ctx context.Context, log *zap.Logger) ([]poi.POI, bool) {
	blob, found, err := s.pers.Load(ctx, s.key)
	if err != nil {
		log.Warn("persistence load failed, falling back to seed", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var env blobEnvelope
	if err := json.Unmarshal(blob, &env); err != nil {
		log.Warn("persisted blob corrupt, falling back to seed", zap.Error(err))
		return nil, false
	}
	log.Info("loaded persisted store", zap.Int("count", len(env.POIs)))
	return env.POIs, true
}

// Merge adds incoming POIs whose identifiers are not already present.
// Existing entries are never overwritten. Invalid records are dropped.
// The full store is persisted whenever at least one POI was added.
func (s *Store) Merge(ctx context.Context, incoming []poi.POI) (int, error) {
	s.mu.Lock()
	added := 0
	for _, p := range incoming {
		if err := p.Validate(); err != nil {
			zap.L().Debug("store: dropping invalid poi", zap.Error(err))
			continue
		}
		if _, dup := s.byID[p.ID]; dup {
			continue
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p.ID)
		added++
	}
	s.mu.Unlock()

	if added == 0 {
		return 0, nil
	}
	if err := s.save(ctx); err != nil {
		return added, eris.Wrap(err, "store: persist after merge")
	}
	return added, nil
}

// All returns a snapshot of every POI in insertion order.
func (s *Store) All() []poi.POI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]poi.POI, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the POI with the given id.
func (s *Store) Get(id string) (poi.POI, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// Len returns the number of POIs in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Save forces a write of the current store to persistence.
func (s *Store) Save(ctx context.Context) error {
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	env := blobEnvelope{Version: blobVersion, POIs: s.All()}
	blob, err := json.Marshal(env)
	if err != nil {
		return eris.Wrap(err, "store: marshal blob")
	}
	return eris.Wrap(s.pers.Save(ctx, s.key, blob), "store: save blob")
}
