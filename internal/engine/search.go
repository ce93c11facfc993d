package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/provider"
	"github.com/trailbeacon/sheltermap/internal/resilience"
	"github.com/trailbeacon/sheltermap/internal/store"
)

// Searcher is the one-shot name search flow. Unlike area fetches it is not
// debounced and not superseded by viewport activity; the store's dedup
// merge is the only coordination it needs with the engine.
type Searcher struct {
	store *store.Store
	prov  provider.Provider
	conn  *Connectivity
	retry resilience.RetryConfig
	log   *zap.Logger
}

// NewSearcher creates a name search coordinator.
func NewSearcher(s *store.Store, prov provider.Provider, conn *Connectivity, retry resilience.RetryConfig) *Searcher {
	return &Searcher{
		store: s,
		prov:  prov,
		conn:  conn,
		retry: retry,
		log:   zap.L().With(zap.String("component", "search")),
	}
}

// Search resolves a free-text query to the best matching POI, or nil when
// nothing matches. Offline it scans only the local store. Online it asks
// the provider and merges every returned POI before answering. The
// returned error exists for observability; on error the match is always
// nil and callers keep their prior selection.
func (s *Searcher) Search(ctx context.Context, query string) (*poi.POI, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if !s.conn.Online() {
		return s.searchLocal(query), nil
	}

	results, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([]poi.POI, error) {
		return s.prov.SearchName(ctx, query)
	})
	if err != nil {
		s.log.Warn("name search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	if _, err := s.store.Merge(ctx, results); err != nil {
		s.log.Warn("name search merge persistence failed", zap.Error(err))
	}

	first := results[0]
	return &first, nil
}

// searchLocal returns the first store-order POI whose name contains the
// query, compared case-folded.
func (s *Searcher) searchLocal(query string) *poi.POI {
	fold := cases.Fold()
	q := fold.String(query)
	for _, p := range s.store.All() {
		if strings.Contains(fold.String(p.Name), q) {
			return &p
		}
	}
	return nil
}
