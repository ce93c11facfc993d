// Package engine contains the viewport-driven synchronization core: a
// single-owner event loop that turns viewport changes, filter changes, and
// connectivity transitions into a minimal, race-free sequence of provider
// fetches, store merges, and marker reconciliations.
package engine

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/markers"
	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/provider"
	"github.com/trailbeacon/sheltermap/internal/store"
)

// Config tunes the engine's scheduled waits. These are the only two timed
// waits in the core.
type Config struct {
	// Debounce is how long the viewport must stay still before an area
	// fetch fires. Default 600ms.
	Debounce time.Duration

	// FetchTimeout bounds a single provider request. Default 15s.
	FetchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 600 * time.Millisecond
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	return c
}

// Bounds builds a viewport bounding box from compass-edge coordinates.
func Bounds(south, west, north, east float64) *geom.Bounds {
	// go-geom layout: x=longitude, y=latitude.
	return geom.NewBounds(geom.XY).Set(west, south, east, north)
}

// Stats is a point-in-time view of the engine for the status surface.
type Stats struct {
	Online        bool  `json:"online"`
	Searching     bool  `json:"searching"`
	StoreSize     int   `json:"store_size"`
	VisibleCount  int   `json:"visible_count"`
	FetchFailures int64 `json:"fetch_failures"`
}

type (
	viewportEvent     struct{ bounds *geom.Bounds }
	criteriaEvent     struct{ criteria poi.Criteria }
	selectEvent       struct{ id string }
	connectivityEvent struct{ online bool }
	refreshEvent      struct{}
)

type fetchResult struct {
	epoch uint64
	pois  []poi.POI
	err   error
}

// Engine owns viewport, criteria, selection, the fetch epoch, the debounce
// timer, and the marker reconciler. All state transitions are serialized
// through its run loop; fetches run on goroutines and report back tagged
// with the epoch they were issued under. Only the newest epoch's result is
// honored, which is what makes superseded fetches harmless whenever their
// responses arrive.
type Engine struct {
	store *store.Store
	prov  provider.Provider
	conn  *Connectivity
	recon *markers.Reconciler
	cfg   Config
	log   *zap.Logger

	events  chan any
	results chan fetchResult

	searching     atomic.Bool
	fetchFailures atomic.Int64

	// snapshot state readable outside the loop
	snapMu     stdsync.RWMutex
	visible    []poi.POI
	selectedID string

	// loop-owned state
	criteria    poi.Criteria
	viewport    *geom.Bounds
	epoch       uint64
	cancelFetch context.CancelFunc
	debounce    *Debounce
	runCtx      context.Context
}

// New creates an engine. The store should already be loaded.
func New(s *store.Store, prov provider.Provider, conn *Connectivity, renderer markers.Renderer, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		store:    s,
		prov:     prov,
		conn:     conn,
		recon:    markers.NewReconciler(renderer),
		cfg:      cfg,
		log:      zap.L().With(zap.String("component", "engine")),
		events:   make(chan any, 32),
		results:  make(chan fetchResult, 4),
		debounce: NewDebounce(cfg.Debounce),
	}
}

// SetViewport reports a viewport change. Fetching is debounced; only the
// bounds from the last event before the viewport settles are queried.
func (e *Engine) SetViewport(b *geom.Bounds) { e.events <- viewportEvent{bounds: b} }

// SetCriteria replaces the filter criteria and re-renders without touching
// the network.
func (e *Engine) SetCriteria(c poi.Criteria) { e.events <- criteriaEvent{criteria: c} }

// Select marks one POI as selected (empty id clears the selection).
func (e *Engine) Select(id string) { e.events <- selectEvent{id: id} }

// Refresh re-evaluates the filter against the store and reconciles. Called
// after out-of-loop store merges (name search, imports).
func (e *Engine) Refresh() { e.events <- refreshEvent{} }

// Busy reports whether an area fetch is in flight ("searching this area").
func (e *Engine) Busy() bool { return e.searching.Load() }

// Visible returns the most recently reconciled filtered POI set.
func (e *Engine) Visible() []poi.POI {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	out := make([]poi.POI, len(e.visible))
	copy(out, e.visible)
	return out
}

// Selected returns the currently selected POI id ("" if none).
func (e *Engine) Selected() string {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.selectedID
}

// CurrentStats snapshots the engine counters.
func (e *Engine) CurrentStats() Stats {
	e.snapMu.RLock()
	visibleCount := len(e.visible)
	e.snapMu.RUnlock()
	return Stats{
		Online:        e.conn.Online(),
		Searching:     e.searching.Load(),
		StoreSize:     e.store.Len(),
		VisibleCount:  visibleCount,
		FetchFailures: e.fetchFailures.Load(),
	}
}

// Run drives the event loop until ctx is done. It must be called exactly
// once; every other method is safe from any goroutine.
func (e *Engine) Run(ctx context.Context) error {
	e.runCtx = ctx

	e.conn.Subscribe(func(online bool) {
		select {
		case e.events <- connectivityEvent{online: online}:
		case <-ctx.Done():
		}
	})

	// Render whatever the store loaded before the first viewport arrives.
	e.refresh()

	for {
		select {
		case <-ctx.Done():
			e.abortFetch()
			return nil
		case ev := <-e.events:
			e.handle(ev)
		case <-e.debounce.C():
			e.debounce.Cancel()
			e.startFetch()
		case res := <-e.results:
			e.settle(res)
		}
	}
}

func (e *Engine) handle(ev any) {
	switch ev := ev.(type) {
	case viewportEvent:
		e.viewport = ev.bounds
		if !e.conn.Online() {
			// Offline pans still record the viewport so the next online
			// transition can backfill it.
			e.log.Debug("offline, skipping area fetch")
			return
		}
		e.debounce.Schedule()

	case criteriaEvent:
		e.criteria = ev.criteria
		e.refresh()

	case selectEvent:
		e.snapMu.Lock()
		e.selectedID = ev.id
		visible := e.visible
		e.snapMu.Unlock()
		// Selection changes styling only; no re-filter, no network.
		e.recon.Reconcile(visible, ev.id)

	case connectivityEvent:
		if ev.online {
			e.log.Info("connectivity restored")
			if e.viewport != nil {
				// Backfill the settled viewport immediately, no debounce.
				e.startFetch()
			}
			return
		}
		e.log.Info("connectivity lost")
		e.debounce.Cancel()
		e.abortFetch()

	case refreshEvent:
		e.refresh()
	}
}

// startFetch supersedes any outstanding fetch and issues a bounding-box
// query for the current viewport. The type filter is read here, at fetch
// time, so a type change during the debounce window is honored.
func (e *Engine) startFetch() {
	if e.viewport == nil || !e.conn.Online() {
		return
	}

	e.abortFetch()
	e.epoch++
	epoch := e.epoch

	fctx, cancel := context.WithTimeout(e.runCtx, e.cfg.FetchTimeout)
	e.cancelFetch = cancel
	e.searching.Store(true)

	bounds, typ := e.viewport, e.criteria.Type
	go func() {
		pois, err := e.prov.SearchBounds(fctx, bounds, typ)
		select {
		case e.results <- fetchResult{epoch: epoch, pois: pois, err: err}:
		case <-e.runCtx.Done():
		}
	}()
}

// settle handles a fetch outcome. Results from superseded epochs are
// discarded; the newer in-flight fetch keeps the busy flag.
func (e *Engine) settle(res fetchResult) {
	if res.epoch != e.epoch {
		e.log.Debug("discarding superseded fetch result", zap.Uint64("epoch", res.epoch))
		return
	}

	e.abortFetch()
	e.searching.Store(false)

	if res.err != nil {
		if errors.Is(res.err, context.Canceled) {
			e.log.Debug("area fetch cancelled")
		} else {
			e.fetchFailures.Add(1)
			e.log.Warn("area fetch failed", zap.Error(res.err))
		}
		return
	}

	added, err := e.store.Merge(e.runCtx, res.pois)
	if err != nil {
		e.log.Warn("merge persistence failed", zap.Error(err))
	}
	e.log.Debug("area fetch merged",
		zap.Int("received", len(res.pois)),
		zap.Int("added", added),
	)
	if added > 0 {
		e.refresh()
	}
}

func (e *Engine) abortFetch() {
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
}

// refresh re-runs the pure filter over the store and reconciles markers.
func (e *Engine) refresh() {
	visible := poi.Evaluate(e.store.All(), e.criteria)

	e.snapMu.Lock()
	e.visible = visible
	selected := e.selectedID
	e.snapMu.Unlock()

	e.recon.Reconcile(visible, selected)
}
