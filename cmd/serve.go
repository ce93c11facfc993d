package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trailbeacon/sheltermap/internal/engine"
	"github.com/trailbeacon/sheltermap/internal/enrich"
	"github.com/trailbeacon/sheltermap/internal/markers"
	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/provider"
	"github.com/trailbeacon/sheltermap/internal/resilience"
	"github.com/trailbeacon/sheltermap/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync engine behind an HTTP map shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, pers, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pers.Close()

		prov := provider.NewHTTPClient(
			provider.WithBaseURL(cfg.Provider.BaseURL),
			provider.WithUserAgent(cfg.Provider.UserAgent),
			provider.WithRateLimit(cfg.Provider.RateLimit),
			provider.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
			}),
		)

		conn := engine.NewConnectivity(cfg.Sync.AssumeOnline)
		board := markers.NewBoard()
		eng := engine.New(s, prov, conn, board, engine.Config{
			Debounce:     time.Duration(cfg.Sync.DebounceMS) * time.Millisecond,
			FetchTimeout: time.Duration(cfg.Sync.FetchTimeoutSecs) * time.Second,
		})

		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Search.Retries + 1
		searcher := engine.NewSearcher(s, prov, conn, retry)

		var enricher *enrich.Enricher
		if cfg.Enrich.APIKey != "" {
			enricher = enrich.NewEnricher(enrich.NewClient(cfg.Enrich.APIKey), enrich.Config{
				Model:   cfg.Enrich.Model,
				Timeout: time.Duration(cfg.Enrich.TimeoutSecs) * time.Second,
				Retry:   retry,
			})
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(eng, s, board, conn, searcher, enricher),
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return eng.Run(gctx)
		})

		// Marker clicks select the clicked POI.
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case id := <-board.Clicks():
					eng.Select(id)
				}
			}
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		return g.Wait()
	},
}

type serverDeps struct {
	engine   *engine.Engine
	store    *store.Store
	board    *markers.Board
	conn     *engine.Connectivity
	searcher *engine.Searcher
	enricher *enrich.Enricher
}

func newRouter(eng *engine.Engine, s *store.Store, board *markers.Board, conn *engine.Connectivity, searcher *engine.Searcher, enricher *enrich.Enricher) http.Handler {
	d := &serverDeps{engine: eng, store: s, board: board, conn: conn, searcher: searcher, enricher: enricher}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", d.handleStatus)
		r.Get("/pois", d.handlePOIs)
		r.Get("/pois/visible", d.handleVisible)
		r.Get("/pois/{id}/enrichment", d.handleEnrichment)
		r.Post("/viewport", d.handleViewport)
		r.Post("/filters", d.handleFilters)
		r.Post("/select", d.handleSelect)
		r.Post("/search", d.handleSearch)
		r.Get("/markers", d.handleMarkers)
		r.Post("/markers/{id}/click", d.handleMarkerClick)
		r.Post("/connectivity", d.handleConnectivity)
	})

	return r
}

func (d *serverDeps) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.engine.CurrentStats())
}

func (d *serverDeps) handlePOIs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pois": d.store.All()})
}

func (d *serverDeps) handleVisible(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pois": d.engine.Visible()})
}

func (d *serverDeps) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		South float64 `json:"south"`
		West  float64 `json:"west"`
		North float64 `json:"north"`
		East  float64 `json:"east"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.North <= req.South || req.East <= req.West {
		writeError(w, http.StatusBadRequest, "viewport edges out of order")
		return
	}
	d.engine.SetViewport(engine.Bounds(req.South, req.West, req.North, req.East))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (d *serverDeps) handleFilters(w http.ResponseWriter, r *http.Request) {
	var c poi.Criteria
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.engine.SetCriteria(c)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (d *serverDeps) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.engine.Select(req.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (d *serverDeps) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	match, err := d.searcher.Search(r.Context(), req.Query)
	if err != nil {
		zap.L().Warn("name search failed", zap.Error(err))
	}
	if match != nil {
		// The search may have merged new POIs; re-render.
		d.engine.Refresh()
		d.engine.Select(match.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"match": match})
}

func (d *serverDeps) handleEnrichment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := d.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown poi")
		return
	}

	if d.enricher == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enrichment": nil})
		return
	}

	rec, err := d.enricher.Enrich(r.Context(), p)
	if err != nil {
		// Enrichment is best effort. An unavailable answer is not a
		// server failure.
		writeJSON(w, http.StatusOK, map[string]any{"enrichment": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrichment": rec})
}

func (d *serverDeps) handleMarkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"markers": d.board.Snapshot()})
}

func (d *serverDeps) handleMarkerClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !d.board.Click(id) {
		writeError(w, http.StatusNotFound, "unknown marker")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (d *serverDeps) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.conn.SetOnline(req.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": req.Online})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
