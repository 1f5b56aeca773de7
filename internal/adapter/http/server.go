package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/card"
	"github.com/couchcryptid/fire-danger-card/internal/catalog"
	"github.com/couchcryptid/fire-danger-card/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxPushBytes bounds the body of a state push.
const maxPushBytes = 1 << 20

// CardSource looks up the cards on the dashboard.
type CardSource interface {
	Card(entity string) (*card.Card, bool)
	Cards() []*card.Card
}

// CatalogSource lists registered card types.
type CatalogSource interface {
	Entries() []catalog.Entry
}

// StatePusher applies state changes and re-renders the cards.
type StatePusher interface {
	Push(ctx context.Context, changes []domain.StateChange) error
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Ready   sharedobs.ReadinessChecker
	Cards   CardSource
	Catalog CatalogSource
	States  StatePusher
}

// Server exposes the card surfaces, the catalog, the state push endpoint,
// and the health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with card, API, and probe routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /cards/{entity}", s.handleCard)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/cards", s.handleCards)
	mux.HandleFunc("POST /api/v1/states", s.handlePushStates)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleCard serves the committed fragment of one card. The surface version
// doubles as the ETag.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	c, ok := s.deps.Cards.Card(entity)
	if !ok {
		writeError(w, http.StatusNotFound, "no card for entity "+entity)
		return
	}

	html, version, ok := c.Surface().Contents()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "card has not rendered yet")
		return
	}

	etag := `"` + strconv.FormatUint(version, 10) + `"`
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.Entries())
}

type cardResponse struct {
	Entity     string    `json:"entity"`
	Size       int       `json:"size"`
	Version    uint64    `json:"version"`
	RenderedAt time.Time `json:"rendered_at,omitzero"`
}

func (s *Server) handleCards(w http.ResponseWriter, _ *http.Request) {
	cards := s.deps.Cards.Cards()
	resp := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		version, committedAt := c.Surface().Stat()
		resp = append(resp, cardResponse{
			Entity:     c.Entity(),
			Size:       c.Size(),
			Version:    version,
			RenderedAt: committedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePushStates(w http.ResponseWriter, r *http.Request) {
	changes, err := decodeStateChanges(http.MaxBytesReader(w, r.Body, maxPushBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.States.Push(r.Context(), changes); err != nil {
		s.logger.Error("push states failed", "error", err, "count", len(changes))
		writeError(w, http.StatusBadGateway, "state applied but surfaces could not be published")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(changes)})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
