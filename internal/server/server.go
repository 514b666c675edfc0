package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/keepsake/internal/engine"
	"github.com/lazypower/keepsake/internal/store"
)

// KnownCategories is the display set offered to UI pickers. The store
// accepts any category string; this list is not enforced on writes.
var KnownCategories = []string{"general", "career", "finance", "personal", "tech", "health"}

// Server is the keepsake HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given store, engine and version string.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/categories", s.handleCategories)

		r.Route("/decisions", func(r chi.Router) {
			r.Get("/", s.handleListDecisions)
			r.Post("/", s.handleCreateDecision)
			r.Delete("/", s.handleClearDecisions)
			r.Post("/undo/{undoID}", s.handleUndoDelete)
			r.Get("/{id}", s.handleGetDecision)
			r.Patch("/{id}/pin", s.handleTogglePin)
			r.Patch("/{id}/category", s.handleSetCategory)
			r.Delete("/{id}", s.handleDeleteDecision)
		})

		r.Post("/chat", s.handleChat)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}
	count, _ := s.db.CountDecisions()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"db":        dbOK,
		"db_path":   s.db.Path,
		"decisions": count,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"categories": KnownCategories})
}
