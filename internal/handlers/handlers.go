package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/felo/eml-parser/internal/config"
	"github.com/felo/eml-parser/internal/db"
	"github.com/felo/eml-parser/internal/parser"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db        *db.DB
	cfg       *config.Config
	parser    *parser.Parser
	logger    *logrus.Logger
	sanitizer *bluemonday.Policy
	scan      *scanState
}

// New creates a new Handlers instance
func New(database *db.DB, cfg *config.Config, p *parser.Parser, logger *logrus.Logger) *Handlers {
	if p == nil {
		p = parser.New().WithMaxDepth(cfg.Parser.MaxDepth)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handlers{
		db:        database,
		cfg:       cfg,
		parser:    p,
		logger:    logger,
		sanitizer: newSanitizer(),
		scan:      &scanState{},
	}
}

// newSanitizer allows user-generated HTML plus the data: images that inline
// attachments are embedded as
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	return p
}

// Routes builds the router for the HTTP API
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", h.Healthz)
	r.Get("/stats", h.Stats)

	r.Post("/parse", h.Parse)

	r.Get("/emails", h.ListEmails)
	r.Get("/emails/{id}", h.GetEmail)
	r.Get("/emails/{id}/html", h.EmailHTML)
	r.Delete("/emails/{id}", h.DeleteEmail)
	r.Get("/attachments/{id}/download", h.DownloadAttachment)
	r.Get("/senders", h.AutocompleteSenders)

	r.Post("/scan", h.Scan)
	r.Get("/scan", h.ScanStatus)

	return r
}

// writeJSON encodes v as the response body
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError sends {"error": message} with the given status
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// idParam reads the numeric {id} URL parameter
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// intQuery reads a non-negative integer query parameter, falling back to def
func intQuery(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}

func pageSize(r *http.Request) int {
	limit := intQuery(r, "limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit
}
