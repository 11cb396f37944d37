package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/felo/eml-parser/internal/indexer"
)

// scanState tracks the running scan, if any, and the outcome of the last one
type scanState struct {
	mu          sync.RWMutex
	isScanning  bool
	current     int
	total       int
	currentFile string
	startedAt   time.Time
	lastResult  *indexer.IndexResult
	lastError   string
}

// ScanStatus is the JSON shape of GET /scan
type ScanStatus struct {
	Scanning    bool                 `json:"scanning"`
	Current     int                  `json:"current"`
	Total       int                  `json:"total"`
	CurrentFile string               `json:"currentFile,omitempty"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	LastResult  *indexer.IndexResult `json:"lastResult,omitempty"`
	LastError   string               `json:"lastError,omitempty"`
}

func (s *scanState) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isScanning {
		return false
	}
	s.isScanning = true
	s.current = 0
	s.total = 0
	s.currentFile = ""
	s.startedAt = time.Now()
	return true
}

func (s *scanState) progress(current, total int, filePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = current
	s.total = total
	s.currentFile = filePath
}

func (s *scanState) finish(result *indexer.IndexResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isScanning = false
	s.currentFile = ""
	s.lastResult = result
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

func (s *scanState) snapshot() ScanStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := ScanStatus{
		Scanning:    s.isScanning,
		Current:     s.current,
		Total:       s.total,
		CurrentFile: s.currentFile,
		LastResult:  s.lastResult,
		LastError:   s.lastError,
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		status.StartedAt = &started
	}
	return status
}

// newIndexer builds an indexer over the configured mail directory
func (h *Handlers) newIndexer() *indexer.Indexer {
	return indexer.NewIndexer(h.db, h.parser, h.cfg.Emails.Path, h.logger).
		WithConcurrency(h.cfg.Indexer.Workers).
		WithExtensions(h.cfg.Emails.Extensions...)
}

// Scan indexes new files below the emails path and returns the result.
// Only one scan runs at a time.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	if !h.scan.begin() {
		h.writeError(w, http.StatusConflict, "scan already in progress")
		return
	}

	start := time.Now()
	result, err := h.newIndexer().IndexWithProgress(r.Context(), h.scan.progress)
	h.scan.finish(result, err)

	if err != nil {
		h.logger.WithError(err).Error("Scan failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"new":      result.NewIndexed,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("Scan finished")

	h.writeJSON(w, http.StatusOK, result)
}

// ScanStatus reports the progress of a running scan and the last result
func (h *Handlers) ScanStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.scan.snapshot())
}
