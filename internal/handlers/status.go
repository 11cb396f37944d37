package handlers

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

type statsResponse struct {
	TotalEmails          int        `json:"totalEmails"`
	WithAttachments      int        `json:"withAttachments"`
	TotalAttachments     int        `json:"totalAttachments"`
	AttachmentBytes      int64      `json:"attachmentBytes"`
	AttachmentBytesHuman string     `json:"attachmentBytesHuman"`
	LastIndexed          *time.Time `json:"lastIndexed"`
	LastIndexedHuman     string     `json:"lastIndexedHuman"`
	EmailsPath           string     `json:"emailsPath"`
}

// Healthz reports that the server is up
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// Stats reports index statistics
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get stats")
		h.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	resp := statsResponse{
		TotalEmails:          stats.TotalEmails,
		WithAttachments:      stats.WithAttachments,
		TotalAttachments:     stats.TotalAttachments,
		AttachmentBytes:      stats.AttachmentBytes,
		AttachmentBytesHuman: humanize.Bytes(uint64(stats.AttachmentBytes)),
		LastIndexed:          stats.LastIndexed.Ptr(),
		LastIndexedHuman:     "never",
		EmailsPath:           h.cfg.Emails.Path,
	}
	if stats.LastIndexed.Valid {
		resp.LastIndexedHuman = humanize.Time(stats.LastIndexed.Time)
	}

	h.writeJSON(w, http.StatusOK, resp)
}
