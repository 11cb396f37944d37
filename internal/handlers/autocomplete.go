package handlers

import (
	"net/http"
)

// AutocompleteSenders returns sender addresses ordered by how often they occur
func (h *Handlers) AutocompleteSenders(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 100)
	if limit < 1 {
		limit = 100
	}

	senders, err := h.db.GetUniqueSenders(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get unique senders")
		h.writeError(w, http.StatusInternalServerError, "failed to load senders")
		return
	}

	h.writeJSON(w, http.StatusOK, senders)
}
