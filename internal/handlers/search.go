package handlers

import (
	"net/http"
	"strings"
)

type emailListResponse struct {
	Query  string          `json:"query,omitempty"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Emails []emailResponse `json:"emails"`
}

// ListEmails lists the most recent emails, or searches them when q is set
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := pageSize(r)
	offset := intQuery(r, "offset", 0)

	results, err := h.db.SearchEmailsWithOffset(query, limit, offset)
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Error("Search failed")
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := emailListResponse{
		Query:  query,
		Total:  len(results),
		Limit:  limit,
		Offset: offset,
		Emails: make([]emailResponse, 0, len(results)),
	}
	if query == "" {
		count, err := h.db.CountEmails()
		if err != nil {
			h.logger.WithError(err).Error("Failed to count emails")
			h.writeError(w, http.StatusInternalServerError, "failed to count emails")
			return
		}
		resp.Total = count
	}

	for _, result := range results {
		email := newEmailResponse(&result.Email)
		email.Snippet = result.Snippet
		resp.Emails = append(resp.Emails, email)
	}

	h.writeJSON(w, http.StatusOK, resp)
}
