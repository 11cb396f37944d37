package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/felo/eml-parser/internal/parser"
)

// Parse decodes the raw message in the request body and returns it as JSON
// without storing it
func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.Server.MaxBodyBytes
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge,
				"message exceeds "+humanize.IBytes(uint64(limit)))
			return
		}
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	parsed, err := h.parser.Parse(raw)
	if errors.Is(err, parser.ErrTooDeeplyNested) {
		h.writeError(w, http.StatusUnprocessableEntity, parser.ErrTooDeeplyNested.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse message")
		h.writeError(w, http.StatusInternalServerError, "failed to parse message")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"size":        humanize.Bytes(uint64(len(raw))),
		"attachments": len(parsed.Attachments),
	}).Debug("Parsed message")

	h.writeJSON(w, http.StatusOK, parsed)
}
