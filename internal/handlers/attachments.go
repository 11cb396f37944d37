package handlers

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

// sanitizeFilename removes dangerous characters from attachment filenames
func sanitizeFilename(filename string) string {
	// Remove path separators of either platform
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	// Remove any control characters and quotes
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, filename)

	// Limit length
	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}

	if cleaned == "" {
		cleaned = "download.bin"
	}

	return cleaned
}

// DownloadAttachment handles attachment downloads
func (h *Handlers) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid attachment ID")
		return
	}

	att, err := h.db.GetAttachmentByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to load attachment")
		h.writeError(w, http.StatusInternalServerError, "failed to load attachment")
		return
	}
	if att == nil {
		h.writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	data, err := att.Data()
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to decode attachment")
		h.writeError(w, http.StatusInternalServerError, "failed to decode attachment")
		return
	}

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{
			"filename": sanitizeFilename(att.Name),
		}))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	w.Write(data)
}
