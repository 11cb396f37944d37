package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/felo/eml-parser/internal/db"
	"github.com/felo/eml-parser/internal/parser"
)

// emailResponse is the JSON shape of a stored email
type emailResponse struct {
	ID              int64                `json:"id"`
	FilePath        string               `json:"filePath"`
	MessageID       string               `json:"messageId,omitempty"`
	Subject         string               `json:"subject"`
	From            parser.AddressRef    `json:"from"`
	To              parser.AddressRef    `json:"to"`
	ReplyTo         parser.AddressRef    `json:"replyTo"`
	Cc              string               `json:"cc,omitempty"`
	Date            *time.Time           `json:"date"`
	DeliveryDate    *time.Time           `json:"deliveryDate"`
	Text            string               `json:"text,omitempty"`
	HasHTML         bool                 `json:"hasHtml"`
	Snippet         string               `json:"snippet,omitempty"`
	FileSize        int64                `json:"fileSize"`
	FileSizeHuman   string               `json:"fileSizeHuman"`
	AttachmentCount int                  `json:"attachmentCount"`
	Attachments     []attachmentResponse `json:"attachments,omitempty"`
}

type attachmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId,omitempty"`
	Disposition string `json:"disposition"`
	Size        int64  `json:"size"`
	SizeHuman   string `json:"sizeHuman"`
	DownloadURL string `json:"downloadUrl"`
}

func newEmailResponse(e *db.Email) emailResponse {
	return emailResponse{
		ID:              e.ID,
		FilePath:        e.FilePath,
		MessageID:       e.MessageID,
		Subject:         e.Subject,
		From:            parser.AddressRef{Address: e.FromAddress, DisplayName: e.FromName},
		To:              parser.AddressRef{Address: e.ToAddress, DisplayName: e.ToName},
		ReplyTo:         parser.AddressRef{Address: e.ReplyToAddress, DisplayName: e.ReplyToName},
		Cc:              e.Cc,
		Date:            e.Date.Ptr(),
		DeliveryDate:    e.DeliveryDate.Ptr(),
		HasHTML:         e.BodyHTML != "",
		FileSize:        e.FileSize,
		FileSizeHuman:   humanize.Bytes(uint64(e.FileSize)),
		AttachmentCount: e.AttachmentCount,
	}
}

func newAttachmentResponse(a *db.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:          a.ID,
		Name:        a.Name,
		ContentType: a.ContentType,
		ContentID:   a.ContentID,
		Disposition: a.Disposition,
		Size:        a.Size,
		SizeHuman:   humanize.Bytes(uint64(a.Size)),
		DownloadURL: fmt.Sprintf("/attachments/%d/download", a.ID),
	}
}

// GetEmail returns a stored email with its text body and attachment metadata
func (h *Handlers) GetEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid email ID")
		return
	}

	email, err := h.db.GetEmailByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to load email")
		h.writeError(w, http.StatusInternalServerError, "failed to load email")
		return
	}
	if email == nil {
		h.writeError(w, http.StatusNotFound, "email not found")
		return
	}

	attachments, err := h.db.GetAttachmentsByEmailID(id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to load attachments")
		h.writeError(w, http.StatusInternalServerError, "failed to load attachments")
		return
	}

	resp := newEmailResponse(email)
	resp.Text = email.BodyText
	for _, att := range attachments {
		resp.Attachments = append(resp.Attachments, newAttachmentResponse(att))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// EmailHTML serves the sanitised HTML body. Emails without one get their
// text body escaped in a <pre> block.
func (h *Handlers) EmailHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid email ID")
		return
	}

	email, err := h.db.GetEmailByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to load email")
		h.writeError(w, http.StatusInternalServerError, "failed to load email")
		return
	}
	if email == nil {
		h.writeError(w, http.StatusNotFound, "email not found")
		return
	}

	body := "<pre>" + html.EscapeString(email.BodyText) + "</pre>"
	if email.BodyHTML != "" {
		body = h.sanitizer.Sanitize(email.BodyHTML)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src data:; style-src 'unsafe-inline'")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write([]byte(body))
}

// DeleteEmail removes an email from the index. The .eml file stays on disk.
func (h *Handlers) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid email ID")
		return
	}

	err := h.db.DeleteEmail(id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "email not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to delete email")
		h.writeError(w, http.StatusInternalServerError, "failed to delete email")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
