package parser

import (
	"encoding/base64"
	"time"
)

// ParsedEmail is the structured record produced from one raw message.
// Inline attachments are merged into HTML and are not listed in Attachments.
type ParsedEmail struct {
	DeliveryDate *time.Time   `json:"deliveryDate"`
	Date         *time.Time   `json:"date"`
	Subject      string       `json:"subject"`
	To           AddressRef   `json:"to"`
	From         AddressRef   `json:"from"`
	ReplyTo      AddressRef   `json:"replyTo"`
	Text         string       `json:"text"`
	HTML         string       `json:"html"`
	Attachments  []Attachment `json:"attachments"`

	MessageID  string       `json:"messageId,omitempty"`
	Cc         []AddressRef `json:"cc,omitempty"`
	RawHeaders string       `json:"-"`
}

// AddressRef is a single mailbox taken from an address-style header
type AddressRef struct {
	Address     string `json:"address"`
	DisplayName string `json:"name"`
}

// Disposition tells whether an attachment was shown inline or attached
type Disposition string

const (
	DispositionInline  Disposition = "inline"
	DispositionRegular Disposition = "regular"
)

// Attachment is a non-text leaf part with its fully decoded payload re-encoded as base64
type Attachment struct {
	ContentType   string      `json:"contentType"`
	Name          string      `json:"name"`
	ContentID     string      `json:"id"`
	Base64Content string      `json:"base64Content"`
	Disposition   Disposition `json:"disposition"`
}

// Data returns the decoded attachment bytes
func (a Attachment) Data() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Base64Content)
}

// Size returns the length of the decoded payload without decoding it
func (a Attachment) Size() int64 {
	return int64(base64.StdEncoding.DecodedLen(len(a.Base64Content)) - padding(a.Base64Content))
}

func padding(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '='; i-- {
		n++
	}
	return n
}

// BodyPart is a leaf of the multipart tree: its own headers and the still-encoded body
type BodyPart struct {
	Header Header
	Body   string
}
