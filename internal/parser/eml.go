package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Parser turns raw RFC 822 / MIME messages into ParsedEmail records.
// A Parser holds no per-message state and is safe for concurrent use.
type Parser struct {
	maxDepth int
	charsets CharsetConverter
	words    WordDecoder
}

// New creates a parser with the default depth limit, charset table and word decoder
func New() *Parser {
	return &Parser{
		maxDepth: DefaultMaxDepth,
		charsets: DefaultCharsetConverter,
		words:    NewWordDecoder(),
	}
}

// WithMaxDepth sets the maximum multipart nesting depth
func (p *Parser) WithMaxDepth(depth int) *Parser {
	if depth < 1 {
		depth = 1
	}
	p.maxDepth = depth
	return p
}

// WithCharsetConverter replaces the charset-to-UTF-8 converter
func (p *Parser) WithCharsetConverter(c CharsetConverter) *Parser {
	if c != nil {
		p.charsets = c
	}
	return p
}

// WithWordDecoder replaces the RFC 2047 encoded-word decoder
func (p *Parser) WithWordDecoder(d WordDecoder) *Parser {
	if d != nil {
		p.words = d
	}
	return p
}

var defaultParser = New()

// Parse parses a raw message with the default parser
func Parse(raw []byte) (*ParsedEmail, error) {
	return defaultParser.Parse(raw)
}

// ParseEMLFile parses an .eml file and returns a ParsedEmail
func ParseEMLFile(filePath string) (*ParsedEmail, error) {
	return defaultParser.ParseEMLFile(filePath)
}

// ParseEML parses an email from a reader
func ParseEML(r io.Reader) (*ParsedEmail, error) {
	return defaultParser.ParseEML(r)
}

// ParseEMLFile parses an .eml file
func (p *Parser) ParseEMLFile(filePath string) (*ParsedEmail, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return p.Parse(raw)
}

// ParseEML reads the whole message from r and parses it
func (p *Parser) ParseEML(r io.Reader) (*ParsedEmail, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}
	return p.Parse(buf.Bytes())
}

// Parse decodes one raw message. Malformed input degrades to empty fields;
// the only error is ErrTooDeeplyNested.
func (p *Parser) Parse(raw []byte) (*ParsedEmail, error) {
	message := string(raw)
	block, _ := splitHeaderBlock(message)
	header := ParseHeaders(block)

	parsed := &ParsedEmail{
		DeliveryDate: parseDate(header.Get("Delivery-date")),
		Date:         parseDate(header.Get("Date")),
		Subject:      decodeMIMEWord(p.words, header.Get("Subject")),
		To:           p.parseAddress(header.Get("To")),
		From:         p.parseAddress(header.Get("From")),
		ReplyTo:      p.parseAddress(header.Get("Reply-To")),
		Attachments:  []Attachment{},
		MessageID:    parseMessageID(header.Get("Message-ID")),
		Cc:           p.parseAddressList(header, "Cc"),
		RawHeaders:   strings.TrimSpace(block),
	}

	parts, err := p.Parts(message)
	if err != nil {
		return nil, fmt.Errorf("failed to split body parts: %w", err)
	}
	p.assembleBody(parts, parsed)

	return parsed, nil
}

// fallbackDateLayouts covers dates that net/mail rejects but mailers still send
var fallbackDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// parseDate parses an RFC 5322 date. It returns nil when the value is empty
// or unparsable so that a bad date never reads as the Unix epoch.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var h mail.Header
	h.Set("Date", value)
	if t, err := h.Date(); err == nil {
		return &t
	}

	value = strings.Join(strings.Fields(value), " ")
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// parseMessageID returns the identifier without angle brackets
func parseMessageID(value string) string {
	if value == "" {
		return ""
	}
	var h mail.Header
	h.Set("Message-Id", value)
	if id, err := h.MessageID(); err == nil && id != "" {
		return id
	}
	return strings.Trim(strings.TrimSpace(value), "<>")
}
