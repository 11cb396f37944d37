package parser

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseEML_SimpleEmail tests parsing a basic plain text email
func TestParseEML_SimpleEmail(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/simple.eml")

	require.NoError(t, err, "Should parse simple email without error")
	assert.Equal(t, "Simple Test Email", parsed.Subject)
	assert.Equal(t, AddressRef{Address: "sender@example.com"}, parsed.From)
	assert.Equal(t, AddressRef{Address: "recipient@example.com"}, parsed.To)
	assert.Equal(t, AddressRef{}, parsed.ReplyTo)
	assert.Equal(t, "This is a simple test email.", parsed.Text)
	assert.Empty(t, parsed.HTML)
	assert.NotNil(t, parsed.Attachments)
	assert.Empty(t, parsed.Attachments)
	assert.Equal(t, "simple123@example.com", parsed.MessageID)

	require.NotNil(t, parsed.Date)
	assert.True(t, parsed.Date.Equal(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, parsed.DeliveryDate)
	assert.True(t, parsed.DeliveryDate.Equal(time.Date(2024, time.January, 1, 10, 0, 5, 0, time.UTC)))
	assert.Contains(t, parsed.RawHeaders, "Message-ID: <simple123@example.com>")
}

// TestParseEML_MIMEEncodedSubject tests parsing emails with MIME-encoded headers
func TestParseEML_MIMEEncodedSubject(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/mime-encoded.eml")

	require.NoError(t, err, "Should parse MIME-encoded email without error")

	assert.Equal(t, "Invitación: Reunión de proyecto", parsed.Subject,
		"MIME-encoded subject should be decoded properly")
	assert.Equal(t, AddressRef{Address: "sender@example.com", DisplayName: "José Pérez"}, parsed.From)
	assert.Equal(t, AddressRef{Address: "team@example.com", DisplayName: "Project Team"}, parsed.To)
	assert.Equal(t, AddressRef{Address: "replies@example.com"}, parsed.ReplyTo)
	assert.Equal(t, []AddressRef{
		{Address: "alice@example.com", DisplayName: "Alice"},
		{Address: "bob@example.com"},
	}, parsed.Cc)
	assert.Equal(t, "This email has a MIME-encoded subject line and a café in the body.", parsed.Text)
}

// TestParseEML_Windows1252Charset tests parsing emails with windows-1252 charset
func TestParseEML_Windows1252Charset(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/windows-1252.eml")

	require.NoError(t, err, "Should parse windows-1252 email without error")
	assert.Equal(t, "Windows-1252 Charset Test", parsed.Subject)
	assert.Equal(t, "Written in the windows-1252 charset: “quoted” costs €10.", parsed.Text)
}

// TestParseEML_ISO88591Charset tests parsing emails with iso-8859-1 charset
func TestParseEML_ISO88591Charset(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/iso-8859-1.eml")

	require.NoError(t, err, "Should parse iso-8859-1 email without error")
	assert.Equal(t, "ISO-8859-1 Charset Test", parsed.Subject)
	assert.Equal(t, "This uses the iso-8859-1 charset: Café crème.", parsed.Text)
}

// TestParseEML_WithAttachment tests parsing emails with attachments
func TestParseEML_WithAttachment(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/with-attachment.eml")

	require.NoError(t, err, "Should parse email with attachment without error")
	assert.Equal(t, "Email with Attachment", parsed.Subject)
	assert.Equal(t, "Sender Name", parsed.From.DisplayName)
	assert.Equal(t, "This email has an attachment.", parsed.Text)

	require.Len(t, parsed.Attachments, 1, "Should have exactly 1 attachment")

	att := parsed.Attachments[0]
	assert.Equal(t, "document.pdf", att.Name)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, DispositionRegular, att.Disposition)
	assert.Equal(t, "JVBERi0xLjQgdGVzdCBkb2N1bWVudA==", att.Base64Content)
	assert.Equal(t, int64(len("%PDF-1.4 test document")), att.Size())

	data, err := att.Data()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test document", string(data))
}

// TestParseEML_HTMLEmail tests parsing emails with both HTML and plain text
func TestParseEML_HTMLEmail(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/html-email.eml")

	require.NoError(t, err, "Should parse HTML email without error")
	assert.Equal(t, "HTML Email Test", parsed.Subject)

	assert.Equal(t, "This is the plain text version.", parsed.Text)
	assert.Equal(t,
		"<html><body><h1>This is an HTML email</h1><p>With <strong>HTML</strong> content.</p></body></html>",
		parsed.HTML)
}

// TestParseEML_MissingHeaders tests parsing emails with missing optional headers
func TestParseEML_MissingHeaders(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/missing-headers.eml")

	require.NoError(t, err, "Should parse email with missing headers without error")
	assert.Equal(t, "Missing Headers Test", parsed.Subject)
	assert.Equal(t, "sender@example.com", parsed.From.Address)
	assert.Empty(t, parsed.MessageID)
	assert.Equal(t, AddressRef{}, parsed.To)
	assert.Nil(t, parsed.Cc)

	// An unparsable date is nil, never the Unix epoch
	assert.Nil(t, parsed.Date)
	assert.Nil(t, parsed.DeliveryDate)

	assert.Equal(t, "This email is missing some headers.", parsed.Text)
}

// A multipart/mixed message with a text part, an inline image referenced from
// the HTML, and a regular attachment.
func TestParseEML_InlineAttachment(t *testing.T) {
	parsed, err := ParseEMLFile("testdata/inline-image.eml")
	require.NoError(t, err)

	assert.Equal(t, "See the logo.", parsed.Text)
	assert.Equal(t,
		`<html><body><img src="data:image/png;base64,iVBORw0KGgpmYWtlLWltYWdlLWRhdGE="></body></html>`,
		parsed.HTML)
	assert.NotContains(t, parsed.HTML, "cid:")

	require.Len(t, parsed.Attachments, 1, "inline parts are not listed as attachments")
	att := parsed.Attachments[0]
	assert.Equal(t, "application/zip", att.ContentType)
	assert.Equal(t, "archiv ü.zip", att.Name)
	assert.Equal(t, "", att.ContentID)
	assert.Equal(t, "UEsDBHppcC1ieXRlcw==", att.Base64Content)
	assert.Equal(t, DispositionRegular, att.Disposition)
}

// TestParseEML_InvalidFile tests error handling for non-existent files
func TestParseEML_InvalidFile(t *testing.T) {
	_, err := ParseEMLFile("testdata/does-not-exist.eml")

	assert.Error(t, err, "Should return error for non-existent file")
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestParseEML_Reader(t *testing.T) {
	raw, err := os.ReadFile("testdata/simple.eml")
	require.NoError(t, err)

	parsed, err := ParseEML(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Simple Test Email", parsed.Subject)
}

func TestParse_FirstTextPartWins(t *testing.T) {
	raw := crlf(
		"Content-Type: multipart/mixed; boundary=b",
		"",
		"--b",
		"Content-Type: text/plain",
		"",
		"first",
		"--b",
		"Content-Type: text/plain",
		"",
		"second",
		"--b",
		"Content-Type: text/html",
		"",
		"<p>one</p>",
		"--b",
		"Content-Type: text/html",
		"",
		"<p>two</p>",
		"--b--",
	)

	parsed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "first", parsed.Text)
	assert.Equal(t, "<p>one</p>", parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestParse_UntypedPartOnlyFillsEmptyText(t *testing.T) {
	raw := crlf(
		"Content-Type: multipart/mixed; boundary=b",
		"",
		"--b",
		"Content-Type: text/plain",
		"",
		"typed",
		"--b",
		"Content-Transfer-Encoding: 7bit",
		"",
		"untyped",
		"--b--",
	)

	parsed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "typed", parsed.Text)

	raw = crlf(
		"Content-Type: multipart/mixed; boundary=b",
		"",
		"--b",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gZnJvbSBiYXNlNjQgdGV4dA==",
		"--b",
		"Content-Type: text/plain",
		"",
		"later",
		"--b--",
	)

	parsed, err = Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Hello from base64 text", parsed.Text)
}

func TestParse_InlineWithoutHTMLIsDropped(t *testing.T) {
	raw := crlf(
		"Content-Type: multipart/related; boundary=b",
		"",
		"--b",
		"Content-Type: text/plain",
		"",
		"text only",
		"--b",
		"Content-Type: image/gif",
		"Content-Disposition: INLINE",
		"Content-ID: <pic>",
		"Content-Transfer-Encoding: base64",
		"",
		"R0lGODlh",
		"--b--",
	)

	parsed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "text only", parsed.Text)
	assert.Empty(t, parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestParse_InlineWithoutContentIDIsNotEmbedded(t *testing.T) {
	raw := crlf(
		"Content-Type: multipart/related; boundary=b",
		"",
		"--b",
		"Content-Type: text/html",
		"",
		`<img src="cid:pic">`,
		"--b",
		"Content-Type: image/gif",
		"Content-Disposition: inline",
		"Content-Transfer-Encoding: base64",
		"",
		"R0lGODlh",
		"--b--",
	)

	parsed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, `<img src="cid:pic">`, parsed.HTML)
}

func TestParse_EveryCIDOccurrenceReplaced(t *testing.T) {
	raw := crlf(
		"Content-Type: multipart/related; boundary=b",
		"",
		"--b",
		"Content-Type: text/html",
		"",
		`<img src="cid:pic"><img src="cid:pic">`,
		"--b",
		"Content-Type: image/gif; name=pic.gif",
		"Content-Disposition: inline; filename=pic.gif",
		"Content-ID: <pic>",
		"Content-Transfer-Encoding: base64",
		"",
		"R0lGODlh",
		"--b--",
	)

	parsed, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t,
		`<img src="data:image/gif;base64,R0lGODlh"><img src="data:image/gif;base64,R0lGODlh">`,
		parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestParse_TooDeeplyNested(t *testing.T) {
	_, err := New().WithMaxDepth(2).Parse([]byte(nestedMessage(5)))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeeplyNested))
}

func TestParse_EmptyInput(t *testing.T) {
	parsed, err := Parse(nil)

	require.NoError(t, err)
	assert.Equal(t, "", parsed.Text)
	assert.Equal(t, "", parsed.Subject)
	assert.Nil(t, parsed.Date)
	assert.Empty(t, parsed.Attachments)
}

func TestParse_Idempotent(t *testing.T) {
	raw, err := os.ReadFile("testdata/inline-image.eml")
	require.NoError(t, err)

	first, err := Parse(raw)
	require.NoError(t, err)
	second, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// Parsers keep no per-message state, so one instance serves many goroutines
func TestParse_Concurrent(t *testing.T) {
	raw, err := os.ReadFile("testdata/with-attachment.eml")
	require.NoError(t, err)

	want, err := Parse(raw)
	require.NoError(t, err)

	p := New()
	var wg sync.WaitGroup
	results := make([]*ParsedEmail, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Parse(raw)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

// TestParseDate tests various date formats
func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
		want    time.Time
	}{
		{
			name:    "RFC 2822 format",
			dateStr: "Mon, 1 Jan 2024 10:00:00 +0000",
			want:    time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "Alternative format",
			dateStr: "1 Jan 2024 10:00:00 GMT",
			want:    time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "Trailing comment",
			dateStr: "Tue, 02 Jan 2024 11:30:00 +0100 (CET)",
			want:    time.Date(2024, time.January, 2, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "ISO 8601",
			dateStr: "2024-01-03T08:00:00Z",
			want:    time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.dateStr)
			require.NotNil(t, got)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("yesterday-ish"))
}
