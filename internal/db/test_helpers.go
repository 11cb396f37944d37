package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/felo/eml-parser/internal/parser"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// TestEmail is a parsed message plus the path it is stored under
type TestEmail struct {
	ID       int64
	FilePath string
	Parsed   *parser.ParsedEmail
}

// CreateTestEmail creates a parsed test email with default values
func CreateTestEmail(subject, sender, body string) *TestEmail {
	date := time.Now().UTC().Truncate(time.Second)
	return &TestEmail{
		FilePath: fmt.Sprintf("test/%s.eml", subject),
		Parsed: &parser.ParsedEmail{
			Date:        &date,
			Subject:     subject,
			From:        parser.AddressRef{Address: sender, DisplayName: "Test Sender"},
			To:          parser.AddressRef{Address: "recipient@test.com"},
			Text:        body,
			Attachments: []parser.Attachment{},
			MessageID:   fmt.Sprintf("%s@test.com", subject),
			RawHeaders:  fmt.Sprintf("From: %s\r\nSubject: %s", sender, subject),
		},
	}
}

// CreateTestEmailWithDate creates a test email with a specific date
func CreateTestEmailWithDate(subject, sender, body string, date time.Time) *TestEmail {
	email := CreateTestEmail(subject, sender, body)
	email.Parsed.Date = &date
	return email
}

// CreateTestEmailWithAttachments creates a test email with small text attachments
func CreateTestEmailWithAttachments(subject, sender, body string, attachmentCount int) *TestEmail {
	email := CreateTestEmail(subject, sender, body)
	for i := 0; i < attachmentCount; i++ {
		email.Parsed.Attachments = append(email.Parsed.Attachments, parser.Attachment{
			ContentType:   "text/plain",
			Name:          fmt.Sprintf("file%d.txt", i+1),
			Base64Content: "aGVsbG8=", // "hello"
			Disposition:   parser.DispositionRegular,
		})
	}
	return email
}

// InsertTestEmails inserts multiple test emails and records their IDs
func InsertTestEmails(t *testing.T, db *DB, emails []*TestEmail) []*TestEmail {
	t.Helper()

	for i, email := range emails {
		id, err := db.InsertParsed(email.FilePath, int64(len(email.Parsed.Text)), email.Parsed)
		if err != nil {
			t.Fatalf("Failed to insert test email %d: %v", i, err)
		}
		emails[i].ID = id
	}

	return emails
}
