package db

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felo/eml-parser/internal/parser"
)

// NullTime is a custom type that handles both string and time.Time from SQLite
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NewNullTime converts an optional parsed date
func NewNullTime(t *time.Time) NullTime {
	if t == nil {
		return NullTime{}
	}
	return NullTime{Time: *t, Valid: true}
}

// Scan implements sql.Scanner for NullTime
func (nt *NullTime) Scan(value interface{}) error {
	if value == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		formats := []string{
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05.999999999 -0700 MST",
			"2006-01-02 15:04:05.999999999 -0700",
			"2006-01-02 15:04:05.999999999",
			"2006-01-02 15:04:05",
		}

		var t time.Time
		var err error
		for _, format := range formats {
			t, err = time.Parse(format, v)
			if err == nil {
				nt.Time, nt.Valid = t, true
				return nil
			}
		}

		return fmt.Errorf("failed to parse time string %q: %w", v, err)
	default:
		return fmt.Errorf("unsupported Scan type for NullTime: %T", value)
	}
}

// Value implements driver.Valuer for NullTime
func (nt NullTime) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Time, nil
}

// MarshalJSON writes null for a missing time
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(nt.Time)
}

// Ptr returns the time or nil
func (nt NullTime) Ptr() *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// Email represents a stored, already parsed message
type Email struct {
	ID              int64
	FilePath        string
	MessageID       string
	Subject         string
	FromAddress     string
	FromName        string
	ToAddress       string
	ToName          string
	ReplyToAddress  string
	ReplyToName     string
	Cc              string
	Date            NullTime
	DeliveryDate    NullTime
	BodyText        string
	BodyHTML        string
	RawHeaders      string
	AttachmentCount int
	FileSize        int64
	IndexedAt       NullTime
}

// Attachment represents a stored attachment. Content holds the base64 payload
// and is only loaded by GetAttachmentByID.
type Attachment struct {
	ID          int64
	EmailID     int64
	Name        string
	ContentType string
	ContentID   string
	Disposition string
	Size        int64
	Content     string
}

// Data decodes the base64 payload
func (a *Attachment) Data() ([]byte, error) {
	return parser.Attachment{Base64Content: a.Content}.Data()
}

const emailColumns = `
	id, file_path, message_id, subject,
	from_address, from_name, to_address, to_name, reply_to_address, reply_to_name, cc,
	date, delivery_date, body_text, body_html, raw_headers,
	attachment_count, file_size, indexed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmail(row rowScanner, extra ...interface{}) (*Email, error) {
	email := &Email{}
	dest := []interface{}{
		&email.ID, &email.FilePath, &email.MessageID, &email.Subject,
		&email.FromAddress, &email.FromName, &email.ToAddress, &email.ToName,
		&email.ReplyToAddress, &email.ReplyToName, &email.Cc,
		&email.Date, &email.DeliveryDate, &email.BodyText, &email.BodyHTML, &email.RawHeaders,
		&email.AttachmentCount, &email.FileSize, &email.IndexedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return email, nil
}

// FormatAddress renders an address as "Name <address>", or the bare address without a name
func FormatAddress(a parser.AddressRef) string {
	if a.DisplayName == "" {
		return a.Address
	}
	return a.DisplayName + " <" + a.Address + ">"
}

func joinAddresses(list []parser.AddressRef) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, FormatAddress(a))
	}
	return strings.Join(parts, ", ")
}

// InsertParsed stores a parsed message and its attachments in one transaction
func (db *DB) InsertParsed(filePath string, fileSize int64, p *parser.ParsedEmail) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO emails (
			file_path, message_id, subject,
			from_address, from_name, to_address, to_name, reply_to_address, reply_to_name, cc,
			date, delivery_date, body_text, body_html, raw_headers,
			attachment_count, file_size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		filePath, p.MessageID, p.Subject,
		p.From.Address, p.From.DisplayName, p.To.Address, p.To.DisplayName,
		p.ReplyTo.Address, p.ReplyTo.DisplayName, joinAddresses(p.Cc),
		NewNullTime(p.Date), NewNullTime(p.DeliveryDate), p.Text, p.HTML, p.RawHeaders,
		len(p.Attachments), fileSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert email: %w", err)
	}

	emailID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if len(p.Attachments) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO attachments (email_id, name, content_type, content_id, disposition, size, content_base64)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, att := range p.Attachments {
			_, err := stmt.Exec(emailID, att.Name, att.ContentType, att.ContentID,
				att.Disposition, att.Size(), att.Base64Content)
			if err != nil {
				return 0, fmt.Errorf("failed to insert attachment %s: %w", att.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return emailID, nil
}

// EmailExists checks if an email with the given file path already exists
func (db *DB) EmailExists(filePath string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM emails WHERE file_path = ?)", filePath).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// EmailsExistBatch checks which emails already exist in the database.
// Returns a map of file paths to their existence status.
func (db *DB) EmailsExistBatch(filePaths []string) (map[string]bool, error) {
	result := make(map[string]bool, len(filePaths))

	// SQLite limits the number of variables in a query
	const chunkSize = 500
	for i := 0; i < len(filePaths); i += chunkSize {
		end := i + chunkSize
		if end > len(filePaths) {
			end = len(filePaths)
		}
		if err := db.checkExistenceChunk(filePaths[i:end], result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (db *DB) checkExistenceChunk(filePaths []string, result map[string]bool) error {
	if len(filePaths) == 0 {
		return nil
	}

	query := "SELECT file_path FROM emails WHERE file_path IN (?" +
		strings.Repeat(",?", len(filePaths)-1) + ")"

	args := make([]interface{}, len(filePaths))
	for i, fp := range filePaths {
		args[i] = fp
		result[fp] = false
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to check email existence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var filePath string
		if err := rows.Scan(&filePath); err != nil {
			return fmt.Errorf("failed to scan file path: %w", err)
		}
		result[filePath] = true
	}

	return rows.Err()
}

// GetEmailByID retrieves an email by its ID. A missing email is (nil, nil).
func (db *DB) GetEmailByID(id int64) (*Email, error) {
	email, err := scanEmail(db.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return email, nil
}

// ListEmails retrieves the most recent emails with pagination.
// Emails without a date sort last.
func (db *DB) ListEmails(limit, offset int) ([]*Email, error) {
	rows, err := db.Query(`
		SELECT `+emailColumns+`
		FROM emails
		ORDER BY date IS NULL, date DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []*Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emails: %w", err)
	}

	return emails, nil
}

// CountEmails returns the total number of emails
func (db *DB) CountEmails() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM emails").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}

// GetAttachmentsByEmailID retrieves the attachments of an email without their payload
func (db *DB) GetAttachmentsByEmailID(emailID int64) ([]*Attachment, error) {
	rows, err := db.Query(`
		SELECT id, email_id, name, content_type, content_id, disposition, size
		FROM attachments WHERE email_id = ?
		ORDER BY id
	`, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*Attachment
	for rows.Next() {
		att := &Attachment{}
		err := rows.Scan(&att.ID, &att.EmailID, &att.Name, &att.ContentType,
			&att.ContentID, &att.Disposition, &att.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}

// GetAttachmentByID retrieves a single attachment including its payload
func (db *DB) GetAttachmentByID(id int64) (*Attachment, error) {
	att := &Attachment{}
	err := db.QueryRow(`
		SELECT id, email_id, name, content_type, content_id, disposition, size, content_base64
		FROM attachments WHERE id = ?
	`, id).Scan(&att.ID, &att.EmailID, &att.Name, &att.ContentType,
		&att.ContentID, &att.Disposition, &att.Size, &att.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return att, nil
}

// GetUniqueSenders retrieves unique sender addresses ordered by frequency
// (most emails sent first)
func (db *DB) GetUniqueSenders(limit int) ([]string, error) {
	rows, err := db.Query(`
		SELECT from_address, COUNT(*) as email_count
		FROM emails
		WHERE from_address != ''
		GROUP BY from_address
		ORDER BY email_count DESC, from_address ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique senders: %w", err)
	}
	defer rows.Close()

	senders := []string{}
	for rows.Next() {
		var sender string
		var count int
		if err := rows.Scan(&sender, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, sender)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating senders: %w", err)
	}

	return senders, nil
}

// Stats holds database statistics
type Stats struct {
	TotalEmails      int
	WithAttachments  int
	TotalAttachments int
	AttachmentBytes  int64
	LastIndexed      NullTime
}

// GetStats returns current database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN attachment_count > 0 THEN 1 ELSE 0 END), 0)
		FROM emails
	`).Scan(&stats.TotalEmails, &stats.WithAttachments)
	if err != nil {
		return nil, fmt.Errorf("failed to count emails: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM attachments").
		Scan(&stats.TotalAttachments, &stats.AttachmentBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}

	var lastIndexed sql.NullString
	if err := db.QueryRow("SELECT MAX(indexed_at) FROM emails").Scan(&lastIndexed); err != nil {
		return nil, fmt.Errorf("failed to get last indexed time: %w", err)
	}
	if lastIndexed.Valid {
		// Unparsable timestamps leave LastIndexed unset
		_ = stats.LastIndexed.Scan(lastIndexed.String)
	}

	return stats, nil
}

// DeleteEmail deletes an email and its attachments from the database.
// The .eml file is NOT deleted from disk.
func (db *DB) DeleteEmail(id int64) error {
	result, err := db.Exec("DELETE FROM emails WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete email: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
