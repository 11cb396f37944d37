package db

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EmailSearchResult represents a search result with snippet
type EmailSearchResult struct {
	Email
	Snippet string
}

// SearchEmails performs a full-text search on emails using FTS5
func (db *DB) SearchEmails(query string, limit int) ([]*EmailSearchResult, error) {
	return db.SearchEmailsWithOffset(query, limit, 0)
}

// SearchEmailsWithOffset performs a full-text search with pagination.
// Every term must match as a prefix: "john doe" finds "Johnny Doerr".
// An empty query lists the most recent emails.
func (db *DB) SearchEmailsWithOffset(query string, limit, offset int) ([]*EmailSearchResult, error) {
	match := buildMatchQuery(query)
	if match == "" {
		emails, err := db.ListEmails(limit, offset)
		if err != nil {
			return nil, err
		}

		results := make([]*EmailSearchResult, len(emails))
		for i, email := range emails {
			results[i] = &EmailSearchResult{
				Email:   *email,
				Snippet: truncateText(email.BodyText, 200),
			}
		}
		return results, nil
	}

	rows, err := db.Query(`
		SELECT `+prefixColumns("e", emailColumns)+`,
			snippet(emails_fts, -1, '<mark>', '</mark>', '...', 32) as snippet
		FROM emails e
		JOIN emails_fts ON e.id = emails_fts.rowid
		WHERE emails_fts MATCH ?
		ORDER BY rank
		LIMIT ? OFFSET ?
	`, match, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	defer rows.Close()

	var results []*EmailSearchResult
	for rows.Next() {
		var snippet string
		email, err := scanEmail(rows, &snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &EmailSearchResult{Email: *email, Snippet: snippet})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// buildMatchQuery quotes every term so FTS5 operators in user input are
// matched literally, and marks it as a prefix: `john "doe` -> `"john"* """doe"*`
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}

// prefixColumns qualifies a comma-separated column list with a table alias
func prefixColumns(alias, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// truncateText truncates text to maxLen bytes without splitting a UTF-8 sequence
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
