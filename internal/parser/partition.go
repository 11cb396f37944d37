package parser

import (
	"errors"
	"strings"
)

// DefaultMaxDepth bounds multipart nesting unless overridden with WithMaxDepth
const DefaultMaxDepth = 32

// ErrTooDeeplyNested is returned when multipart nesting exceeds the parser's maximum depth
var ErrTooDeeplyNested = errors.New("message is too deeply nested")

// Parts flattens the multipart tree of a raw message into its leaf parts in document order
func (p *Parser) Parts(message string) ([]BodyPart, error) {
	return p.parts(message, "", 0)
}

func (p *Parser) parts(message, parentMediaType string, depth int) ([]BodyPart, error) {
	if depth > p.maxDepth {
		return nil, ErrTooDeeplyNested
	}

	var header Header
	var body string
	if parentMediaType == "" || isMultipart(parentMediaType) {
		block, rest := splitHeaderBlock(message)
		header = ParseHeaders(block)
		body = strings.TrimSpace(rest)
		if boundary := header.ContentType().Boundary(); boundary != "" {
			open := indexDelimiterLine(body, "--"+boundary)
			if open < 0 {
				return nil, nil
			}
			body = body[open:]
		}
	} else {
		body = strings.TrimSpace(message)
	}

	if body == "" {
		return nil, nil
	}

	contentType := header.ContentType()
	boundary := contentType.Boundary()
	if boundary == "" {
		return []BodyPart{{Header: header, Body: body}}, nil
	}

	chunks, ok := splitMultipart(body, boundary)
	if !ok {
		return nil, nil
	}

	var leaves []BodyPart
	for _, chunk := range chunks {
		children, err := p.parts(chunk, contentType.MediaType, depth+1)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, children...)
	}
	return leaves, nil
}

// splitMultipart returns the trimmed chunks between the delimiter lines of body.
// Text before the first delimiter and after the closing delimiter is dropped.
// ok is false when the closing delimiter cannot be found.
func splitMultipart(body, boundary string) (chunks []string, ok bool) {
	delimiter := "--" + boundary
	closing := delimiter + "--"

	start := -1
	for pos := 0; pos < len(body); {
		next := len(body)
		line := body[pos:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = pos + i + 1
		}

		switch strings.TrimRight(line, " \t\r") {
		case closing:
			if start >= 0 {
				chunks = append(chunks, trimPart(body[start:pos]))
			}
			return chunks, true
		case delimiter:
			if start >= 0 {
				chunks = append(chunks, trimPart(body[start:pos]))
			}
			start = next
		}
		pos = next
	}
	return nil, false
}

// indexDelimiterLine returns the offset of the first line that is exactly the
// delimiter (allowing trailing whitespace or the closing "--"), or -1.
func indexDelimiterLine(body, delimiter string) int {
	for from := 0; from < len(body); {
		i := strings.Index(body[from:], delimiter)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || body[i-1] == '\n' {
			rest := strings.TrimPrefix(body[i+len(delimiter):], "--")
			if rest == "" || strings.ContainsAny(rest[:1], " \t\r\n") {
				return i
			}
		}
		from = i + len(delimiter)
	}
	return -1
}

// trimPart trims a chunk. A chunk that opens with a blank line has no headers
// of its own, which is kept explicit so the header split does not eat its body.
func trimPart(chunk string) string {
	trimmed := strings.TrimSpace(chunk)
	if trimmed != "" && (strings.HasPrefix(chunk, "\r\n") || strings.HasPrefix(chunk, "\n")) {
		return "\r\n\r\n" + trimmed
	}
	return trimmed
}
