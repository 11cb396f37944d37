package parser

import (
	"strings"
)

// HeaderField is one unfolded header line
type HeaderField struct {
	Name  string
	Value string
}

// Header keeps header fields in their original order. Duplicates are allowed
// and lookups return the first match.
type Header []HeaderField

// Param is one key=value pair of a structured header value
type Param struct {
	Key   string
	Value string
}

// Params is the ordered parameter list of a structured header value.
// Keys are lower-cased; a repeated key keeps its first position and takes the last value.
type Params []Param

// ContentTypeInfo is the parsed Content-Type header
type ContentTypeInfo struct {
	MediaType string
	Params    Params
}

// Boundary returns the multipart boundary parameter, if any
func (c ContentTypeInfo) Boundary() string {
	return c.Params.Get("boundary")
}

// Charset returns the lower-cased charset parameter, if any
func (c ContentTypeInfo) Charset() string {
	return strings.ToLower(c.Params.Get("charset"))
}

// IsMultipart reports whether the media type is any multipart/* kind
func (c ContentTypeInfo) IsMultipart() bool {
	return isMultipart(c.MediaType)
}

// ParseHeaders unfolds a raw header block into ordered fields.
// A line that does not start with a letter or digit continues the previous
// header and is joined to it with a single space.
func ParseHeaders(block string) Header {
	var logical []string
	for _, line := range splitLines(strings.TrimSpace(block)) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if startsAlphanumeric(line) || len(logical) == 0 {
			logical = append(logical, trimmed)
			continue
		}
		logical[len(logical)-1] += " " + trimmed
	}

	header := make(Header, 0, len(logical))
	for _, line := range logical {
		name, value, _ := strings.Cut(line, ":")
		header = append(header, HeaderField{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return header
}

// Get returns the value of the first header with the given name (case-insensitive),
// or an empty string.
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Has reports whether a header with the given name is present
func (h Header) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// ValueAndParams splits a structured header value such as
// `text/plain; charset="utf-8"` into its primary value and parameters.
// Segments without '=' are skipped.
func (h Header) ValueAndParams(name string) (string, Params) {
	if !h.Has(name) {
		return "", nil
	}
	return splitValueAndParams(h.Get(name))
}

// ContentType returns the Content-Type media type (lower-cased) and its parameters
func (h Header) ContentType() ContentTypeInfo {
	mediaType, params := h.ValueAndParams("Content-Type")
	return ContentTypeInfo{
		MediaType: strings.ToLower(mediaType),
		Params:    params,
	}
}

func splitValueAndParams(raw string) (string, Params) {
	segments := strings.Split(strings.TrimSpace(raw), ";")
	value := strings.TrimSpace(segments[0])

	var params Params
	for _, segment := range segments[1:] {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, val, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(strings.Trim(strings.TrimSpace(val), "\"'`"))
		params = params.set(key, val)
	}
	return value, params
}

// Get returns the value for key (case-insensitive), or an empty string
func (p Params) Get(key string) string {
	key = strings.ToLower(key)
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

func (p Params) set(key, value string) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

// splitHeaderBlock returns the text before the first blank line and the text after it.
// Without a blank line the whole input is the header block.
func splitHeaderBlock(message string) (string, string) {
	crlf := strings.Index(message, "\r\n\r\n")
	lf := strings.Index(message, "\n\n")
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return message[:crlf], message[crlf+4:]
	case lf >= 0:
		return message[:lf], message[lf+2:]
	}
	return message, ""
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func startsAlphanumeric(line string) bool {
	if line == "" {
		return false
	}
	c := line[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isMultipart(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "multipart/")
}
