package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crlf joins lines the way they appear on the wire
func crlf(lines ...string) string {
	return strings.Join(lines, "\r\n")
}

func TestParseHeaders_Folding(t *testing.T) {
	header := ParseHeaders(crlf(
		"Subject: A long",
		"   subject line",
		"\tthat keeps going",
		"From: sender@example.com",
	))

	require.Len(t, header, 2)
	assert.Equal(t, "Subject", header[0].Name)
	assert.Equal(t, "A long subject line that keeps going", header[0].Value)
	assert.Equal(t, "sender@example.com", header.Get("from"))
}

func TestParseHeaders_KeepsOrderAndDuplicates(t *testing.T) {
	header := ParseHeaders(crlf(
		"Received: from a",
		"Received: from b",
		"X-Empty:",
		"No-Colon-Line",
	))

	require.Len(t, header, 4)
	assert.Equal(t, "from a", header.Get("RECEIVED"), "first match wins")
	assert.Equal(t, "from b", header[1].Value)
	assert.True(t, header.Has("x-empty"))
	assert.Equal(t, "", header.Get("X-Empty"))
	assert.Equal(t, "No-Colon-Line", header[3].Name)
	assert.Equal(t, "", header[3].Value)
}

func TestParseHeaders_LeadingContinuation(t *testing.T) {
	header := ParseHeaders(crlf(
		" orphan: value",
		"To: x@example.com",
	))

	require.Len(t, header, 2)
	assert.Equal(t, "orphan", header[0].Name)
	assert.Equal(t, "value", header[0].Value)
}

func TestParseHeaders_LFOnly(t *testing.T) {
	header := ParseHeaders("A: 1\nB: 2\n continued\n")

	require.Len(t, header, 2)
	assert.Equal(t, "2 continued", header.Get("b"))
}

func TestHeader_GetMissing(t *testing.T) {
	var header Header
	assert.Equal(t, "", header.Get("Subject"))

	value, params := header.ValueAndParams("Content-Type")
	assert.Equal(t, "", value)
	assert.Empty(t, params)
}

func TestHeader_ValueAndParams(t *testing.T) {
	header := ParseHeaders(crlf(
		`Content-Type: Multipart/Mixed; BOUNDARY="abc 123"; charset='UTF-8';`,
		"  name=`file.txt`; malformed; empty=",
	))

	value, params := header.ValueAndParams("content-type")
	assert.Equal(t, "Multipart/Mixed", value)
	assert.Equal(t, Params{
		{Key: "boundary", Value: "abc 123"},
		{Key: "charset", Value: "UTF-8"},
		{Key: "name", Value: "file.txt"},
		{Key: "empty", Value: ""},
	}, params)

	ct := header.ContentType()
	assert.Equal(t, "multipart/mixed", ct.MediaType)
	assert.Equal(t, "abc 123", ct.Boundary())
	assert.Equal(t, "utf-8", ct.Charset())
	assert.True(t, ct.IsMultipart())
}

func TestParams_RepeatedKey(t *testing.T) {
	_, params := splitValueAndParams(`text/plain; charset=us-ascii; format=flowed; Charset=utf-8`)

	require.Len(t, params, 2)
	assert.Equal(t, "charset", params[0].Key)
	assert.Equal(t, "utf-8", params.Get("CHARSET"))
}

func TestSplitHeaderBlock(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantHead string
		wantBody string
	}{
		{
			name:     "CRLF",
			message:  "A: 1\r\nB: 2\r\n\r\nbody\r\n\r\nmore",
			wantHead: "A: 1\r\nB: 2",
			wantBody: "body\r\n\r\nmore",
		},
		{
			name:     "LF",
			message:  "A: 1\n\nbody",
			wantHead: "A: 1",
			wantBody: "body",
		},
		{
			name:     "no body",
			message:  "A: 1\r\nB: 2",
			wantHead: "A: 1\r\nB: 2",
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, body := splitHeaderBlock(tt.message)
			assert.Equal(t, tt.wantHead, head)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
