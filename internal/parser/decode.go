package parser

import (
	"encoding/base64"
	"io"
	"mime/quotedprintable"
	"strings"
)

// decodeBody applies the part's Content-Transfer-Encoding and then converts
// the result to UTF-8 when the part declares another charset. Unknown
// encodings pass through and unknown charsets are left unconverted.
func (p *Parser) decodeBody(header Header, body string) []byte {
	var data []byte
	switch strings.ToLower(header.Get("Content-Transfer-Encoding")) {
	case "base64":
		data = decodeBase64(body)
	case "quoted-printable":
		data = decodeQuotedPrintable(body)
	default:
		data = []byte(body)
	}

	cs := header.ContentType().Charset()
	if cs == "" || cs == "utf-8" {
		return data
	}
	converted, err := p.charsets.ToUTF8(cs, data)
	if err != nil {
		return data
	}
	return converted
}

// decodeBase64 drops line breaks and other whitespace, then decodes. Missing
// padding is tolerated; corrupt input yields the bytes decoded before the error.
func decodeBase64(body string) []byte {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, body)

	enc := base64.StdEncoding
	if !strings.HasSuffix(cleaned, "=") && len(cleaned)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	dst := make([]byte, enc.DecodedLen(len(cleaned)))
	n, _ := enc.Decode(dst, []byte(cleaned))
	return dst[:n]
}

func decodeQuotedPrintable(body string) []byte {
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(body)))
	if err != nil {
		return []byte(body)
	}
	return decoded
}
