package parser

import (
	"bytes"
	"io"
	"mime"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
	charset.RegisterEncoding("latin1", charmap.ISO8859_1)
}

// CharsetConverter converts text in a named charset to UTF-8.
// An error means the charset is not recognised.
type CharsetConverter interface {
	ToUTF8(charsetName string, data []byte) ([]byte, error)
}

// WordDecoder decodes RFC 2047 encoded-words in a header value
type WordDecoder interface {
	DecodeHeader(header string) (string, error)
}

// CharsetConverterFunc adapts a function to CharsetConverter
type CharsetConverterFunc func(charsetName string, data []byte) ([]byte, error)

// ToUTF8 calls f
func (f CharsetConverterFunc) ToUTF8(charsetName string, data []byte) ([]byte, error) {
	return f(charsetName, data)
}

// messageCharsets converts through the go-message charset table, which falls
// back to the IANA and WHATWG indexes from x/text.
type messageCharsets struct{}

func (messageCharsets) ToUTF8(charsetName string, data []byte) ([]byte, error) {
	r, err := charset.Reader(charsetName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// DefaultCharsetConverter is the converter used by New
var DefaultCharsetConverter CharsetConverter = messageCharsets{}

// NewWordDecoder returns a mime.WordDecoder that understands every charset in the go-message table
func NewWordDecoder() *mime.WordDecoder {
	return &mime.WordDecoder{CharsetReader: charset.Reader}
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047).
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(dec WordDecoder, s string) string {
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		// If decoding fails, return original string
		return s
	}
	return decoded
}
