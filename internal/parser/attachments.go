package parser

import (
	"encoding/base64"
	"strings"
)

// assembleBody fills Text, HTML and Attachments from the leaf parts.
// The first text/plain and the first text/html part win. A part without a
// Content-Type becomes the text body only while Text is still empty.
func (p *Parser) assembleBody(parts []BodyPart, email *ParsedEmail) {
	var haveText, haveHTML bool
	var inline []Attachment

	for _, part := range parts {
		contentType := part.Header.ContentType()
		switch contentType.MediaType {
		case "text/plain":
			if !haveText {
				email.Text = string(p.decodeBody(part.Header, part.Body))
				haveText = true
			}
		case "text/html":
			if !haveHTML {
				email.HTML = string(p.decodeBody(part.Header, part.Body))
				haveHTML = true
			}
		case "":
			if email.Text == "" {
				email.Text = string(p.decodeBody(part.Header, part.Body))
				haveText = true
			}
		default:
			att := p.newAttachment(part, contentType)
			if att.Disposition == DispositionInline {
				inline = append(inline, att)
			} else {
				email.Attachments = append(email.Attachments, att)
			}
		}
	}

	email.HTML = embedInline(email.HTML, inline)
}

func (p *Parser) newAttachment(part BodyPart, contentType ContentTypeInfo) Attachment {
	name := contentType.Params.Get("name")
	disposition, dispParams := part.Header.ValueAndParams("Content-Disposition")
	if name == "" {
		name = dispParams.Get("filename")
	}

	att := Attachment{
		ContentType:   contentType.MediaType,
		Name:          decodeMIMEWord(p.words, name),
		ContentID:     strings.Trim(part.Header.Get("Content-ID"), "<>"),
		Base64Content: base64.StdEncoding.EncodeToString(p.decodeBody(part.Header, part.Body)),
		Disposition:   DispositionRegular,
	}
	if strings.EqualFold(disposition, "inline") {
		att.Disposition = DispositionInline
	}
	return att
}

// embedInline replaces cid: references in html with data: URIs of the
// matching inline attachments.
func embedInline(html string, inline []Attachment) string {
	if html == "" || len(inline) == 0 {
		return html
	}
	for _, att := range inline {
		if att.ContentID == "" || att.ContentType == "" {
			continue
		}
		html = strings.ReplaceAll(html, "cid:"+att.ContentID,
			"data:"+att.ContentType+";base64,"+att.Base64Content)
	}
	return html
}
