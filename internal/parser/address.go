package parser

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// parseAddress splits `Display Name <address>` into its parts. The display
// name is unquoted and MIME-word decoded. Without an angle-bracket pair the raw
// value is returned as the address.
func (p *Parser) parseAddress(value string) AddressRef {
	gt := strings.LastIndexByte(value, '>')
	if gt < 0 {
		return AddressRef{Address: value}
	}
	lt := strings.LastIndexByte(value[:gt], '<')
	if lt < 0 {
		return AddressRef{Address: value}
	}

	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(value[:lt]), `"'`))
	return AddressRef{
		Address:     strings.TrimSpace(value[lt+1 : gt]),
		DisplayName: decodeMIMEWord(p.words, name),
	}
}

// parseAddressList parses a comma-separated address header. Entries that the
// RFC 5322 parser rejects fall back to the single-address scan.
func (p *Parser) parseAddressList(header Header, name string) []AddressRef {
	value := header.Get(name)
	if value == "" {
		return nil
	}

	var h mail.Header
	h.Set(name, value)
	list, err := h.AddressList(name)
	if err != nil {
		return []AddressRef{p.parseAddress(value)}
	}

	refs := make([]AddressRef, 0, len(list))
	for _, addr := range list {
		refs = append(refs, AddressRef{Address: addr.Address, DisplayName: addr.Name})
	}
	return refs
}
