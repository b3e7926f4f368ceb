// Package email derives presentation values from an email address. The
// backend identifies subjects by email only; the UI still wants a friendly
// name to greet them with.
package email

import (
	"strings"
	"unicode"
)

// DisplayName builds "First Last" from the local part of an address.
// "jane.doe@cover.desk" becomes "Jane Doe"; a bare local part without
// separators yields just the capitalized word.
func DisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
