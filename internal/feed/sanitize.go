package feed

import (
	"regexp"
	"strings"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	lowercaseDoctypeRe = regexp.MustCompile(`(?i)<\s*doctype\s+`)
	doctypeRe          = regexp.MustCompile(`(?i)<!\s*DOCTYPE[^>]*>`)
	xmlDeclRe          = regexp.MustCompile(`(?i)<\?\s*xml[^>]*\?>`)
)

// Sanitize repairs the prologue of a feed document so that a strict XML
// parser does not reject an otherwise-recoverable body. Providers routinely
// emit lower-case doctype tokens, invalid DOCTYPE declarations and mangled
// processing instructions. Sanitize never fails; the worst case is returning
// its input unchanged so the real parse error surfaces downstream.
func Sanitize(content string) string {
	if content == "" {
		return content
	}

	// Repair lower-case doctype tokens, then drop DOCTYPE declarations
	// entirely. Feeds have no legitimate use for them.
	content = lowercaseDoctypeRe.ReplaceAllString(content, "<!DOCTYPE ")
	content = doctypeRe.ReplaceAllString(content, "")

	content = xmlDeclRe.ReplaceAllString(content, xmlDeclaration)

	if !strings.HasPrefix(strings.ToLower(strings.TrimLeft(content, " \t\r\n")), "<?xml") {
		content = xmlDeclaration + "\n" + strings.TrimLeft(content, " \t\r\n")
	}

	return content
}
