package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict is a cached bluemonday policy that removes all HTML tags and attributes.
// It's safe for concurrent use as bluemonday.Policy is read-only after build.
// WARNING: Never call mutating helpers (e.g. AddAttr, AllowElements) on this policy
// after initialization as it would create a data race.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true) // Prevents word concatenation
	return p
}()

// Sanitize strips all HTML from arbitrary user input.
//
// Examples:
//   - "<script>alert('xss')</script>Hello" -> "Hello"
//   - "<p>Hello world</p>" -> " Hello world "
func Sanitize(s string) string {
	return strict.Sanitize(s)
}

// Line turns free-form input into a single clean line of plain text:
// HTML stripped, entities decoded, every whitespace run (newlines included)
// collapsed to one space, and the ends trimmed.
//
// Display names go through Line before they are validated or stored.
//
// Examples:
//   - "  Jane   Doe " -> "Jane Doe"
//   - "<b>Jane</b>\nDoe" -> "Jane Doe"
//   - "O&#39;Brien" -> "O'Brien"
func Line(s string) string {
	cleaned := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}
