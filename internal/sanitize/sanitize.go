// Package sanitize validates and cleans free-text fields before they are
// accepted into value objects. Every entity factory takes a Sanitizer as an
// explicit capability; nothing in this module reaches for a shared global.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/cardlens/cardlens/internal/errx"
)

// Sanitizer cleans untrusted text and rejects malicious content.
type Sanitizer interface {
	// Clean normalizes multi-line text: Unicode NFC, control characters
	// stripped (newlines and tabs preserved), zero-width runes removed.
	// Returns a security error when an injection marker is present.
	Clean(s string) (string, error)

	// CleanLine cleans a single-line field: Clean plus whitespace collapse
	// and trim.
	CleanLine(s string) (string, error)
}

// injectionMarkers are substrings that cause text to be rejected outright.
// Matching is case-insensitive against the normalized input.
var injectionMarkers = []string{
	"<script",
	"</script",
	"javascript:",
	"vbscript:",
	"onerror=",
	"onload=",
	"onclick=",
	"data:text/html",
	"<iframe",
	"<object",
	"<embed",
}

// Text is the default Sanitizer implementation.
type Text struct{}

// New returns the default text sanitizer.
func New() *Text { return &Text{} }

// Clean implements Sanitizer.
func (t *Text) Clean(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	s = norm.NFC.String(s)
	if marker := findInjectionMarker(s); marker != "" {
		return "", errx.Newf(errx.KindSecurity, "injection marker %q detected", marker)
	}
	s = removeZeroWidth(s)
	s = removeControlChars(s)
	return s, nil
}

// CleanLine implements Sanitizer.
func (t *Text) CleanLine(s string) (string, error) {
	cleaned, err := t.Clean(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(collapseWhitespace(cleaned)), nil
}

// CollapseLine re-cleans whitespace without re-running security checks.
// Used by copy paths where the text is already known safe.
func CollapseLine(s string) string {
	return strings.TrimSpace(collapseWhitespace(s))
}

func findInjectionMarker(s string) string {
	lower := strings.ToLower(s)
	for _, m := range injectionMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func removeZeroWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteRune(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
