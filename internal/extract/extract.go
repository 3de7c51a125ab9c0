// Package extract pulls contact fields out of unstructured OCR text
// with regex heuristics. Extraction is deliberately permissive; the
// card factory applies the strict validation.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cardlens/cardlens/internal/ocr"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// emailStrict filters pattern matches: no consecutive dots, no
	// leading/trailing dot in the local part or domain.
	emailStrict = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._%+-]*[A-Za-z0-9_%+-])?@[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?\.[A-Za-z]{2,}$`)

	// phonePattern matches runs of digits and common separators at
	// least 7 characters long. Deliberately loose; the digit-count
	// filter below does the real work.
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-\s().]{5,}[0-9]`)

	websitePattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/[^\s]*)?`)
)

// Emails returns the de-duplicated, lexicographically sorted email
// addresses found in text.
func Emails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !emailStrict.MatchString(m) || strings.Contains(m, "..") {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Phones returns the de-duplicated, sorted phone number candidates
// found in text. A candidate needs a raw length of at least 7 and at
// least 7 digits. This is a heuristic extractor: long unrelated digit
// sequences can slip through.
func Phones(text string) []string {
	matches := phonePattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if len(m) < 7 || digitCount(m) < 7 {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Websites returns the de-duplicated, sorted website candidates found
// in text. Emails are excluded so "user@example.com" does not yield
// "example.com".
func Websites(text string) []string {
	stripped := emailPattern.ReplaceAllString(text, " ")
	matches := websitePattern.FindAllString(stripped, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;)")
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Fields bundles everything the extractor found in one text.
type Fields struct {
	Emails   []string
	Phones   []string
	Websites []string
}

// FromText extracts all supported fields from a single text.
func FromText(text string) Fields {
	return Fields{
		Emails:   Emails(text),
		Phones:   Phones(text),
		Websites: Websites(text),
	}
}

// FromResult extracts fields from the union of a result's detected
// blocks and its raw text, so block-local context survives even when
// the raw text joined lines badly.
func FromResult(r ocr.Result) Fields {
	var b strings.Builder
	b.WriteString(r.RawText)
	for _, dt := range r.DetectedTexts {
		b.WriteString("\n")
		b.WriteString(dt.Text)
	}
	return FromText(b.String())
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
