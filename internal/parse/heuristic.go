package parse

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/cardlens/cardlens/internal/extract"
)

// titleKeywords mark a line as a job title rather than a name.
// Lowercase; CJK titles compare verbatim.
var titleKeywords = []string{
	"ceo", "cto", "cfo", "coo", "founder", "president", "chief",
	"director", "manager", "engineer", "developer", "designer",
	"consultant", "analyst", "specialist", "lead", "head of",
	"vp ", "vice president", "partner", "sales", "marketing",
	"經理", "總監", "工程師", "執行長", "董事",
}

// companyKeywords mark a line as a company name.
var companyKeywords = []string{
	"inc", "inc.", "llc", "ltd", "ltd.", "gmbh", "corp", "corp.",
	"co.", "company", "group", "holdings", "technologies", "labs",
	"solutions", "systems", "studio", "股份有限公司", "有限公司",
}

// Heuristic is the offline fallback parser: line-oriented scoring with
// regex extraction for the machine-readable fields. No network, no
// model, deliberately modest.
type Heuristic struct{}

// NewHeuristic returns the offline parser.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// ParseCardText implements Parser.
func (h *Heuristic) ParseCardText(_ context.Context, ocrText string, _ Hints) (ParsedCard, error) {
	p := ParsedCard{
		Source:   "heuristic",
		ParsedAt: time.Now(),
	}

	fields := extract.FromText(ocrText)
	if len(fields.Emails) > 0 {
		p.Email = fields.Emails[0]
	}
	if len(fields.Phones) > 0 {
		p.Phone = fields.Phones[0]
		if len(fields.Phones) > 1 {
			p.Mobile = fields.Phones[1]
		}
	}
	if len(fields.Websites) > 0 {
		p.Website = fields.Websites[0]
	}

	lines := candidateLines(ocrText)
	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case p.JobTitle == "" && containsAny(lower, titleKeywords):
			p.JobTitle = line
		case p.Company == "" && containsAny(lower, companyKeywords):
			p.Company = line
		case p.Name == "" && looksLikeName(line):
			p.Name = line
		}
	}
	// A company line that also reads like a name should not leave the
	// name empty; fall back to the first plausible line.
	if p.Name == "" {
		for _, line := range lines {
			if looksLikeName(line) {
				p.Name = line
				break
			}
		}
	}

	p.Confidence = h.confidence(p)
	return p, nil
}

func (h *Heuristic) confidence(p ParsedCard) float64 {
	score := 0.0
	for _, present := range []bool{
		p.Name != "", p.Company != "", p.JobTitle != "",
		p.Email != "", p.Phone != "",
	} {
		if present {
			score += 0.18
		}
	}
	if score > 0.9 {
		score = 0.9 // heuristic output never claims high certainty
	}
	return score
}

// candidateLines returns non-empty lines that are not dominated by
// machine-readable content (emails, URLs, numbers).
func candidateLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(line, "@") ||
			strings.Contains(lower, "www.") ||
			strings.Contains(lower, "http") ||
			digitRatio(line) > 0.4 {
			continue
		}
		out = append(out, line)
	}
	return out
}

// looksLikeName accepts short lines of letters: up to four words, no
// digits, and either latin words starting uppercase or CJK runs.
func looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 4 || len([]rune(line)) > 40 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasLetter {
		return false
	}
	for _, w := range words {
		first := []rune(w)[0]
		if unicode.IsLetter(first) && unicode.In(first, unicode.Latin) && !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	total, digits := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}
