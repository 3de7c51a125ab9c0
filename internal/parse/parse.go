// Package parse maps unstructured OCR text to structured contact
// fields. Two parsers exist: an OpenAI-backed one and an offline
// heuristic fallback; both satisfy Parser.
package parse

import (
	"context"
	"time"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/sanitize"
)

// Hints carries optional context for a parse call.
type Hints struct {
	// Languages the card text is expected to be in.
	Languages []string

	// Country biases address and phone interpretation.
	Country string
}

// ParsedCard is the structured output of one parse call. Fields are
// unvalidated free text; ToBusinessCard applies the real validation.
type ParsedCard struct {
	Name       string    `json:"name"`
	Company    string    `json:"company"`
	JobTitle   string    `json:"job_title"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Mobile     string    `json:"mobile"`
	Address    string    `json:"address"`
	Website    string    `json:"website"`
	Notes      string    `json:"notes"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	ParsedAt   time.Time `json:"parsed_at"`
}

// IsEmpty reports whether the parser found nothing usable.
func (p ParsedCard) IsEmpty() bool {
	return p.Name == "" && p.Company == "" && p.Email == "" &&
		p.Phone == "" && p.Mobile == "" && p.Website == ""
}

// ToBusinessCard converts the parsed fields into a validated card.
// The id may be empty to let the factory assign one.
func (p ParsedCard) ToBusinessCard(id string, s sanitize.Sanitizer) (card.BusinessCard, error) {
	return card.New(card.Params{
		ID:       id,
		Name:     p.Name,
		Company:  p.Company,
		JobTitle: p.JobTitle,
		Email:    p.Email,
		Phone:    p.Phone,
		Mobile:   p.Mobile,
		Address:  p.Address,
		Website:  p.Website,
		Notes:    p.Notes,
	}, s)
}

// Parser extracts structured contact fields from card text.
type Parser interface {
	ParseCardText(ctx context.Context, ocrText string, hints Hints) (ParsedCard, error)
}
