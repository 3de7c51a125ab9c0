// Package card defines the BusinessCard value object and its
// construction-time validation.
package card

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/sanitize"
)

var (
	emailFormat = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

	// phoneFormat accepts permissive international numbers: optional
	// leading +, then digits with hyphen/space/paren/dot separators.
	phoneFormat = regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{5,}[0-9]$`)

	websiteFormat = regexp.MustCompile(`^(?:https?://)?[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?\.[A-Za-z]{2,}(?:/[^\s]*)?$`)
)

// BusinessCard is an immutable contact record extracted from a scanned
// card. Build instances through New; copies through CopyWith.
type BusinessCard struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	JobTitle   string     `json:"job_title,omitempty" db:"job_title"`
	Company    string     `json:"company,omitempty" db:"company"`
	Email      string     `json:"email,omitempty" db:"email"`
	Phone      string     `json:"phone,omitempty" db:"phone"`
	Mobile     string     `json:"mobile,omitempty" db:"mobile"`
	Address    string     `json:"address,omitempty" db:"address"`
	Website    string     `json:"website,omitempty" db:"website"`
	Notes      string     `json:"notes,omitempty" db:"notes"`
	ImagePath  string     `json:"image_path,omitempty" db:"image_path"`
	Tags       []string   `json:"tags,omitempty" db:"-"`
	IsFavorite bool       `json:"is_favorite" db:"is_favorite"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Params carries the inputs to New. Zero CreatedAt means "now"; empty
// ID means "assign a fresh uuid".
type Params struct {
	ID         string
	Name       string
	JobTitle   string
	Company    string
	Email      string
	Phone      string
	Mobile     string
	Address    string
	Website    string
	Notes      string
	ImagePath  string
	Tags       []string
	IsFavorite bool
	CreatedAt  time.Time
}

// New validates params and builds a BusinessCard. Free-text fields run
// through the sanitizer; email and phone formats reject construction;
// an invalid website is dropped silently instead of rejecting.
func New(p Params, s sanitize.Sanitizer) (BusinessCard, error) {
	name, err := s.CleanLine(p.Name)
	if err != nil {
		return BusinessCard{}, wrapField(err, "name")
	}
	if name == "" {
		return BusinessCard{}, errx.Validation("name", "must not be empty")
	}

	c := BusinessCard{
		ID:         strings.TrimSpace(p.ID),
		Name:       name,
		IsFavorite: p.IsFavorite,
		CreatedAt:  p.CreatedAt,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	type lineField struct {
		name string
		in   string
		out  *string
	}
	for _, f := range []lineField{
		{"job_title", p.JobTitle, &c.JobTitle},
		{"company", p.Company, &c.Company},
		{"address", p.Address, &c.Address},
		{"image_path", p.ImagePath, &c.ImagePath},
	} {
		cleaned, err := s.CleanLine(f.in)
		if err != nil {
			return BusinessCard{}, wrapField(err, f.name)
		}
		*f.out = cleaned
	}

	notes, err := s.Clean(p.Notes)
	if err != nil {
		return BusinessCard{}, wrapField(err, "notes")
	}
	c.Notes = notes

	email, err := s.CleanLine(p.Email)
	if err != nil {
		return BusinessCard{}, wrapField(err, "email")
	}
	if email != "" && !emailFormat.MatchString(email) {
		return BusinessCard{}, errx.Validation("email", fmt.Sprintf("%q is not a valid email address", email))
	}
	c.Email = email

	for _, f := range []lineField{
		{"phone", p.Phone, &c.Phone},
		{"mobile", p.Mobile, &c.Mobile},
	} {
		cleaned, err := s.CleanLine(f.in)
		if err != nil {
			return BusinessCard{}, wrapField(err, f.name)
		}
		if cleaned != "" && !phoneFormat.MatchString(cleaned) {
			return BusinessCard{}, errx.Validation(f.name, fmt.Sprintf("%q is not a valid phone number", cleaned))
		}
		*f.out = cleaned
	}

	website, err := s.CleanLine(p.Website)
	if err != nil {
		return BusinessCard{}, wrapField(err, "website")
	}
	c.Website = CleanWebsite(website)

	tags := make([]string, 0, len(p.Tags))
	seen := make(map[string]struct{}, len(p.Tags))
	for _, tag := range p.Tags {
		cleaned, err := s.CleanLine(tag)
		if err != nil {
			return BusinessCard{}, wrapField(err, "tags")
		}
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		tags = append(tags, cleaned)
	}
	if len(tags) > 0 {
		c.Tags = tags
	}

	return c, nil
}

// CleanWebsite normalizes a website candidate and returns "" when it
// does not look like a URL. Invalid websites are dropped, not
// rejected; OCR mangles URLs too often to fail the whole card on one.
func CleanWebsite(site string) string {
	site = strings.TrimSpace(site)
	site = strings.TrimSuffix(site, "/")
	if site == "" {
		return ""
	}
	if !websiteFormat.MatchString(site) {
		return ""
	}
	return site
}

// IsComplete reports whether the card carries name, job title, company,
// and at least one contact channel.
func (c BusinessCard) IsComplete() bool {
	return c.Name != "" && c.JobTitle != "" && c.Company != "" && c.HasContactInfo()
}

// HasContactInfo reports whether any contact channel is present.
func (c BusinessCard) HasContactInfo() bool {
	return c.Email != "" || c.Phone != "" || c.Mobile != "" || c.Address != "" || c.Website != ""
}

// CopyOption overrides a field when copying a card.
type CopyOption func(*BusinessCard)

func WithName(name string) CopyOption {
	return func(c *BusinessCard) { c.Name = sanitize.CollapseLine(name) }
}

func WithJobTitle(title string) CopyOption {
	return func(c *BusinessCard) { c.JobTitle = sanitize.CollapseLine(title) }
}

func WithCompany(company string) CopyOption {
	return func(c *BusinessCard) { c.Company = sanitize.CollapseLine(company) }
}

func WithEmail(email string) CopyOption {
	return func(c *BusinessCard) { c.Email = sanitize.CollapseLine(email) }
}

func WithPhone(phone string) CopyOption {
	return func(c *BusinessCard) { c.Phone = sanitize.CollapseLine(phone) }
}

func WithMobile(mobile string) CopyOption {
	return func(c *BusinessCard) { c.Mobile = sanitize.CollapseLine(mobile) }
}

func WithAddress(address string) CopyOption {
	return func(c *BusinessCard) { c.Address = sanitize.CollapseLine(address) }
}

func WithWebsite(site string) CopyOption {
	return func(c *BusinessCard) { c.Website = CleanWebsite(site) }
}

func WithNotes(notes string) CopyOption {
	return func(c *BusinessCard) { c.Notes = notes }
}

func WithImagePath(path string) CopyOption {
	return func(c *BusinessCard) { c.ImagePath = strings.TrimSpace(path) }
}

func WithTags(tags []string) CopyOption {
	return func(c *BusinessCard) { c.Tags = append([]string(nil), tags...) }
}

func WithFavorite(fav bool) CopyOption {
	return func(c *BusinessCard) { c.IsFavorite = fav }
}

// CopyWith returns a new card with the overrides applied and UpdatedAt
// set to now. Untouched fields keep their already validated values; the
// copy path only re-cleans whitespace, it does not re-run the full
// factory validation.
func (c BusinessCard) CopyWith(opts ...CopyOption) BusinessCard {
	out := c
	if len(c.Tags) > 0 {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if len(opts) == 0 {
		return out
	}
	for _, opt := range opts {
		opt(&out)
	}
	now := time.Now()
	out.UpdatedAt = &now
	return out
}

// Equal compares two cards field by field. UpdatedAt pointers compare
// by pointed-to instant.
func (c BusinessCard) Equal(other BusinessCard) bool {
	if c.ID != other.ID ||
		c.Name != other.Name ||
		c.JobTitle != other.JobTitle ||
		c.Company != other.Company ||
		c.Email != other.Email ||
		c.Phone != other.Phone ||
		c.Mobile != other.Mobile ||
		c.Address != other.Address ||
		c.Website != other.Website ||
		c.Notes != other.Notes ||
		c.ImagePath != other.ImagePath ||
		c.IsFavorite != other.IsFavorite ||
		!c.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	if (c.UpdatedAt == nil) != (other.UpdatedAt == nil) {
		return false
	}
	if c.UpdatedAt != nil && !c.UpdatedAt.Equal(*other.UpdatedAt) {
		return false
	}
	if len(c.Tags) != len(other.Tags) {
		return false
	}
	for i := range c.Tags {
		if c.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// String renders a diagnostic summary without free-text contents.
func (c BusinessCard) String() string {
	return fmt.Sprintf("card.BusinessCard{id=%s complete=%t contact=%t tags=%d}",
		c.ID, c.IsComplete(), c.HasContactInfo(), len(c.Tags))
}

func wrapField(err error, field string) error {
	var e *errx.Error
	if errors.As(err, &e) && e.Field == "" {
		return e.WithField(field)
	}
	return err
}
