package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/sanitize"
)

func TestNewValidation(t *testing.T) {
	s := sanitize.New()

	tests := []struct {
		name   string
		params Params
		kind   errx.Kind
	}{
		{"empty name", Params{}, errx.KindValidation},
		{"whitespace name", Params{Name: "   "}, errx.KindValidation},
		{"script in name", Params{Name: "<script>alert(1)</script>"}, errx.KindSecurity},
		{"script in notes", Params{Name: "Jane", Notes: "see <script src=x>"}, errx.KindSecurity},
		{"bad email", Params{Name: "Jane", Email: "not-an-email"}, errx.KindValidation},
		{"bad phone", Params{Name: "Jane", Phone: "12-34"}, errx.KindValidation},
		{"phone with letters", Params{Name: "Jane", Mobile: "CALL-ME-NOW"}, errx.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params, s)
			require.Error(t, err)
			assert.True(t, errx.IsKind(err, tt.kind), "expected kind %s, got %v", tt.kind, err)
		})
	}
}

func TestNewDefaultsAndCleaning(t *testing.T) {
	s := sanitize.New()

	c, err := New(Params{
		Name:    "  Jane   Doe ",
		Company: "ACME\tCorp",
		Email:   "jane@acme.example",
		Phone:   "+886 2 1234 5678",
		Tags:    []string{"supplier", "", "supplier", "taipei"},
	}, s)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Nil(t, c.UpdatedAt)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "ACME Corp", c.Company)
	assert.Equal(t, []string{"supplier", "taipei"}, c.Tags, "tags deduplicated, order kept")
}

func TestInvalidWebsiteDroppedSilently(t *testing.T) {
	s := sanitize.New()

	c, err := New(Params{Name: "Jane", Website: "not a url at all"}, s)
	require.NoError(t, err)
	assert.Empty(t, c.Website)

	c, err = New(Params{Name: "Jane", Website: "https://acme.example/"}, s)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example", c.Website, "trailing slash trimmed")

	c, err = New(Params{Name: "Jane", Website: "www.acme.example"}, s)
	require.NoError(t, err)
	assert.Equal(t, "www.acme.example", c.Website)
}

func TestDerivedPredicates(t *testing.T) {
	s := sanitize.New()

	nameOnly, err := New(Params{Name: "Jane"}, s)
	require.NoError(t, err)
	assert.False(t, nameOnly.IsComplete())
	assert.False(t, nameOnly.HasContactInfo())

	noContact, err := New(Params{Name: "Jane", JobTitle: "CTO", Company: "ACME"}, s)
	require.NoError(t, err)
	assert.False(t, noContact.IsComplete())

	complete, err := New(Params{
		Name:     "Jane",
		JobTitle: "CTO",
		Company:  "ACME",
		Email:    "jane@acme.example",
	}, s)
	require.NoError(t, err)
	assert.True(t, complete.IsComplete())
	assert.True(t, complete.HasContactInfo())

	addressOnly, err := New(Params{Name: "Jane", Address: "1 Main St"}, s)
	require.NoError(t, err)
	assert.True(t, addressOnly.HasContactInfo())
}

func TestCopyWithNoArgsEqualsOriginal(t *testing.T) {
	s := sanitize.New()
	c, err := New(Params{
		Name:      "Jane Doe",
		JobTitle:  "CTO",
		Company:   "ACME",
		Email:     "jane@acme.example",
		Tags:      []string{"a", "b"},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}, s)
	require.NoError(t, err)

	copied := c.CopyWith()
	assert.True(t, c.Equal(copied))
	assert.Nil(t, copied.UpdatedAt, "no-op copy does not stamp UpdatedAt")
}

func TestCopyWithOverrides(t *testing.T) {
	s := sanitize.New()
	c, err := New(Params{Name: "Jane", Company: "ACME"}, s)
	require.NoError(t, err)

	updated := c.CopyWith(
		WithCompany("  New   Co "),
		WithFavorite(true),
		WithWebsite("bogus website"),
	)
	assert.Equal(t, "New Co", updated.Company, "copy path re-cleans whitespace")
	assert.True(t, updated.IsFavorite)
	assert.Empty(t, updated.Website, "invalid website dropped on copy too")
	require.NotNil(t, updated.UpdatedAt)

	// Original untouched.
	assert.Equal(t, "ACME", c.Company)
	assert.False(t, c.IsFavorite)
	assert.Nil(t, c.UpdatedAt)
}

func TestCopyWithTagsDoNotAlias(t *testing.T) {
	s := sanitize.New()
	c, err := New(Params{Name: "Jane", Tags: []string{"x"}}, s)
	require.NoError(t, err)

	copied := c.CopyWith(WithFavorite(true))
	copied.Tags[0] = "mutated"
	assert.Equal(t, "x", c.Tags[0])
}

func TestStringOmitsContactDetails(t *testing.T) {
	s := sanitize.New()
	c, err := New(Params{Name: "Jane Doe", Email: "secret@acme.example", Phone: "0912-345-678"}, s)
	require.NoError(t, err)

	str := c.String()
	assert.NotContains(t, str, "secret@acme.example")
	assert.NotContains(t, str, "0912")
	assert.NotContains(t, str, "Jane")
}
