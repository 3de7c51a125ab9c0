package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesField(t *testing.T) {
	err := Validation("confidence", "must be within [0,1]")
	assert.Equal(t, "validation: confidence: must be within [0,1]", err.Error())
}

func TestKindMatchingThroughWrapping(t *testing.T) {
	base := Security("name", "script marker detected")
	wrapped := fmt.Errorf("building card: %w", base)

	assert.True(t, IsKind(wrapped, KindSecurity))
	assert.False(t, IsKind(wrapped, KindValidation))
	assert.Equal(t, KindSecurity, KindOf(wrapped))
}

func TestSentinelMatchingIsIdentityBased(t *testing.T) {
	sentinel := New(KindDataSource, "record not found")

	assert.True(t, errors.Is(sentinel, sentinel))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", sentinel), sentinel))

	// A backend outage of the same kind must not satisfy a not-found
	// sentinel; kind classification goes through IsKind.
	outage := Wrap(KindDataSource, errors.New("connection refused"), "select card")
	assert.False(t, errors.Is(outage, sentinel))
	assert.True(t, IsKind(outage, KindDataSource))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDataSource, cause, "saving card")
	require.ErrorIs(t, err, cause)
}

func TestUserMessageNeverEchoesInternalDetail(t *testing.T) {
	err := Validation("email", "malformed address: bob@@example..com")
	assert.NotContains(t, err.UserMessage(), "bob@@example..com")
	assert.NotEmpty(t, err.UserMessage())

	custom := err.WithUser("Please check the email address.")
	assert.Equal(t, "Please check the email address.", custom.UserMessage())
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Validation("phone", "too short"), http.StatusBadRequest},
		{Security("notes", "injection"), http.StatusBadRequest},
		{New(KindUnsupportedFormat, "webp not supported"), http.StatusUnsupportedMediaType},
		{New(KindDataSource, "db down"), http.StatusServiceUnavailable},
		{New(KindProcessing, "ocr failed"), http.StatusUnprocessableEntity},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "for %v", tt.err)
	}
}
