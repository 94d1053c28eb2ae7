package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"quota exceeded", &QuotaExceededError{Tier: "new", Action: "post", Limit: 10}, http.StatusTooManyRequests},
		{"spam rejected", &SpamRejectedError{Score: 105}, http.StatusUnprocessableEntity},
		{"flag already resolved", &InvalidFlagStateError{Status: "approved"}, http.StatusConflict},
		{"duplicate flag", ErrDuplicateFlag, http.StatusConflict},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load post: %w", ErrNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"dependency unavailable", ErrDependencyUnavailable, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}

func TestQuotaExceededErrorMessage(t *testing.T) {
	err := &QuotaExceededError{Tier: "basic", Action: "thread", Limit: 10}
	assert.Equal(t, "daily thread quota exceeded for tier basic (limit 10)", err.Error())
}

func TestSpamRejectedErrorMessage(t *testing.T) {
	err := &SpamRejectedError{Score: 110, Reasons: []string{"duplicate_content"}}
	assert.Equal(t, "content rejected as spam (score 110)", err.Error())
}
