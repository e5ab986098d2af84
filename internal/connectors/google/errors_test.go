package google

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		unauthorized bool
		forbidden    bool
		rateLimited  bool
	}{
		{name: "401", err: &googleapi.Error{Code: http.StatusUnauthorized}, unauthorized: true},
		{name: "403", err: &googleapi.Error{Code: http.StatusForbidden}, forbidden: true},
		{name: "429", err: &googleapi.Error{Code: http.StatusTooManyRequests}, rateLimited: true},
		{name: "500", err: &googleapi.Error{Code: http.StatusInternalServerError}},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unauthorized, IsUnauthorized(tt.err))
			assert.Equal(t, tt.forbidden, IsForbidden(tt.err))
			assert.Equal(t, tt.rateLimited, IsRateLimited(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	withHeader := func(v string) error {
		return &googleapi.Error{Code: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{v}}}
	}

	assert.Equal(t, 30*time.Second, RetryAfter(withHeader("30")))
	assert.Zero(t, RetryAfter(withHeader("soon")))
	assert.Zero(t, RetryAfter(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.Zero(t, RetryAfter(errors.New("boom")))
}
