package github

import (
	"errors"
	"net/http"
	"testing"

	"pr-insights-service/internal/domain"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func responseError(statusCode int) error {
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/acme/widgets", nil)
	return &github.ErrorResponse{
		Response: &http.Response{StatusCode: statusCode, Request: req},
	}
}

func rateLimitedResponse() *http.Response {
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/acme/widgets", nil)
	return &http.Response{StatusCode: http.StatusForbidden, Request: req}
}

func TestClassifyHostError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"Rate limit", &github.RateLimitError{Response: rateLimitedResponse()}, domain.ErrHostRateLimited},
		{"Abuse rate limit", &github.AbuseRateLimitError{Response: rateLimitedResponse()}, domain.ErrHostRateLimited},
		{"Not found", responseError(http.StatusNotFound), domain.ErrHostNotFound},
		{"Gone", responseError(http.StatusGone), domain.ErrHostNotFound},
		{"Unauthorized", responseError(http.StatusUnauthorized), domain.ErrHostAuthFailed},
		{"Forbidden", responseError(http.StatusForbidden), domain.ErrHostAuthFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyHostError(tc.err), tc.expected)
		})
	}
}

func TestClassifyHostError_UnknownErrorPassedThrough(t *testing.T) {
	cause := errors.New("connection reset")

	err := classifyHostError(cause)

	assert.Equal(t, cause, err)
	assert.True(t, domain.IsTransientHostError(err))
}

func TestClassifyHostError_ServerErrorIsTransient(t *testing.T) {
	err := classifyHostError(responseError(http.StatusBadGateway))

	assert.True(t, domain.IsTransientHostError(err))
	assert.False(t, domain.IsPermanentHostError(err))
}

func newTestClient(maxPages int) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient("", "acme", "widgets", maxPages, logger)
}

func testResponse(nextPage, remaining int) *github.Response {
	return &github.Response{
		Response: &http.Response{StatusCode: http.StatusOK},
		NextPage: nextPage,
		Rate:     github.Rate{Limit: 5000, Remaining: remaining},
	}
}

func TestAdvance_StopsAtLastPage(t *testing.T) {
	c := newTestClient(10)
	pages, next := 0, 0

	done, err := c.advance(testResponse(0, 4000), &pages, &next)

	assert.True(t, done)
	assert.NoError(t, err)
}

func TestAdvance_FollowsContinuationToken(t *testing.T) {
	c := newTestClient(10)
	pages, next := 0, 0

	done, err := c.advance(testResponse(2, 4000), &pages, &next)

	assert.False(t, done)
	assert.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.Equal(t, 1, pages)
}

func TestAdvance_PageLimitExceeded(t *testing.T) {
	c := newTestClient(1)
	pages, next := 0, 0

	done, err := c.advance(testResponse(2, 4000), &pages, &next)

	assert.True(t, done)
	assert.ErrorIs(t, err, domain.ErrHostPageLimit)
	assert.True(t, domain.IsPermanentHostError(err))
}

func TestAdvance_QuotaExhausted(t *testing.T) {
	c := newTestClient(10)
	pages, next := 0, 0

	done, err := c.advance(testResponse(2, 0), &pages, &next)

	assert.True(t, done)
	assert.ErrorIs(t, err, domain.ErrHostRateLimited)
	assert.True(t, domain.IsTransientHostError(err))
}
