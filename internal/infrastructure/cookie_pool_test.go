package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCookiePoolTakeAndReturn(t *testing.T) {
	pool := NewCookiePool("", zap.NewNop())
	cookies := []*http.Cookie{{Name: "VISITOR_INFO1_LIVE", Value: "abc"}}
	pool.Return(cookies)

	got, err := pool.Take(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, cookies, got)
}

func TestCookiePoolSingleSlot(t *testing.T) {
	pool := NewCookiePool("", zap.NewNop())

	pool.Return([]*http.Cookie{{Name: "a", Value: "1"}})
	pool.Return([]*http.Cookie{{Name: "b", Value: "2"}})

	got, err := pool.Take(context.Background())
	assert.NoError(t, err)
	// The slot holds one set; a later return replaces the earlier one.
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
}

func TestCookieClientDoesNotMutateRequest(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
	}))
	defer server.Close()

	pool := NewCookiePool("", zap.NewNop())
	pool.Return([]*http.Cookie{{Name: "VISITOR_INFO1_LIVE", Value: "abc"}})

	client := NewCookieClient(pool)
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotCookie, "VISITOR_INFO1_LIVE=abc")
	// The transport works on a clone; the caller's request stays untouched.
	assert.Empty(t, req.Header.Get("Cookie"))
}

func TestCookiePoolReturnEmptyIsNoop(t *testing.T) {
	pool := NewCookiePool("", zap.NewNop())
	pool.Return([]*http.Cookie{{Name: "keep", Value: "1"}})
	pool.Return(nil)

	got, err := pool.Take(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "keep", got[0].Name)
}
