package ratelimiting_test

import (
	"net/http"
	"testing"

	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockedRateLimiter struct {
	consumeFunc func(key string) bool
}

func (m *mockedRateLimiter) Consume(key string) bool {
	return m.consumeFunc(key)
}

func TestTokenBucketRateLimiter(t *testing.T) {
	t.Parallel()

	// Refill is slow enough that no tokens come back during the test
	rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(0.001, 2)
	defer stop()

	assert.True(t, rateLimiter.Consume("client1"))
	assert.True(t, rateLimiter.Consume("client1"))
	assert.False(t, rateLimiter.Consume("client1"))

	assert.True(t, rateLimiter.Consume("client2"))
	assert.True(t, rateLimiter.Consume("client2"))
	assert.False(t, rateLimiter.Consume("client2"))
}

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	t.Run("ip", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"123.123.123.123":       "ip: 123.123.123.123",
			"123.123.123.123:54321": "ip: 123.123.123.123",
			"[::1]:8410":            "ip: ::1",
		}
		for remoteAddr, want := range cases {
			t.Run(remoteAddr, func(t *testing.T) {
				t.Parallel()
				require.Equal(t, want, ratelimiting.IPKeyFunc(&http.Request{RemoteAddr: remoteAddr}))
			})
		}
	})

	t.Run("client id", func(t *testing.T) {
		t.Parallel()

		r, err := http.NewRequest(http.MethodGet, "/v1/session", nil)
		require.NoError(t, err)
		require.Equal(t, "client-id: <missing>", ratelimiting.ClientIDKeyFunc(r))

		r.Header.Set("X-Overlay-Client", "obs-browser-source")
		require.Equal(t, "client-id: obs-browser-source", ratelimiting.ClientIDKeyFunc(r))
	})
}

func TestRequestBasedRateLimiter(t *testing.T) {
	t.Parallel()

	var expectedKey string
	var allowed bool
	rateLimiter := &mockedRateLimiter{
		consumeFunc: func(key string) bool {
			assert.Equal(t, expectedKey, key)
			return allowed
		},
	}
	requestRateLimiter := ratelimiting.NewRequestBasedRateLimiter(rateLimiter, ratelimiting.IPKeyFunc)

	expectedKey = "ip: 1.1.1.1"
	allowed = true
	assert.True(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1:1000"}))
	allowed = false
	assert.False(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1:1000"}))

	expectedKey = "ip: 2.1.1.1"
	allowed = true
	assert.True(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "2.1.1.1"}))
	assert.Equal(t, "ip: 2.1.1.1", requestRateLimiter.KeyFor(&http.Request{RemoteAddr: "2.1.1.1"}))
}
