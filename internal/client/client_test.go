package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURLWithParams(t *testing.T) {
	assert.Equal(t, "/multiaddr", BuildURLWithParams("/multiaddr", nil))

	built := BuildURLWithParams("/multiaddr?n=0", map[string]string{"active": "a|b"})
	parsed, err := url.Parse(built)
	require.NoError(t, err)
	assert.Equal(t, "/multiaddr", parsed.Path)
	assert.Equal(t, "a|b", parsed.Query().Get("active"))
	assert.Equal(t, "0", parsed.Query().Get("n"))
}

func TestAPIClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"value":42}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}
	}))
	defer server.Close()

	c := NewAPIClient(server.URL+"/", time.Second)
	assert.Equal(t, server.URL, c.BaseURL())

	var body struct {
		Value int `json:"value"`
	}
	require.NoError(t, c.Get(context.Background(), "/ok", &body))
	assert.Equal(t, 42, body.Value)

	err := c.Get(context.Background(), "/limited", &body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestAPIClientHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAPIClient(server.URL, time.Second).Get(ctx, "/", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
