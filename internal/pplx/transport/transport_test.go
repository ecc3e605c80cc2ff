package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, err := NewHTTP(Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer test-key")

	res, err := tr.Send(context.Background(), http.MethodPost, srv.URL, header, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"ok":true}`, string(res.Body))
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	tr, err := NewHTTP(Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = tr.Send(ctx, http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInitAndShutdownAreIdempotent(t *testing.T) {
	require.NoError(t, Init("", false))
	require.NoError(t, Init("http://ignored-second-call:3128", false))
	Shutdown()
	Shutdown()
	require.NoError(t, Init("", false))
}

func TestInitRejectsBadProxy(t *testing.T) {
	Shutdown()
	err := Init("http://bad proxy\x7f", false)
	require.Error(t, err)
}

func TestZeroOptionsKeepTLSVerification(t *testing.T) {
	Shutdown()
	t.Cleanup(Shutdown)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr, err := NewHTTP(Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	// The test server's self-signed certificate must be rejected.
	_, err = tr.Send(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "certificate")
}

func TestInsecureSkipVerifyIsExplicitOptIn(t *testing.T) {
	Shutdown()
	t.Cleanup(Shutdown)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr, err := NewHTTP(Options{Timeout: 5 * time.Second, InsecureSkipVerify: true})
	require.NoError(t, err)

	res, err := tr.Send(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
}
