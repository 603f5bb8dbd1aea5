package upstream

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type counter struct{ n int }

func (c *counter) IncUpstreamError() { c.n++ }

func TestNew_ForwardsRequest(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin-Path", r.URL.Path)
		w.Header().Set("X-Origin-Query", r.URL.RawQuery)
		w.Header().Set("X-Origin-Host", r.Host)
		w.Header().Set("X-Origin-Forwarded-Host", r.Header.Get("X-Forwarded-Host"))
		w.Header().Set("X-Origin-Cf", r.Header.Get("CF-Connecting-IP"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "origin body")
	}))
	defer origin.Close()

	h, err := New(origin.URL, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://site.example/a/b?x=1", nil)
	req.Header.Set("CF-Connecting-IP", "173.245.48.1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "origin body", rr.Body.String())
	require.Equal(t, "/a/b", rr.Header().Get("X-Origin-Path"))
	require.Equal(t, "x=1", rr.Header().Get("X-Origin-Query"))
	require.Equal(t, strings.TrimPrefix(origin.URL, "http://"), rr.Header().Get("X-Origin-Host"))
	require.Equal(t, "site.example", rr.Header().Get("X-Origin-Forwarded-Host"))
	require.Equal(t, "173.245.48.1", rr.Header().Get("X-Origin-Cf"))
}

func TestNew_BadGateway(t *testing.T) {
	origin := httptest.NewServer(http.NotFoundHandler())
	target := origin.URL
	origin.Close()

	core, logs := observer.New(zap.ErrorLevel)
	c := &counter{}
	h, err := New(target, zap.New(core).Sugar(), c)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Equal(t, 1, c.n)
	require.Equal(t, 1, logs.Len())
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"http://127.0.0.1:8081", false},
		{"https://origin.example/base", false},
		{"", true},
		{"127.0.0.1:8081", true},
		{"ftp://origin.example", true},
		{"http://", true},
		{"http://[::1", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, err := ParseTarget(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
		})
	}
}
