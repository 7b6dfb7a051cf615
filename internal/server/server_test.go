package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"catatuang/api/internal/config"
	"catatuang/api/internal/handlers"
)

func TestNewHTTPServerAppliesTimeouts(t *testing.T) {
	cfg := &config.AppConfig{
		Environment: "development",
		HTTP: config.HTTPConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	srv := NewHTTPServer(cfg, zerolog.Nop(), handlers.HandlerSet{})
	require.NotNil(t, srv)
	require.Equal(t, "127.0.0.1:8080", srv.server.Addr)
	require.Equal(t, 10*time.Second, srv.server.ReadTimeout)
	require.Equal(t, 15*time.Second, srv.server.WriteTimeout)
	require.Equal(t, 60*time.Second, srv.server.IdleTimeout)
}

func TestUnknownRouteIs404(t *testing.T) {
	cfg := &config.AppConfig{Environment: "development"}
	srv := NewHTTPServer(cfg, zerolog.Nop(), handlers.HandlerSet{})

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
