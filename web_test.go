/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *testServer, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestWeb_Pages(t *testing.T) {
	srv := startServer(t, testConfig())

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/", contentType: "text/html; charset=utf-8", contains: "/ws"},
		{path: "/healthz", contentType: "text/plain; charset=utf-8", contains: "Ok"},
		{path: "/robots.txt", contentType: "text/plain; charset=utf-8", contains: "Disallow: /"},
		{path: "/version", contentType: "text/plain; charset=utf-8", contains: "codenames v" + releaseVersion},
		{path: "/favicon.svg", contentType: "image/svg+xml", contains: "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv, tt.path)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestWeb_Stats(t *testing.T) {
	srv := startServer(t, testConfig())

	alice := srv.dial(t, nil)
	join(t, alice, "R1", "Alice")

	resp, body := get(t, srv, "/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats statsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.Rooms)
	assert.Equal(t, 1, stats.Participants)
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, uint64(1), stats.Events)
}

type stalledStats struct{}

func (stalledStats) Stats(ctx context.Context) (Stats, error) {
	<-ctx.Done()
	return Stats{}, ctx.Err()
}

func TestWeb_StatsUnavailable(t *testing.T) {
	cfg := testConfig()
	handle := serveStats(cfg, stalledStats{}, newHub(cfg), make(chan error, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	handle(rec, req, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWeb_RoomQR(t *testing.T) {
	srv := startServer(t, testConfig())

	resp, body := get(t, srv, "/room/R1/qr")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestWeb_RoomURL(t *testing.T) {
	tests := []struct {
		name      string
		clientURL string
		prefix    string
		header    http.Header
		roomID    string
		want      string
	}{
		{
			name:      "client url",
			clientURL: "https://play.example/",
			roomID:    "R 1",
			want:      "https://play.example/room/R%201",
		},
		{
			name:   "this server",
			roomID: "R1",
			want:   "http://example.com/room/R1",
		},
		{
			name:   "behind proxy",
			prefix: "/codenames",
			header: http.Header{"X-Forwarded-Proto": {"https"}},
			roomID: "R1",
			want:   "https://example.com/codenames/room/R1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.clientURL = tt.clientURL
			cfg.prefix = tt.prefix

			req := httptest.NewRequest(http.MethodGet, "http://example.com/room/x/qr", nil)
			for k, v := range tt.header {
				req.Header[k] = v
			}

			assert.Equal(t, tt.want, roomURL(cfg, req, tt.roomID))
		})
	}
}

func TestWeb_Prefix(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/codenames"
	srv := startServer(t, cfg)

	resp, _ := get(t, srv, "/codenames/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/healthz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWeb_Profiling(t *testing.T) {
	resp, _ := get(t, startServer(t, testConfig()), "/debug/pprof/cmdline")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cfg := testConfig()
	cfg.profile = true

	resp, _ = get(t, startServer(t, cfg), "/debug/pprof/cmdline")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1:5000", realIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:5000", realIP(req))

	req.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:5000", realIP(req))
}
