package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Database.DSN = ":memory:"
	cfg.Editor.DraftStore = "memory"
	cfg.Upload.Provider = "mux"
	cfg.Auth.Secret = "main-test-secret-that-is-long-enough"
	cfg.Auth.BcryptCost = 4
	return cfg
}

func TestNewAppServes(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.close)
	t.Cleanup(a.sessions.Close)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@example.com","password":"Sup3r$ecret","first_name":"Ada","last_name":"Lovelace"}`))
	req.Header.Set(config.HCType, config.CTypeJSON)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/editor", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown auth provider", func(c *config.Config) { c.Auth.Provider = "ldap" }},
		{"weak secret", func(c *config.Config) { c.Auth.Secret = "short" }},
		{"unknown draft store", func(c *config.Config) { c.Editor.DraftStore = "s3" }},
		{"redis draft store without redis", func(c *config.Config) { c.Editor.DraftStore = "redis" }},
		{"unknown compression", func(c *config.Config) { c.Storage.Compression = "lz4" }},
		{"unknown database driver", func(c *config.Config) { c.Database.Driver = "oracle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := newApp(context.Background(), cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestIsHTTPS(t *testing.T) {
	assert.True(t, isHTTPS("https://blog.example"))
	assert.False(t, isHTTPS("http://localhost:12600"))
	assert.False(t, isHTTPS(""))
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])

	migrate, _, err := root.Find([]string{"migrate", "version"})
	require.NoError(t, err)
	assert.Equal(t, "version", migrate.Name())
}
