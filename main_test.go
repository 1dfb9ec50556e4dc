package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conexioncarga/internal/config"
	"conexioncarga/internal/database"
	"conexioncarga/internal/logging"
	"conexioncarga/internal/repositories"
	"conexioncarga/pkg/mailer"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("VERIFICATION_STORE", "memory")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	db, err := database.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := logging.Discard()
	codes, closeCodes, err := verificationStore(cfg, db, log)
	require.NoError(t, err)
	t.Cleanup(closeCodes)

	sender, closeSender, err := mailSender(cfg, log)
	require.NoError(t, err)
	t.Cleanup(closeSender)

	return NewApp(cfg, db, codes, sender, log)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["database"])
}

func TestRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/me"},
		{http.MethodPut, "/api/users/some-id"},
		{http.MethodPost, "/api/loads"},
		{http.MethodGet, "/api/loads/mine"},
		{http.MethodPost, "/api/loads/some-id/expire"},
		{http.MethodPost, "/api/loads/some-id/reactivate"},
	}
	for _, r := range protected {
		req := httptest.NewRequest(r.method, r.path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}

	public := []string{"/api/loads/public", "/api/loads/unknown-id"}
	for _, path := range public {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestVerificationStoreSelection(t *testing.T) {
	log := logging.Discard()

	codes, closeFn, err := verificationStore(&config.Config{VerificationStore: "memory"}, nil, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repositories.MemoryVerificationRepository{}, codes)

	codes, closeFn, err = verificationStore(&config.Config{VerificationStore: "database"}, nil, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repositories.GORMVerificationRepository{}, codes)

	_, _, err = verificationStore(&config.Config{VerificationStore: "redis", RedisAddr: "127.0.0.1:1"}, nil, log)
	assert.Error(t, err)
}

func TestMailSenderSelection(t *testing.T) {
	log := logging.Discard()

	sender, _, err := mailSender(&config.Config{MailDriver: "log"}, log)
	require.NoError(t, err)
	assert.IsType(t, &mailer.LogSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), "a@example.com", "subject", "text", ""))

	sender, _, err = mailSender(&config.Config{MailDriver: "mailgun", MailgunDomain: "mg.example.com", MailgunAPIKey: "key", MailFrom: "no-reply@example.com"}, log)
	require.NoError(t, err)
	assert.IsType(t, &mailer.Mailgun{}, sender)
}
