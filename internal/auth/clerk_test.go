package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
)

func webhook(p *ClerkAuthProvider, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	p.HandleWebhookUser(rec, httptest.NewRequest(http.MethodPost, "/webhook/user", strings.NewReader(body)))
	return rec
}

func TestClerkWebhook(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	p := NewClerkAuthProvider("sk_test_key", s.users)

	created := `{"type":"user.created","data":{"id":"user_1","username":"Writer_1","first_name":"Ada","last_name":"Lovelace",
		"primary_email_address_id":"e2",
		"email_addresses":[{"id":"e1","email_address":"old@example.com"},{"id":"e2","email_address":"main@example.com"}]}}`

	rec := webhook(p, created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user, err := s.users.GetByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "main@example.com", user.Email)
	assert.Equal(t, "writer_1", user.Handle)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)

	rec = webhook(p, created)
	assert.Equal(t, http.StatusCreated, rec.Code, "replayed events are accepted")

	rec = webhook(p, `{"type":"user.created","data":{"id":"user_2","email_addresses":[{"id":"e3","email_address":"second@example.com"}]}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second, err := s.users.GetByID(ctx, "user_2")
	require.NoError(t, err)
	assert.Regexp(t, `^user_[a-z0-9]{6}$`, second.Handle)

	rec = webhook(p, `{"type":"user.updated","data":{"id":"user_1"}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = webhook(p, `{"type":"user.deleted","data":{"id":"user_1"}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = s.users.GetByID(ctx, "user_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClerkWebhookRejects(t *testing.T) {
	s := newTestService(t)
	p := NewClerkAuthProvider("sk_test_key", s.users)

	assert.Equal(t, http.StatusBadRequest, webhook(p, `{`).Code)
	assert.Equal(t, http.StatusBadRequest, webhook(p, `{"type":"session.created","data":{}}`).Code)
	assert.Equal(t, http.StatusBadRequest, webhook(p, `{"type":"user.created","data":{"id":"user_3"}}`).Code)
}

func TestClerkUserFromContext(t *testing.T) {
	p := NewClerkAuthProvider("sk_test_key", nil)

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	_, err := p.EnforceUserAndGetID(rec, r)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r = r.WithContext(ContextWithUserID(r.Context(), model.UserID("user_1")))
	userID, err := p.GetUserIDFromSession(r)
	require.NoError(t, err)
	assert.Equal(t, model.UserID("user_1"), userID)
}
