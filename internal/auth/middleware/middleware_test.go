package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/exam-simulator/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	tok, err := a.IssueJWT("session-1", rbac.RoleCandidate)
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "session-1", c.Sub)
	assert.Equal(t, rbac.RoleCandidate, c.Role)

	_, err = NewAuthService("other-secret", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	a := NewAuthService("test-secret", time.Minute)
	issued := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	tok, err := a.IssueJWT("session-1", rbac.RoleCandidate)
	require.NoError(t, err)

	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = a.Parse(tok)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	tok, err := a.IssueJWT("session-1", rbac.RoleCandidate)
	require.NoError(t, err)

	var sub, role string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
		assert.True(t, OwnsSession(r, "session-1"))
		assert.False(t, OwnsSession(r, "session-2"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/sessions/session-1/next", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-1", sub)
	assert.Equal(t, rbac.RoleCandidate, role)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/session-1?token="+tok, nil))
	assert.Equal(t, http.StatusOK, rec.Code, "query token accepted on GET")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/session-1/next?token="+tok, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "query token refused on POST")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a := NewAuthService("test-secret", time.Hour)
	h := LoginHandler(a, Admin{User: "admin", PassHash: string(hash)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	c, err := a.Parse(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, c.Role)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
