package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/token"
)

func newGuard(t *testing.T) (*AuthGuard, *token.Issuer, *Session) {
	t.Helper()
	issuer := token.NewIssuer("test-secret", time.Hour)
	session := NewSession("session", false)
	return NewAuthGuard(issuer, session), issuer, session
}

func signedCookieRequest(t *testing.T, issuer *token.Issuer, session *Session) *http.Request {
	t.Helper()
	signed, err := issuer.Sign(&models.AuthUser{
		ID:       primitive.NewObjectID(),
		UID:      "123456789012",
		Username: "ada",
		Email:    "ada@x.com",
	}, primitive.NewObjectID().Hex())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	session.SetToken(rec, signed)

	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestAuthenticate_AttachesPayload(t *testing.T) {
	guard, issuer, session := newGuard(t)

	var got *models.AuthPayload
	handler := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentUserFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedCookieRequest(t, issuer, session))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	require.Equal(t, "ada", got.Username)
	require.Equal(t, "ada@x.com", got.Email)
}

func TestAuthenticate_MissingCookie(t *testing.T) {
	guard, _, _ := newGuard(t)

	handler := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/currentuser", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Token not available")
}

func TestAuthenticate_GarbageCookie(t *testing.T) {
	guard, _, _ := newGuard(t)

	handler := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_TokenSignedWithOtherSecret(t *testing.T) {
	guard, _, session := newGuard(t)
	otherIssuer := token.NewIssuer("other-secret", time.Hour)

	handler := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedCookieRequest(t, otherIssuer, session))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid token")
}

func TestAuthorize_RequiresAuthenticatedContext(t *testing.T) {
	guard, _, _ := newGuard(t)

	handler := guard.Authorize(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/currentuser", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorize_PassesWithPayload(t *testing.T) {
	guard, _, _ := newGuard(t)

	called := false
	handler := guard.Authorize(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	req = req.WithContext(WithCurrentUser(req.Context(), &models.AuthPayload{Username: "ada"}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_RoundTripAndClear(t *testing.T) {
	session := NewSession("session", false)

	rec := httptest.NewRecorder()
	session.SetToken(rec, "some.jwt.value")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	got, err := session.ReadToken(req)
	require.NoError(t, err)
	require.Equal(t, "some.jwt.value", got)

	clearRec := httptest.NewRecorder()
	session.Clear(clearRec)
	cookies := clearRec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Negative(t, cookies[0].MaxAge)
	require.Empty(t, cookies[0].Value)
}
