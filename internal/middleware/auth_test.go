package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func authProbe(secret []byte) (http.Handler, *string) {
	var subject string
	handler := BearerAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &subject
}

func TestBearerAuth_ValidToken(t *testing.T) {
	t.Parallel()

	secret := []byte("s3cret")
	handler, subject := authProbe(secret)

	token := signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "dashboard",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard", *subject)
}

func TestBearerAuth_MissingToken(t *testing.T) {
	t.Parallel()

	handler, _ := authProbe([]byte("s3cret"))

	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestBearerAuth_WrongSecret(t *testing.T) {
	t.Parallel()

	handler, _ := authProbe([]byte("s3cret"))

	token := signToken(t, []byte("other"), jwt.SigningMethodHS256, jwt.MapClaims{"sub": "dashboard"})
	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	secret := []byte("s3cret")
	handler, _ := authProbe(secret)

	token := signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "dashboard",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuth_RejectsOtherSigningMethods(t *testing.T) {
	t.Parallel()

	secret := []byte("s3cret")
	handler, _ := authProbe(secret)

	token := signToken(t, secret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "dashboard"})
	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuth_EmptySecretDisablesAuth(t *testing.T) {
	t.Parallel()

	handler, subject := authProbe(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *subject)
}
