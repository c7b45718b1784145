package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"psiagenda/internal/domain"
	"psiagenda/internal/pkg/middleware"
	"psiagenda/internal/pkg/token"
)

func newProtectedHandler(t *testing.T, tokenSvc *token.Service) http.HandlerFunc {
	t.Helper()
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	return authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserClaimsFromContext(r.Context())
		assert.True(t, ok)
		w.Header().Set("X-User-ID", claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

// TestAuthMiddleware_ValidToken testa que um JWT válido passa e as claims
// chegam ao contexto do handler.
func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokenSvc := token.NewService("segredo-de-teste", time.Hour)
	handler := newProtectedHandler(t, tokenSvc)

	tokenString, err := tokenSvc.GenerateToken("user-123", string(domain.RoleAdmin))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", rec.Header().Get("X-User-ID"))
}

// TestAuthMiddleware_MissingHeader testa a rejeição sem o header Authorization.
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tokenSvc := token.NewService("segredo-de-teste", time.Hour)
	handler := newProtectedHandler(t, tokenSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuthMiddleware_MalformedHeader testa a rejeição de header sem prefixo Bearer.
func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tokenSvc := token.NewService("segredo-de-teste", time.Hour)
	handler := newProtectedHandler(t, tokenSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuthMiddleware_InvalidToken testa a rejeição de token assinado com outro segredo.
func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tokenSvc := token.NewService("segredo-de-teste", time.Hour)
	handler := newProtectedHandler(t, tokenSvc)

	otherSvc := token.NewService("outro-segredo", time.Hour)
	tokenString, err := otherSvc.GenerateToken("user-123", string(domain.RoleUser))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuthMiddleware_ExpiredToken testa a rejeição de token expirado.
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expiredSvc := token.NewService("segredo-de-teste", -time.Hour)
	handler := newProtectedHandler(t, token.NewService("segredo-de-teste", time.Hour))

	tokenString, err := expiredSvc.GenerateToken("user-123", string(domain.RoleUser))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
