package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

// serve runs one request through JWTAuth and reports the identity it set.
func serve(cfg JWTConfig, token string, extra ...gin.HandlerFunc) (*httptest.ResponseRecorder, string, string) {
	gin.SetMode(gin.TestMode)
	var userID, role string
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		userID = c.GetString("user_id")
		role = c.GetString("role")
		c.Status(http.StatusNoContent)
	})
	r.GET("/", handlers...)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, userID, role
}

func TestJWTAuthSetsSubjectAndRole(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret}
	tests := []struct {
		name   string
		claims jwt.MapClaims
		role   string
	}{
		{name: "no role", claims: jwt.MapClaims{"sub": "u1"}, role: "user"},
		{name: "top-level admin", claims: jwt.MapClaims{"sub": "u1", "role": "admin"}, role: "admin"},
		{name: "app metadata admin", claims: jwt.MapClaims{"sub": "u1", "role": "authenticated", "app_metadata": map[string]any{"role": "Admin"}}, role: "admin"},
		{name: "app metadata wins", claims: jwt.MapClaims{"sub": "u1", "role": "admin", "app_metadata": map[string]any{"role": "member"}}, role: "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, userID, role := serve(cfg, sign(t, tt.claims, testSecret))
			require.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, "u1", userID)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestJWTAuthCustomRoleClaim(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret, RoleClaims: []string{"claims.app.role"}}
	token := sign(t, jwt.MapClaims{
		"sub":    "u1",
		"role":   "user",
		"claims": map[string]any{"app": map[string]any{"role": "admin"}},
	}, testSecret)

	w, _, role := serve(cfg, token)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "admin", role)
}

func TestJWTAuthRejects(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret, Issuer: "https://issuer", Audience: "yoosocial"}
	valid := jwt.MapClaims{"sub": "u1", "iss": "https://issuer", "aud": "yoosocial"}
	with := func(k string, v any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for key, val := range valid {
			c[key] = val
		}
		if v == nil {
			delete(c, k)
		} else {
			c[k] = v
		}
		return c
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing header", token: "", want: http.StatusUnauthorized},
		{name: "wrong secret", token: sign(t, with("sub", "u1"), "other"), want: http.StatusUnauthorized},
		{name: "wrong issuer", token: sign(t, with("iss", "https://elsewhere"), testSecret), want: http.StatusUnauthorized},
		{name: "wrong audience", token: sign(t, with("aud", "other"), testSecret), want: http.StatusUnauthorized},
		{name: "expired", token: sign(t, with("exp", time.Now().Add(-time.Hour).Unix()), testSecret), want: http.StatusUnauthorized},
		{name: "no subject", token: sign(t, with("sub", nil), testSecret), want: http.StatusUnauthorized},
		{name: "garbage", token: "not.a.token", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, userID, _ := serve(cfg, tt.token)
			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, userID)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}

	w, userID, _ := serve(cfg, sign(t, with("sub", "u1"), testSecret))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u1", userID)
}

func TestJWTAuthWithoutSecret(t *testing.T) {
	w, _, _ := serve(JWTConfig{}, "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret}

	w, _, _ := serve(cfg, sign(t, jwt.MapClaims{"sub": "u1"}, testSecret), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	w, _, role := serve(cfg, sign(t, jwt.MapClaims{"sub": "u1", "role": "admin"}, testSecret), RequireAdmin())
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "admin", role)
}
