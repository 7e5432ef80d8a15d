package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// DefaultRoleClaims is where the app role is looked up when JWTConfig
// leaves RoleClaims empty. The first non-empty string wins.
var DefaultRoleClaims = []string{"app_metadata.role", "role"}

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
	// RoleClaims are dotted claim paths, e.g. "app_metadata.role".
	RoleClaims []string
	Leeway     time.Duration
}

// JWTAuth validates HS256 bearer tokens and stores the subject as
// "user_id" and the app role as "role". Roles other than admin map to
// user. An empty secret is a configuration error reported on every request.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	roleClaims := cfg.RoleClaims
	if len(roleClaims) == 0 {
		roleClaims = DefaultRoleClaims
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		if cfg.Secret == "" {
			abort(c, http.StatusInternalServerError, utils.CodeInternal, "auth is not configured", nil)
			return
		}

		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw = strings.TrimSpace(raw); !found || raw == "" {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "missing bearer token", nil)
			return
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "invalid token", err)
			return
		}

		sub, _ := claims.GetSubject()
		if sub == "" {
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "missing subject", nil)
			return
		}

		c.Set("user_id", sub)
		c.Set("role", string(roleFrom(claims, roleClaims)))
		c.Next()
	}
}

func roleFrom(claims jwt.MapClaims, paths []string) models.UserRole {
	for _, p := range paths {
		if s := lookupString(claims, strings.Split(p, ".")); s != "" {
			if models.UserRole(strings.ToLower(s)) == models.RoleAdmin {
				return models.RoleAdmin
			}
			return models.RoleUser
		}
	}
	return models.RoleUser
}

func lookupString(m map[string]any, path []string) string {
	v, ok := m[path[0]]
	if !ok {
		return ""
	}
	if len(path) == 1 {
		s, _ := v.(string)
		return strings.TrimSpace(s)
	}
	next, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return lookupString(next, path[1:])
}

func abort(c *gin.Context, status int, code utils.Code, msg string, err error) {
	_ = c.Error(utils.E(code, "JWTAuth", msg, err))
	c.AbortWithStatusJSON(status, apiError{Code: code, Message: msg})
}
