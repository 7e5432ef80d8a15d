package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError answers with a safe message and the error code. The full
// error is attached to the context for the request logger.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := utils.CodeOf(err)
	if utils.HTTPStatus(err) >= 500 && code != utils.CodeUnavailable && code != utils.CodeTimeout {
		code = utils.CodeInternal
	}
	c.JSON(utils.HTTPStatus(err), APIError{
		Code:    code,
		Message: utils.PublicMessage(err),
	})
}

func callerID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requireUserID(c *gin.Context) (string, bool) {
	if id := callerID(c); id != "" {
		return id, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// actingAs checks that an authenticated caller only acts for itself.
// Without authentication every subject is accepted.
func actingAs(c *gin.Context, userID string) bool {
	caller := callerID(c)
	if caller == "" || caller == userID {
		return true
	}
	if role, _ := c.Get("role"); role == "admin" {
		return true
	}
	writeError(c, utils.E(utils.CodeForbidden, "Auth", "forbidden", nil))
	return false
}

// queryLimit reads ?limit=. Missing means 0 (the default page size);
// non-numeric values are rejected.
func queryLimit(c *gin.Context, op string) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "limit must be a number", err))
		return 0, false
	}
	return n, true
}

func clamp(n, def, max int) int {
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}
