package context

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccountIDFromGin resolves the authenticated account id from either the
// request context or the gin key set by the session middleware.
func AccountIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if ctx := c.Request.Context(); ctx != nil {
		if value := AccountIDFromContext(ctx); value != "" {
			return value
		}
	}
	if raw, ok := c.Get("account_id"); ok {
		switch value := raw.(type) {
		case string:
			return strings.TrimSpace(value)
		case int64:
			if value != 0 {
				return strconv.FormatInt(value, 10)
			}
		}
	}
	return ""
}
