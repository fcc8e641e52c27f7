package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	obscontext "github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
)

const contextAccountIDKey = "account_id"

// SessionRequired authenticates requests with a bearer session token
// issued by the external auth system. Tokens are stored hashed; the raw
// token never touches the database.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := hashSessionToken(parts[1])
		now := time.Now().UTC()

		var record struct {
			ID        snowflake.ID `gorm:"column:id"`
			AccountID snowflake.ID `gorm:"column:account_id"`
			Email     string       `gorm:"column:email"`
			TokenHash string       `gorm:"column:token_hash"`
		}
		if err := s.db.WithContext(c.Request.Context()).Raw(
			`SELECT id, account_id, email, token_hash
			 FROM sessions
			 WHERE token_hash = ?
			   AND (expires_at IS NULL OR expires_at > ?)
			 LIMIT 1`,
			hash,
			now,
		).Scan(&record).Error; err != nil {
			AbortWithError(c, err)
			return
		}

		if record.ID == 0 || subtle.ConstantTimeCompare([]byte(record.TokenHash), []byte(hash)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		ctx = obscontext.WithAccountID(ctx, record.AccountID.String())
		ctx = obscontext.WithActor(ctx, "user", record.AccountID.String())
		ctx = obscontext.WithActorEmail(ctx, record.Email)
		ctx = obscontext.WithIPAddress(ctx, c.ClientIP())
		ctx = obscontext.WithUserAgent(ctx, c.Request.UserAgent())

		c.Set(contextAccountIDKey, int64(record.AccountID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// authorizeAccount parses the requested account id and checks it against
// the authenticated session. A foreign account id reads as not found so
// the endpoint does not leak which accounts exist.
func (s *Server) authorizeAccount(c *gin.Context, requested string) (snowflake.ID, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return 0, newValidationError("accountId", "required", "accountId is required")
	}
	accountID, err := snowflake.ParseString(requested)
	if err != nil {
		return 0, newValidationError("accountId", "invalid", "accountId is not a valid id")
	}

	caller, ok := c.Get(contextAccountIDKey)
	callerID, isInt := caller.(int64)
	if !ok || !isInt || callerID == 0 {
		return 0, ErrUnauthorized
	}
	if int64(accountID) != callerID {
		return 0, ErrNotFound
	}
	return accountID, nil
}
