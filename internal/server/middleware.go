package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dairypay/internal/accountcontext"
	obscontext "github.com/smallbiznis/dairypay/internal/observability/context"
)

const (
	HeaderAccountID = "X-Account-Id"
	HeaderUserID    = "X-User-Id"
)

// AccountContext resolves the caller's account and acting user from the
// request headers. Handlers may still override the account with an explicit
// account_id in the body or query.
func AccountContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if raw := strings.TrimSpace(c.GetHeader(HeaderAccountID)); raw != "" {
			accountID, ok := accountcontext.ParseAccountID(raw)
			if !ok {
				AbortWithError(c, newValidationError("account_id", "invalid_account_id", "invalid X-Account-Id header"))
				return
			}
			ctx = accountcontext.WithAccountID(ctx, accountID)
			ctx = obscontext.WithAccountID(ctx, accountID.String())
		}
		if actor := strings.TrimSpace(c.GetHeader(HeaderUserID)); actor != "" {
			ctx = accountcontext.WithActorID(ctx, actor)
			ctx = obscontext.WithActor(ctx, "user", actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// resolveAccountID prefers an explicit account_id over the header account.
func resolveAccountID(c *gin.Context, override string) (snowflake.ID, error) {
	if strings.TrimSpace(override) != "" {
		accountID, ok := accountcontext.ParseAccountID(override)
		if !ok {
			return 0, newValidationError("account_id", "invalid_account_id", "invalid account_id")
		}
		return accountID, nil
	}
	if accountID, ok := accountcontext.AccountIDFromContext(c.Request.Context()); ok {
		return accountID, nil
	}
	return 0, newValidationError("account_id", "required", "account is required")
}

func actorID(c *gin.Context) string {
	return accountcontext.ActorIDFromContext(c.Request.Context())
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := parseOptionalSnowflakeID(c.Param(name))
	if err != nil || id == nil {
		return 0, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	return *id, nil
}
