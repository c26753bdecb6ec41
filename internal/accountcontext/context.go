package accountcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type accountKey struct{}
type actorKey struct{}

// WithAccountID stores the caller's account id in the context.
func WithAccountID(ctx context.Context, accountID snowflake.ID) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

// AccountIDFromContext returns the account id, if set.
func AccountIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(accountKey{}).(type) {
	case snowflake.ID:
		return typed, typed != 0
	case int64:
		return snowflake.ID(typed), typed != 0
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil && parsed != 0 {
			return parsed, true
		}
	}
	return 0, false
}

// WithActorID stores the acting user id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, strings.TrimSpace(actorID))
}

// ActorIDFromContext returns the acting user id or "".
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actorKey{}).(string)
	return value
}

// ParseAccountID parses a decimal snowflake id; empty or zero ids are rejected.
func ParseAccountID(raw string) (snowflake.ID, bool) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}
