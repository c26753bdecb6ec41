package accountcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestAccountIDRoundTrip(t *testing.T) {
	ctx := WithAccountID(context.Background(), snowflake.ID(42))
	id, ok := AccountIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)

	_, ok = AccountIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestParseAccountID(t *testing.T) {
	id, ok := ParseAccountID(" 1001 ")
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(1001), id)

	_, ok = ParseAccountID("0")
	assert.False(t, ok)
	_, ok = ParseAccountID("abc")
	assert.False(t, ok)
}

func TestActorID(t *testing.T) {
	ctx := WithActorID(context.Background(), " user-7 ")
	assert.Equal(t, "user-7", ActorIDFromContext(ctx))
	assert.Equal(t, "", ActorIDFromContext(context.Background()))
}
