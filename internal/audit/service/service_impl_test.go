package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	"github.com/smallbiznis/dairypay/internal/audit/repository"
	"github.com/smallbiznis/dairypay/internal/clock"
	"github.com/smallbiznis/dairypay/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:audit_service?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&auditdomain.AuditLog{}))
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clk,
	}), clk
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Record(context.Background(), auditdomain.Entry{AccountID: 1})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestRecordAndListPaginates(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, auditdomain.Entry{
			AccountID:  7,
			ActorID:    "user-1",
			Action:     "charge.created",
			TargetType: "charge",
			TargetID:   "100",
			Metadata:   map[string]any{"n": i},
		}))
		clk.Advance(time.Minute)
	}
	require.NoError(t, svc.Record(ctx, auditdomain.Entry{AccountID: 8, Action: "charge.created"}))

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{AccountID: 7, Action: "charge.created", Pagination: paginationOf("", 2)})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "user", first.AuditLogs[0].ActorType)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{AccountID: 7, Pagination: paginationOf(first.NextPageToken, 2)})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.True(t, second.AuditLogs[0].CreatedAt.Before(first.AuditLogs[1].CreatedAt))
}

func TestListRequiresAccount(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAccount)

	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{AccountID: 1, Pagination: paginationOf("!!", 10)})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func paginationOf(token string, size int) pagination.Pagination {
	return pagination.Pagination{PageToken: token, PageSize: size}
}
