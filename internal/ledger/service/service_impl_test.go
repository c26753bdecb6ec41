package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/dairypay/internal/clock"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (*gorm.DB, ledgerdomain.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:ledger_service?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	models := []any{&ledgerdomain.LedgerAccount{}, &ledgerdomain.LedgerEntry{}, &ledgerdomain.LedgerEntryLine{}}
	require.NoError(t, db.Migrator().DropTable(models...))
	require.NoError(t, db.AutoMigrate(models...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return db, NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func TestPostExpenseWritesBalancedEntryOnce(t *testing.T) {
	db, svc := setupLedger(t)
	ctx := context.Background()
	entry := ledgerdomain.ExpenseEntry{
		AccountID:   100,
		SourceID:    555,
		Amount:      decimal.RequireFromString("46495.00"),
		Description: "Payroll payment - Kamanzi (2025-01-01 to 2025-01-15)",
		Date:        time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, svc.PostExpense(ctx, entry))
	require.NoError(t, svc.PostExpense(ctx, entry))

	var entries []ledgerdomain.LedgerEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, ledgerdomain.SourceTypePayrollPayslip, entries[0].SourceType)
	assert.Equal(t, "RWF", entries[0].Currency)
	assert.Equal(t, entry.Description, entries[0].Description)

	var lines []ledgerdomain.LedgerEntryLine
	require.NoError(t, db.Order("direction asc").Find(&lines).Error)
	require.Len(t, lines, 2)
	assert.Equal(t, ledgerdomain.LedgerEntryDirectionCredit, lines[0].Direction)
	assert.Equal(t, "46495.00", lines[0].Amount.StringFixed(2))
	assert.Equal(t, "46495.00", lines[1].Amount.StringFixed(2))

	var accounts []ledgerdomain.LedgerAccount
	require.NoError(t, db.Order("code asc").Find(&accounts).Error)
	require.Len(t, accounts, 2)
	assert.Equal(t, ledgerdomain.AccountCodeCash, accounts[0].Code)
	assert.Equal(t, "Payroll Expense", accounts[1].Name)
}

func TestPostExpenseRejectsNonPositiveAmount(t *testing.T) {
	_, svc := setupLedger(t)
	err := svc.PostExpense(context.Background(), ledgerdomain.ExpenseEntry{
		AccountID: 1, SourceID: 2, Amount: decimal.Zero, Date: time.Now(),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidLineAmount)
}

func TestCreateEntryRejectsUnbalancedLines(t *testing.T) {
	_, svc := setupLedger(t)
	err := svc.CreateEntry(context.Background(), ledgerdomain.CreateEntryRequest{
		AccountID:  1,
		SourceType: ledgerdomain.SourceTypeAdjustment,
		SourceID:   2,
		Currency:   "RWF",
		OccurredAt: time.Now(),
		Lines: []ledgerdomain.EntryLine{
			{Code: "cash", Direction: ledgerdomain.LedgerEntryDirectionDebit, Amount: decimal.NewFromInt(10)},
			{Code: "payroll_expense", Direction: ledgerdomain.LedgerEntryDirectionCredit, Amount: decimal.NewFromInt(9)},
		},
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrUnbalancedEntry)
}

func TestCreateEntryValidatesHeader(t *testing.T) {
	_, svc := setupLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.CreateEntry(ctx, ledgerdomain.CreateEntryRequest{}), ledgerdomain.ErrInvalidAccount)
	assert.ErrorIs(t, svc.CreateEntry(ctx, ledgerdomain.CreateEntryRequest{AccountID: 1}), ledgerdomain.ErrInvalidSourceType)
	assert.ErrorIs(t, svc.CreateEntry(ctx, ledgerdomain.CreateEntryRequest{
		AccountID: 1, SourceType: ledgerdomain.SourceTypeAdjustment, SourceID: 1, Currency: "RWF", OccurredAt: time.Now(),
	}), ledgerdomain.ErrInvalidEntryLines)
}
