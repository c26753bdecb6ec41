package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:payroll_repo_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	models := []any{&payrolldomain.PayrollSupplier{}, &payrolldomain.PayrollPayslip{}}
	require.NoError(t, db.Migrator().DropTable(models...))
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func enrollment(id snowflake.ID, terms int, active bool, at time.Time) *payrolldomain.PayrollSupplier {
	return &payrolldomain.PayrollSupplier{
		ID:                id,
		AccountID:         10,
		SupplierAccountID: 20,
		PaymentTermsDays:  terms,
		IsActive:          active,
		CreatedAt:         at,
		UpdatedAt:         at,
	}
}

func TestEnrollSupplierKeepsExistingTerms(t *testing.T) {
	db := setupDB(t, "enroll")
	repo := NewRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.EnrollSupplier(ctx, enrollment(1, 30, true, at))
	require.NoError(t, err)
	assert.Equal(t, 30, first.PaymentTermsDays)

	require.NoError(t, db.Exec(`UPDATE payroll_suppliers SET is_active = ? WHERE id = ?`, false, first.ID).Error)

	again, err := repo.EnrollSupplier(ctx, enrollment(2, 15, true, at.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 30, again.PaymentTermsDays)
	assert.True(t, again.IsActive)
}

func TestUpsertSupplierOverwritesTerms(t *testing.T) {
	db := setupDB(t, "upsert")
	repo := NewRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.UpsertSupplier(ctx, enrollment(1, 30, true, at))
	require.NoError(t, err)

	stored, err := repo.UpsertSupplier(ctx, enrollment(2, 7, true, at))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1), stored.ID)
	assert.Equal(t, 7, stored.PaymentTermsDays)
}

func TestSumNetAmount(t *testing.T) {
	db := setupDB(t, "sum")
	repo := NewRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	total, err := repo.SumNetAmount(ctx, snowflake.ID(500))
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for i, net := range []string{"1037.50", "572.50", "0.01"} {
		runID := snowflake.ID(500)
		if i == 2 {
			runID = 501
		}
		require.NoError(t, repo.CreatePayslip(ctx, &payrolldomain.PayrollPayslip{
			ID:                snowflake.ID(600 + i),
			RunID:             runID,
			SupplierAccountID: snowflake.ID(20 + i),
			GrossAmount:       decimal.RequireFromString(net),
			TotalDeductions:   decimal.Zero,
			NetAmount:         decimal.RequireFromString(net),
			PeriodStart:       at,
			PeriodEnd:         at,
			Status:            payrolldomain.PayslipStatusGenerated,
			CreatedAt:         at,
			UpdatedAt:         at,
		}))
	}

	total, err = repo.SumNetAmount(ctx, snowflake.ID(500))
	require.NoError(t, err)
	assert.Equal(t, "1610.00", total.StringFixed(2))
}
