package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierEnrollmentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	two, err := f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: supplierS2, PaymentTermsDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "A_S2", two.Supplier.Code)
	assert.Equal(t, 30, two.PaymentTermsDays)
	assert.True(t, two.IsActive)

	one, err := f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: supplierS1})
	require.NoError(t, err)
	assert.Equal(t, 15, one.PaymentTermsDays)

	list, err := f.svc.ListSuppliers(ctx, coopID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Supplier One", list[0].Supplier.Name)
	assert.Equal(t, "Supplier Two", list[1].Supplier.Name)

	terms := 45
	updated, err := f.svc.UpdateSupplier(ctx, payrolldomain.UpdateSupplierRequest{AccountID: coopID, ID: mustParse(t, two.ID), PaymentTermsDays: &terms})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.PaymentTermsDays)

	require.NoError(t, f.svc.DeactivateSupplier(ctx, coopID, mustParse(t, two.ID), "user-1"))
	list, err = f.svc.ListSuppliers(ctx, coopID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	again, err := f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: supplierS2})
	require.NoError(t, err)
	assert.Equal(t, two.ID, again.ID)
	assert.True(t, again.IsActive)
}

func TestSupplierErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: 999})
	assert.ErrorIs(t, err, payrolldomain.ErrSupplierAccountNotFound)

	_, err = f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: supplierS1, PaymentTermsDays: 200})
	assert.ErrorIs(t, err, payrolldomain.ErrInvalidPaymentTerms)

	created, err := f.svc.CreateSupplier(ctx, payrolldomain.CreateSupplierRequest{AccountID: coopID, SupplierAccountID: supplierS1})
	require.NoError(t, err)

	_, err = f.svc.GetSupplier(ctx, otherCoop, mustParse(t, created.ID))
	assert.ErrorIs(t, err, payrolldomain.ErrSupplierNotFound)

	assert.ErrorIs(t, f.svc.DeactivateSupplier(ctx, coopID, snowflake.ID(5), ""), payrolldomain.ErrSupplierNotFound)
}

func TestGetSupplierListsRecentPayslips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSale(t, supplierS1, day(2), "10", "100")
	f.generate(t, []string{"A_S1"}, day(1), day(15))
	f.generate(t, []string{"A_S1"}, day(1), day(15))

	enrolled, err := f.svc.ListSuppliers(ctx, coopID)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)

	detail, err := f.svc.GetSupplier(ctx, coopID, mustParse(t, enrolled[0].ID))
	require.NoError(t, err)
	assert.Len(t, detail.RecentPayslips, 2)
}

func TestCreatePeriodValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePeriod(ctx, payrolldomain.CreatePeriodRequest{AccountID: coopID, StartDate: day(1), EndDate: day(2)})
	assert.ErrorIs(t, err, payrolldomain.ErrInvalidName)

	_, err = f.svc.CreatePeriod(ctx, payrolldomain.CreatePeriodRequest{AccountID: coopID, Name: "Bad", StartDate: day(3), EndDate: day(2)})
	assert.ErrorIs(t, err, payrolldomain.ErrInvalidPeriod)

	period, err := f.svc.CreatePeriod(ctx, payrolldomain.CreatePeriodRequest{AccountID: coopID, Name: " January ", StartDate: day(1), EndDate: day(31)})
	require.NoError(t, err)
	assert.Equal(t, "January", period.Name)
	assert.Equal(t, payrolldomain.PeriodStatusDraft, period.Status)
	assert.Equal(t, "2025-01-31", period.EndDate)
}
