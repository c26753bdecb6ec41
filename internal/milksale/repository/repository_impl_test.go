package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListAcceptedFiltersWindowStatusAndCustomer(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:milksale_repo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&milksaledomain.MilkSale{}))

	day := func(d, h int) time.Time { return time.Date(2025, 1, d, h, 0, 0, 0, time.UTC) }
	qty := decimal.NewFromInt(10)
	price := decimal.NewFromInt(400)
	require.NoError(t, db.Create(&[]milksaledomain.MilkSale{
		{ID: 1, SupplierAccountID: 10, CustomerAccountID: 20, Quantity: qty, UnitPrice: price, SaleAt: day(5, 12), Status: "accepted"},
		{ID: 2, SupplierAccountID: 10, CustomerAccountID: 20, Quantity: qty, UnitPrice: price, SaleAt: day(1, 12), Status: "accepted"},
		{ID: 3, SupplierAccountID: 10, CustomerAccountID: 20, Quantity: qty, UnitPrice: price, SaleAt: day(6, 12), Status: "rejected"},
		{ID: 4, SupplierAccountID: 10, CustomerAccountID: 21, Quantity: qty, UnitPrice: price, SaleAt: day(6, 12), Status: "accepted"},
		{ID: 5, SupplierAccountID: 10, CustomerAccountID: 20, Quantity: qty, UnitPrice: price, SaleAt: day(20, 12), Status: "accepted"},
	}).Error)

	repo := NewRepository(db)
	sales, err := repo.ListAccepted(context.Background(), 10, 20, milksaledomain.DayWindow(day(1, 0), day(15, 0)))
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.EqualValues(t, 2, sales[0].ID)
	assert.EqualValues(t, 1, sales[1].ID)
	assert.Equal(t, "8000.00", milksaledomain.Sum(sales).StringFixed(2))
}
