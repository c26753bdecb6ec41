package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) milksaledomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) milksaledomain.Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListAccepted returns accepted sales from supplier to customer inside the window, oldest first.
// Sales are never marked as consumed, so overlapping windows return the same rows again.
func (r *repository) ListAccepted(ctx context.Context, supplierAccountID, customerAccountID snowflake.ID, window milksaledomain.Window) ([]milksaledomain.MilkSale, error) {
	var sales []milksaledomain.MilkSale
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, supplier_account_id, customer_account_id, quantity, unit_price, sale_at, status, created_at
		 FROM milk_sales
		 WHERE supplier_account_id = ?
		   AND customer_account_id = ?
		   AND status = ?
		   AND sale_at >= ?
		   AND sale_at <= ?
		 ORDER BY sale_at ASC, id ASC`,
		supplierAccountID,
		customerAccountID,
		milksaledomain.StatusAccepted,
		window.From,
		window.To,
	).Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
