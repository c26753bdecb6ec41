package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	"gorm.io/gorm"
)

const chargeColumns = `id, account_id, name, description, kind, amount_type, amount, recurrence,
	apply_to_all_suppliers, effective_from, effective_to, is_active, created_by, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) chargedomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) chargedomain.Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, c *chargedomain.Charge) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO charges (`+chargeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.AccountID,
		c.Name,
		c.Description,
		c.Kind,
		c.AmountType,
		c.Amount,
		c.Recurrence,
		c.ApplyToAllSuppliers,
		c.EffectiveFrom,
		c.EffectiveTo,
		c.IsActive,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, c *chargedomain.Charge) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE charges
		 SET name = ?, description = ?, kind = ?, amount_type = ?, amount = ?, recurrence = ?,
		     apply_to_all_suppliers = ?, effective_from = ?, effective_to = ?, is_active = ?, updated_at = ?
		 WHERE account_id = ? AND id = ?`,
		c.Name,
		c.Description,
		c.Kind,
		c.AmountType,
		c.Amount,
		c.Recurrence,
		c.ApplyToAllSuppliers,
		c.EffectiveFrom,
		c.EffectiveTo,
		c.IsActive,
		c.UpdatedAt,
		c.AccountID,
		c.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, accountID, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM charges WHERE account_id = ? AND id = ?`,
		accountID,
		id,
	).Error
}

func (r *repository) FindByID(ctx context.Context, accountID, id snowflake.ID) (*chargedomain.Charge, error) {
	var charge chargedomain.Charge
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+chargeColumns+`
		 FROM charges
		 WHERE account_id = ? AND id = ?`,
		accountID,
		id,
	).Scan(&charge).Error
	if err != nil {
		return nil, err
	}
	if charge.ID == 0 {
		return nil, nil
	}
	return &charge, nil
}

func (r *repository) List(ctx context.Context, accountID snowflake.ID, activeOnly bool) ([]chargedomain.Charge, error) {
	var items []chargedomain.Charge
	stmt := r.db.WithContext(ctx).
		Model(&chargedomain.Charge{}).
		Where("account_id = ?", accountID)
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListActiveOrdered(ctx context.Context, accountID snowflake.ID) ([]chargedomain.Charge, error) {
	var items []chargedomain.Charge
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+chargeColumns+`
		 FROM charges
		 WHERE account_id = ? AND is_active = ?
		 ORDER BY created_at ASC, id ASC`,
		accountID,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// InsertSuppliers adds allow-list rows, skipping pairs that already exist.
func (r *repository) InsertSuppliers(ctx context.Context, chargeID snowflake.ID, supplierIDs []snowflake.ID) error {
	seen := make(map[snowflake.ID]struct{}, len(supplierIDs))
	for _, supplierID := range supplierIDs {
		if supplierID == 0 {
			continue
		}
		if _, ok := seen[supplierID]; ok {
			continue
		}
		seen[supplierID] = struct{}{}
		if err := r.db.WithContext(ctx).Exec(
			`INSERT INTO charge_suppliers (charge_id, supplier_account_id, created_at)
			 VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (charge_id, supplier_account_id) DO NOTHING`,
			chargeID,
			supplierID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteSuppliers(ctx context.Context, chargeID snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM charge_suppliers WHERE charge_id = ?`,
		chargeID,
	).Error
}

// ListSuppliers resolves allow-list entries against accounts. Entries whose
// account is gone are still returned, with empty code and name.
func (r *repository) ListSuppliers(ctx context.Context, chargeIDs []snowflake.ID) ([]chargedomain.SupplierRef, error) {
	if len(chargeIDs) == 0 {
		return nil, nil
	}
	var refs []chargedomain.SupplierRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT cs.charge_id AS charge_id,
		        cs.supplier_account_id AS id,
		        COALESCE(a.code, '') AS code,
		        COALESCE(a.name, '') AS name
		 FROM charge_suppliers cs
		 LEFT JOIN accounts a ON a.id = cs.supplier_account_id
		 WHERE cs.charge_id IN ?
		 ORDER BY cs.charge_id ASC, cs.supplier_account_id ASC`,
		chargeIDs,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repository) AppliedChargeIDs(ctx context.Context, supplierID snowflake.ID, chargeIDs []snowflake.ID) (map[snowflake.ID]struct{}, error) {
	out := make(map[snowflake.ID]struct{})
	if len(chargeIDs) == 0 {
		return out, nil
	}
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT charge_id
		 FROM charge_applications
		 WHERE supplier_account_id = ? AND charge_id IN ?`,
		supplierID,
		chargeIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *repository) CreateApplication(ctx context.Context, app *chargedomain.ChargeApplication) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO charge_applications (id, charge_id, supplier_account_id, payslip_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		app.ID,
		app.ChargeID,
		app.SupplierAccountID,
		app.PayslipID,
		app.Amount,
		app.CreatedAt,
	).Error
}
