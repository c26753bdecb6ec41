package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

const recentPayslipLimit = 10

// CreateSupplier enrolls a supplier account, re-activating an existing
// enrollment.
func (s *Service) CreateSupplier(ctx context.Context, req payrolldomain.CreateSupplierRequest) (*payrolldomain.SupplierView, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if req.SupplierAccountID == 0 {
		return nil, payrolldomain.ErrInvalidSupplier
	}
	terms, err := s.paymentTerms(req.PaymentTermsDays)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.FindByID(ctx, req.SupplierAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, payrolldomain.ErrSupplierAccountNotFound
	}

	now := s.clock.Now().UTC()
	stored, err := s.repo.UpsertSupplier(ctx, &payrolldomain.PayrollSupplier{
		ID:                s.genID.Generate(),
		AccountID:         req.AccountID,
		SupplierAccountID: account.ID,
		PaymentTermsDays:  terms,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, req.AccountID, req.ActorID, "payroll_supplier.enrolled", "payroll_supplier", stored.ID, map[string]any{
		"supplier_account_id": account.ID.String(),
		"payment_terms_days":  terms,
	})
	return s.GetSupplier(ctx, req.AccountID, stored.ID)
}

func (s *Service) ListSuppliers(ctx context.Context, accountID snowflake.ID) ([]payrolldomain.SupplierView, error) {
	if accountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	rows, err := s.repo.ListSupplierRows(ctx, accountID, true)
	if err != nil {
		return nil, err
	}
	views := make([]payrolldomain.SupplierView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toSupplierView(row))
	}
	return views, nil
}

// GetSupplier includes the supplier's most recent payslips under the account.
func (s *Service) GetSupplier(ctx context.Context, accountID, id snowflake.ID) (*payrolldomain.SupplierView, error) {
	if accountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if id == 0 {
		return nil, payrolldomain.ErrInvalidID
	}
	row, err := s.repo.FindSupplier(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, payrolldomain.ErrSupplierNotFound
	}

	recent, err := s.repo.ListRecentPayslips(ctx, accountID, row.SupplierAccountID, recentPayslipLimit)
	if err != nil {
		return nil, err
	}
	view := toSupplierView(*row)
	view.RecentPayslips = make([]payrolldomain.PayslipView, 0, len(recent))
	for _, payslip := range recent {
		view.RecentPayslips = append(view.RecentPayslips, toPayslipView(payslip, nil))
	}
	return &view, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, req payrolldomain.UpdateSupplierRequest) (*payrolldomain.SupplierView, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if req.ID == 0 {
		return nil, payrolldomain.ErrInvalidID
	}
	row, err := s.repo.FindSupplier(ctx, req.AccountID, req.ID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, payrolldomain.ErrSupplierNotFound
	}

	supplier := row.PayrollSupplier
	if req.PaymentTermsDays != nil {
		terms, err := s.paymentTerms(*req.PaymentTermsDays)
		if err != nil {
			return nil, err
		}
		supplier.PaymentTermsDays = terms
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	supplier.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateSupplier(ctx, &supplier); err != nil {
		return nil, err
	}

	s.audit(ctx, req.AccountID, req.ActorID, "payroll_supplier.updated", "payroll_supplier", supplier.ID, map[string]any{
		"payment_terms_days": supplier.PaymentTermsDays,
		"is_active":          supplier.IsActive,
	})
	return s.GetSupplier(ctx, req.AccountID, supplier.ID)
}

// DeactivateSupplier keeps the enrollment row so past payslips still link to it.
func (s *Service) DeactivateSupplier(ctx context.Context, accountID, id snowflake.ID, actorID string) error {
	inactive := false
	_, err := s.UpdateSupplier(ctx, payrolldomain.UpdateSupplierRequest{
		AccountID: accountID,
		ID:        id,
		IsActive:  &inactive,
		ActorID:   actorID,
	})
	return err
}

func toSupplierView(row payrolldomain.SupplierRow) payrolldomain.SupplierView {
	return payrolldomain.SupplierView{
		ID: row.ID.String(),
		Supplier: payrolldomain.SupplierAccount{
			ID:     row.SupplierAccountID.String(),
			Code:   row.SupplierCode,
			Name:   row.SupplierName,
			Type:   row.SupplierType,
			Status: row.SupplierStatus,
		},
		PaymentTermsDays: row.PaymentTermsDays,
		IsActive:         row.IsActive,
	}
}
