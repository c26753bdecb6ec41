package service

import (
	"context"
	"strings"

	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

// EnsureEnrolled returns the supplier set a run covers. Supplier codes are
// resolved against accounts. New suppliers are enrolled with the requested
// terms; existing enrollments keep their terms and are re-activated.
// Without codes the active enrollments are used.
func (s *Service) EnsureEnrolled(ctx context.Context, req payrolldomain.EnrollRequest) ([]payrolldomain.PayrollSupplier, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	terms, err := s.paymentTerms(req.PaymentTermsDays)
	if err != nil {
		return nil, err
	}

	codes := normalizeCodes(req.SupplierCodes)
	if len(codes) == 0 {
		return s.repo.ListActiveSuppliers(ctx, req.AccountID)
	}

	accounts, err := s.accountRepo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, payrolldomain.ErrNoSuppliersResolved
	}

	now := s.clock.Now().UTC()
	enrolled := make([]payrolldomain.PayrollSupplier, 0, len(accounts))
	for _, account := range accounts {
		stored, err := s.repo.EnrollSupplier(ctx, &payrolldomain.PayrollSupplier{
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
		enrolled = append(enrolled, *stored)
	}
	return enrolled, nil
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}
