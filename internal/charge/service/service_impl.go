package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	"github.com/smallbiznis/dairypay/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     chargedomain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     chargedomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) chargedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("charge.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req chargedomain.CreateRequest) (*chargedomain.Response, error) {
	if req.AccountID == 0 {
		return nil, chargedomain.ErrInvalidAccount
	}

	applyToAll := true
	if req.ApplyToAllSuppliers != nil {
		applyToAll = *req.ApplyToAllSuppliers
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.clock.Now().UTC()
	record := &chargedomain.Charge{
		ID:                  s.genID.Generate(),
		AccountID:           req.AccountID,
		Name:                req.Name,
		Description:         req.Description,
		Kind:                chargedomain.Kind(normalizeEnum(string(req.Kind))),
		AmountType:          chargedomain.AmountType(normalizeEnum(string(req.AmountType))),
		Amount:              req.Amount,
		Recurrence:          normalizeRecurrence(req.Recurrence),
		ApplyToAllSuppliers: applyToAll,
		EffectiveFrom:       req.EffectiveFrom,
		EffectiveTo:         req.EffectiveTo,
		IsActive:            isActive,
		CreatedBy:           optionalString(req.ActorID),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	record.Normalize()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, record); err != nil {
			return err
		}
		if !record.ApplyToAllSuppliers && len(req.SupplierAccountIDs) > 0 {
			return repo.InsertSuppliers(ctx, record.ID, req.SupplierAccountIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, record.AccountID, req.ActorID, "charge.created", record.ID, map[string]any{
		"name":        record.Name,
		"kind":        string(record.Kind),
		"amount_type": string(record.AmountType),
		"amount":      record.Amount.String(),
	})
	return s.Get(ctx, record.AccountID, record.ID)
}

func (s *Service) List(ctx context.Context, req chargedomain.ListRequest) ([]chargedomain.Response, error) {
	if req.AccountID == 0 {
		return nil, chargedomain.ErrInvalidAccount
	}

	items, err := s.repo.List(ctx, req.AccountID, req.ActiveOnly)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	suppliers, err := s.suppliersByCharge(ctx, s.repo, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]chargedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i], suppliers[items[i].ID]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, accountID, id snowflake.ID) (*chargedomain.Response, error) {
	if accountID == 0 {
		return nil, chargedomain.ErrInvalidAccount
	}
	if id == 0 {
		return nil, chargedomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, chargedomain.ErrNotFound
	}

	suppliers, err := s.suppliersByCharge(ctx, s.repo, []snowflake.ID{item.ID})
	if err != nil {
		return nil, err
	}
	resp := toResponse(item, suppliers[item.ID])
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req chargedomain.UpdateRequest) (*chargedomain.Response, error) {
	if req.AccountID == 0 {
		return nil, chargedomain.ErrInvalidAccount
	}
	if req.ID == 0 {
		return nil, chargedomain.ErrInvalidID
	}

	var updated *chargedomain.Charge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, req.AccountID, req.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return chargedomain.ErrNotFound
		}

		applyPatch(item, req)
		item.UpdatedAt = s.clock.Now().UTC()
		item.Normalize()
		if err := item.Validate(); err != nil {
			return err
		}
		if err := repo.Update(ctx, item); err != nil {
			return err
		}

		switch {
		case item.ApplyToAllSuppliers:
			if err := repo.DeleteSuppliers(ctx, item.ID); err != nil {
				return err
			}
		case req.SupplierAccountIDs != nil:
			if err := repo.DeleteSuppliers(ctx, item.ID); err != nil {
				return err
			}
			if err := repo.InsertSuppliers(ctx, item.ID, *req.SupplierAccountIDs); err != nil {
				return err
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, updated.AccountID, req.ActorID, "charge.updated", updated.ID, map[string]any{
		"is_active":              updated.IsActive,
		"apply_to_all_suppliers": updated.ApplyToAllSuppliers,
	})
	return s.Get(ctx, updated.AccountID, updated.ID)
}

// Delete removes the charge and its allow-list. Applications and payslip
// deductions already written are kept.
func (s *Service) Delete(ctx context.Context, req chargedomain.DeleteRequest) error {
	if req.AccountID == 0 {
		return chargedomain.ErrInvalidAccount
	}
	if req.ID == 0 {
		return chargedomain.ErrInvalidID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, req.AccountID, req.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return chargedomain.ErrNotFound
		}
		if err := repo.DeleteSuppliers(ctx, item.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, item.AccountID, item.ID)
	})
	if err != nil {
		return err
	}

	s.audit(ctx, req.AccountID, req.ActorID, "charge.deleted", req.ID, nil)
	return nil
}

func (s *Service) suppliersByCharge(ctx context.Context, repo chargedomain.Repository, ids []snowflake.ID) (map[snowflake.ID][]chargedomain.SupplierRef, error) {
	refs, err := repo.ListSuppliers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID][]chargedomain.SupplierRef, len(ids))
	for _, ref := range refs {
		out[ref.ChargeID] = append(out[ref.ChargeID], ref)
	}
	return out, nil
}

func (s *Service) audit(ctx context.Context, accountID snowflake.ID, actorID, action string, chargeID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, auditdomain.Entry{
		AccountID:  accountID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "charge",
		TargetID:   chargeID.String(),
		Metadata:   metadata,
	}); err != nil {
		s.log.Warn("failed to write charge audit log", zap.String("action", action), zap.Error(err))
	}
}

func applyPatch(item *chargedomain.Charge, req chargedomain.UpdateRequest) {
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Kind != nil {
		item.Kind = chargedomain.Kind(normalizeEnum(string(*req.Kind)))
	}
	if req.AmountType != nil {
		item.AmountType = chargedomain.AmountType(normalizeEnum(string(*req.AmountType)))
	}
	if req.Amount != nil {
		item.Amount = *req.Amount
	}
	if req.Recurrence != nil {
		item.Recurrence = normalizeRecurrence(req.Recurrence)
	}
	if req.ApplyToAllSuppliers != nil {
		item.ApplyToAllSuppliers = *req.ApplyToAllSuppliers
	}
	if req.ClearEffectiveFrom {
		item.EffectiveFrom = nil
	} else if req.EffectiveFrom != nil {
		item.EffectiveFrom = req.EffectiveFrom
	}
	if req.ClearEffectiveTo {
		item.EffectiveTo = nil
	} else if req.EffectiveTo != nil {
		item.EffectiveTo = req.EffectiveTo
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
}

func toResponse(c *chargedomain.Charge, suppliers []chargedomain.SupplierRef) chargedomain.Response {
	if suppliers == nil {
		suppliers = []chargedomain.SupplierRef{}
	}
	resp := chargedomain.Response{
		ID:                  c.ID.String(),
		AccountID:           c.AccountID.String(),
		Name:                c.Name,
		Description:         c.Description,
		Kind:                c.Kind,
		AmountType:          c.AmountType,
		Amount:              c.Amount,
		Recurrence:          c.Recurrence,
		ApplyToAllSuppliers: c.ApplyToAllSuppliers,
		IsActive:            c.IsActive,
		CreatedBy:           c.CreatedBy,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		SelectedSuppliers:   suppliers,
	}
	if c.EffectiveFrom != nil {
		v := c.EffectiveFrom.UTC().Format(dateLayout)
		resp.EffectiveFrom = &v
	}
	if c.EffectiveTo != nil {
		v := c.EffectiveTo.UTC().Format(dateLayout)
		resp.EffectiveTo = &v
	}
	return resp
}

func normalizeEnum(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeRecurrence(value *chargedomain.Recurrence) *chargedomain.Recurrence {
	if value == nil {
		return nil
	}
	normalized := chargedomain.Recurrence(normalizeEnum(string(*value)))
	if normalized == "" {
		return nil
	}
	return &normalized
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
