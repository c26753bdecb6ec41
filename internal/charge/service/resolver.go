package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	"github.com/smallbiznis/dairypay/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	Log  *zap.Logger
	Repo chargedomain.Repository
}

type Resolver struct {
	log  *zap.Logger
	repo chargedomain.Repository
}

func NewResolver(p ResolverParams) chargedomain.Resolver {
	return &Resolver{
		log:  p.Log.Named("charge.resolver"),
		repo: p.Repo,
	}
}

func (r *Resolver) WithTx(tx *gorm.DB) chargedomain.Resolver {
	return &Resolver{log: r.log, repo: r.repo.WithTx(tx)}
}

func (r *Resolver) Resolve(
	ctx context.Context,
	accountID, supplierID snowflake.ID,
	periodStart, periodEnd time.Time,
	gross decimal.Decimal,
) ([]chargedomain.ApplicableCharge, error) {
	if accountID == 0 {
		return nil, chargedomain.ErrInvalidAccount
	}
	if supplierID == 0 {
		return nil, chargedomain.ErrInvalidSupplier
	}
	if periodStart.IsZero() || periodEnd.IsZero() || periodEnd.Before(periodStart) {
		return nil, chargedomain.ErrInvalidPeriod
	}

	charges, err := r.repo.ListActiveOrdered(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(charges) == 0 {
		return []chargedomain.ApplicableCharge{}, nil
	}

	var restricted, oneTime []snowflake.ID
	for _, c := range charges {
		if !c.ApplyToAllSuppliers {
			restricted = append(restricted, c.ID)
		}
		if c.Kind == chargedomain.KindOneTime {
			oneTime = append(oneTime, c.ID)
		}
	}

	allowLists := make(map[snowflake.ID]map[snowflake.ID]struct{}, len(restricted))
	if len(restricted) > 0 {
		refs, err := r.repo.ListSuppliers(ctx, restricted)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if allowLists[ref.ChargeID] == nil {
				allowLists[ref.ChargeID] = make(map[snowflake.ID]struct{})
			}
			allowLists[ref.ChargeID][ref.ID] = struct{}{}
		}
	}

	applied, err := r.repo.AppliedChargeIDs(ctx, supplierID, oneTime)
	if err != nil {
		return nil, err
	}

	return chargedomain.SelectApplicable(charges, allowLists, applied, supplierID, periodStart, periodEnd, gross), nil
}

// RecordApplication consumes a one-time charge for a supplier. A second
// attempt for the same pair fails with ErrAlreadyApplied.
func (r *Resolver) RecordApplication(ctx context.Context, app chargedomain.ChargeApplication) error {
	if app.ID == 0 || app.ChargeID == 0 || app.PayslipID == 0 {
		return chargedomain.ErrInvalidID
	}
	if app.SupplierAccountID == 0 {
		return chargedomain.ErrInvalidSupplier
	}
	if err := r.repo.CreateApplication(ctx, &app); err != nil {
		if db.IsDuplicateKeyErr(err) {
			r.log.Warn("one-time charge already applied",
				zap.String("charge_id", app.ChargeID.String()),
				zap.String("supplier_account_id", app.SupplierAccountID.String()),
			)
			return chargedomain.ErrAlreadyApplied
		}
		return err
	}
	return nil
}
