package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	"github.com/smallbiznis/dairypay/internal/clock"
	"github.com/smallbiznis/dairypay/internal/config"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	"github.com/smallbiznis/dairypay/internal/observability/metrics"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/smallbiznis/dairypay/internal/providers/excel"
	"github.com/smallbiznis/dairypay/internal/providers/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          payrolldomain.Repository
	AccountRepo   accountdomain.Repository
	MilkSaleRepo  milksaledomain.Repository
	Resolver      chargedomain.Resolver
	LedgerSvc     ledgerdomain.Service
	PDF           pdf.Provider
	Excel         excel.Provider
	PayrollConfig *config.PayrollConfigHolder `optional:"true"`
	AuditSvc      auditdomain.Service         `optional:"true"`
	Metrics       *metrics.Metrics            `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        payrolldomain.Repository
	accountRepo accountdomain.Repository
	salesRepo   milksaledomain.Repository
	resolver    chargedomain.Resolver
	ledgerSvc   ledgerdomain.Service
	pdf         pdf.Provider
	excel       excel.Provider
	cfg         *config.PayrollConfigHolder
	auditSvc    auditdomain.Service
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func NewService(p Params) payrolldomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payroll.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		salesRepo:   p.MilkSaleRepo,
		resolver:    p.Resolver,
		ledgerSvc:   p.LedgerSvc,
		pdf:         p.PDF,
		excel:       p.Excel,
		cfg:         p.PayrollConfig,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
		tracer:      otel.Tracer("dairypay/payroll"),
	}
}

// paymentTerms applies the configured default and bounds.
func (s *Service) paymentTerms(days int) (int, error) {
	cfg := s.cfg.Get()
	if days == 0 {
		return cfg.DefaultPaymentTermsDays, nil
	}
	if days < cfg.MinPaymentTermsDays || days > cfg.MaxPaymentTermsDays {
		return 0, payrolldomain.ErrInvalidPaymentTerms
	}
	return days, nil
}

func (s *Service) audit(ctx context.Context, accountID snowflake.ID, actorID, action, targetType string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, auditdomain.Entry{
		AccountID:  accountID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID.String(),
		Metadata:   metadata,
	}); err != nil {
		s.log.Warn("failed to write payroll audit log", zap.String("action", action), zap.Error(err))
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalID(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
