package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	"github.com/smallbiznis/dairypay/internal/clock"
	"github.com/smallbiznis/dairypay/internal/config"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	PayrollConfig *config.PayrollConfigHolder `optional:"true"`
	AuditSvc      auditdomain.Service         `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      *config.PayrollConfigHolder
	auditSvc auditdomain.Service
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.PayrollConfig,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) PostExpense(ctx context.Context, entry ledgerdomain.ExpenseEntry) error {
	if !entry.Amount.IsPositive() {
		return ledgerdomain.ErrInvalidLineAmount
	}
	cfg := s.cfg.Get()
	return s.CreateEntry(ctx, ledgerdomain.CreateEntryRequest{
		AccountID:   entry.AccountID,
		SourceType:  ledgerdomain.SourceTypePayrollPayslip,
		SourceID:    entry.SourceID,
		Currency:    cfg.Currency,
		Description: entry.Description,
		OccurredAt:  entry.Date,
		Lines: []ledgerdomain.EntryLine{
			{Code: ledgerdomain.LedgerAccountCode(cfg.ExpenseAccountCode), Direction: ledgerdomain.LedgerEntryDirectionDebit, Amount: entry.Amount},
			{Code: ledgerdomain.LedgerAccountCode(cfg.CashAccountCode), Direction: ledgerdomain.LedgerEntryDirectionCredit, Amount: entry.Amount},
		},
	})
}

func (s *Service) CreateEntry(ctx context.Context, req ledgerdomain.CreateEntryRequest) error {
	if req.AccountID == 0 {
		return ledgerdomain.ErrInvalidAccount
	}
	sourceType := ledgerdomain.LedgerSourceType(strings.TrimSpace(string(req.SourceType)))
	if sourceType == "" {
		return ledgerdomain.ErrInvalidSourceType
	}
	if req.SourceID == 0 {
		return ledgerdomain.ErrInvalidSourceID
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		return ledgerdomain.ErrInvalidCurrency
	}
	if req.OccurredAt.IsZero() {
		return ledgerdomain.ErrInvalidOccurredAt
	}
	if len(req.Lines) < 2 {
		return ledgerdomain.ErrInvalidEntryLines
	}

	normalized := make([]ledgerdomain.EntryLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		code := ledgerdomain.LedgerAccountCode(strings.TrimSpace(string(line.Code)))
		if code == "" {
			return ledgerdomain.ErrInvalidLedgerAccount
		}
		direction, err := normalizeDirection(line.Direction)
		if err != nil {
			return err
		}
		if line.Amount.IsNegative() {
			return ledgerdomain.ErrInvalidLineAmount
		}
		normalized = append(normalized, ledgerdomain.EntryLine{
			Code:      code,
			Direction: direction,
			Amount:    line.Amount.Round(2),
		})
	}
	if err := ledgerdomain.ValidateBalanced(normalized); err != nil {
		return err
	}

	var entryID snowflake.ID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entryID = s.genID.Generate()
		now := s.clock.Now().UTC()
		result := tx.Exec(
			`INSERT INTO ledger_entries (
				id, account_id, source_type, source_id, currency, description, occurred_at, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (account_id, source_type, source_id) DO NOTHING`,
			entryID,
			req.AccountID,
			string(sourceType),
			req.SourceID,
			currency,
			strings.TrimSpace(req.Description),
			req.OccurredAt.UTC(),
			now,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			entryID = 0
			return nil
		}

		for _, line := range normalized {
			ledgerAccountID, err := s.ensureLedgerAccount(ctx, tx, req.AccountID, line.Code)
			if err != nil {
				return err
			}
			if err := tx.Exec(
				`INSERT INTO ledger_entry_lines (
					id, ledger_entry_id, ledger_account_id, direction, amount, created_at
				) VALUES (?, ?, ?, ?, ?, ?)`,
				s.genID.Generate(),
				entryID,
				ledgerAccountID,
				string(line.Direction),
				line.Amount,
				now,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if entryID == 0 {
		s.log.Debug("ledger entry already recorded",
			zap.String("source_type", string(sourceType)),
			zap.String("source_id", req.SourceID.String()),
		)
		return nil
	}

	if s.auditSvc != nil {
		if err := s.auditSvc.Record(ctx, auditdomain.Entry{
			AccountID:  req.AccountID,
			Action:     "ledger.entry_created",
			TargetType: "ledger_entry",
			TargetID:   entryID.String(),
			Metadata: map[string]any{
				"source_type": string(sourceType),
				"source_id":   req.SourceID.String(),
			},
		}); err != nil {
			s.log.Warn("failed to write ledger audit log", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) ensureLedgerAccount(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, code ledgerdomain.LedgerAccountCode) (snowflake.ID, error) {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_accounts (id, account_id, code, name, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, code) DO NOTHING`,
		s.genID.Generate(),
		accountID,
		string(code),
		accountName(code),
		s.clock.Now().UTC(),
	).Error; err != nil {
		return 0, err
	}

	var row ledgerdomain.LedgerAccount
	if err := tx.WithContext(ctx).Raw(
		`SELECT id, account_id, code, name, created_at
		 FROM ledger_accounts
		 WHERE account_id = ? AND code = ?`,
		accountID,
		string(code),
	).Scan(&row).Error; err != nil {
		return 0, err
	}
	if row.ID == 0 {
		return 0, ledgerdomain.ErrInvalidLedgerAccount
	}
	return row.ID, nil
}

func accountName(code ledgerdomain.LedgerAccountCode) string {
	words := strings.Fields(strings.ReplaceAll(string(code), "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func normalizeDirection(direction ledgerdomain.LedgerEntryDirection) (ledgerdomain.LedgerEntryDirection, error) {
	switch strings.ToLower(strings.TrimSpace(string(direction))) {
	case string(ledgerdomain.LedgerEntryDirectionDebit):
		return ledgerdomain.LedgerEntryDirectionDebit, nil
	case string(ledgerdomain.LedgerEntryDirectionCredit):
		return ledgerdomain.LedgerEntryDirectionCredit, nil
	default:
		return "", ledgerdomain.ErrInvalidLineDirection
	}
}
