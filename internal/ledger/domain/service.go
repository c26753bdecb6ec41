package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryLine is a posting against a ledger account code.
type EntryLine struct {
	Code      LedgerAccountCode
	Direction LedgerEntryDirection
	Amount    decimal.Decimal
}

type CreateEntryRequest struct {
	AccountID   snowflake.ID
	SourceType  LedgerSourceType
	SourceID    snowflake.ID
	Currency    string
	Description string
	OccurredAt  time.Time
	Lines       []EntryLine
}

// ExpenseEntry is a single expense paid out of cash.
type ExpenseEntry struct {
	AccountID   snowflake.ID
	SourceID    snowflake.ID
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

type Service interface {
	// CreateEntry is idempotent per (account, source type, source id).
	CreateEntry(ctx context.Context, req CreateEntryRequest) error
	PostExpense(ctx context.Context, entry ExpenseEntry) error
}

// ValidateBalanced checks that debits equal credits.
func ValidateBalanced(lines []EntryLine) error {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		switch line.Direction {
		case LedgerEntryDirectionDebit:
			debits = debits.Add(line.Amount)
		case LedgerEntryDirectionCredit:
			credits = credits.Add(line.Amount)
		default:
			return ErrInvalidLineDirection
		}
	}
	if !debits.Equal(credits) {
		return ErrUnbalancedEntry
	}
	return nil
}
