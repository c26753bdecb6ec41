package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) accountdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) accountdomain.Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, status, created_at, updated_at
		 FROM accounts
		 WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	out := make(map[snowflake.ID]accountdomain.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var accounts []accountdomain.Account
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, status, created_at, updated_at
		 FROM accounts
		 WHERE id IN ?`,
		ids,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		out[account.ID] = account
	}
	return out, nil
}

// FindByCodes returns matching accounts in the order the codes were given,
// ignoring blanks, duplicates and unknown codes.
func (r *repository) FindByCodes(ctx context.Context, codes []string) ([]accountdomain.Account, error) {
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var accounts []accountdomain.Account
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, status, created_at, updated_at
		 FROM accounts
		 WHERE code IN ?`,
		normalized,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]accountdomain.Account, len(accounts))
	for _, account := range accounts {
		byCode[account.Code] = account
	}
	ordered := make([]accountdomain.Account, 0, len(accounts))
	for _, code := range normalized {
		if account, ok := byCode[code]; ok {
			ordered = append(ordered, account)
		}
	}
	return ordered, nil
}
