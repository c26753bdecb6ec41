package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

func (s *Service) CreatePeriod(ctx context.Context, req payrolldomain.CreatePeriodRequest) (*payrolldomain.PeriodView, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, payrolldomain.ErrInvalidName
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, payrolldomain.ErrInvalidPeriod
	}
	start := truncateDay(req.StartDate)
	end := truncateDay(req.EndDate)
	if end.Before(start) {
		return nil, payrolldomain.ErrInvalidPeriod
	}

	now := s.clock.Now().UTC()
	period := &payrolldomain.PayrollPeriod{
		ID:        s.genID.Generate(),
		AccountID: req.AccountID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    payrolldomain.PeriodStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePeriod(ctx, period); err != nil {
		return nil, err
	}

	view := toPeriodView(payrolldomain.PeriodRow{PayrollPeriod: *period})
	return &view, nil
}

func (s *Service) ListPeriods(ctx context.Context, accountID snowflake.ID) ([]payrolldomain.PeriodView, error) {
	if accountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	rows, err := s.repo.ListPeriods(ctx, accountID)
	if err != nil {
		return nil, err
	}
	views := make([]payrolldomain.PeriodView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toPeriodView(row))
	}
	return views, nil
}

func toPeriodView(row payrolldomain.PeriodRow) payrolldomain.PeriodView {
	return payrolldomain.PeriodView{
		ID:        row.ID.String(),
		Name:      row.Name,
		StartDate: formatDate(row.StartDate),
		EndDate:   formatDate(row.EndDate),
		Status:    row.Status,
		RunsCount: row.RunsCount,
	}
}
