package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validate checks a charge definition after defaults and merges are applied.
func (c *Charge) Validate() error {
	if c.AccountID == 0 {
		return ErrInvalidAccount
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	switch c.Kind {
	case KindOneTime, KindRecurring:
	default:
		return ErrInvalidKind
	}
	switch c.AmountType {
	case AmountTypeFixed, AmountTypePercentage:
	default:
		return ErrInvalidAmountType
	}
	if c.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if c.AmountType == AmountTypePercentage && c.Amount.GreaterThan(hundred) {
		return ErrInvalidPercentage
	}
	if c.Kind == KindRecurring {
		if c.Recurrence == nil {
			return ErrInvalidRecurrence
		}
		switch *c.Recurrence {
		case RecurrenceMonthly, RecurrencePerPayroll:
		default:
			return ErrInvalidRecurrence
		}
	}
	if c.EffectiveFrom != nil && c.EffectiveTo != nil && dateOf(*c.EffectiveTo).Before(dateOf(*c.EffectiveFrom)) {
		return ErrInvalidEffectiveWindow
	}
	return nil
}

// Normalize trims text fields, truncates dates and drops the recurrence of one-time charges.
func (c *Charge) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Description != nil {
		desc := strings.TrimSpace(*c.Description)
		if desc == "" {
			c.Description = nil
		} else {
			c.Description = &desc
		}
	}
	if c.Kind == KindOneTime {
		c.Recurrence = nil
	}
	if c.EffectiveFrom != nil {
		d := dateOf(*c.EffectiveFrom)
		c.EffectiveFrom = &d
	}
	if c.EffectiveTo != nil {
		d := dateOf(*c.EffectiveTo)
		c.EffectiveTo = &d
	}
}

// OverlapsPeriod reports whether the effective window intersects [start, end]
// at date granularity. A nil bound is open.
func (c *Charge) OverlapsPeriod(start, end time.Time) bool {
	if c.EffectiveFrom != nil && dateOf(*c.EffectiveFrom).After(dateOf(end)) {
		return false
	}
	if c.EffectiveTo != nil && dateOf(*c.EffectiveTo).Before(dateOf(start)) {
		return false
	}
	return true
}

// AppliesTo reports whether supplierID is in scope given the charge's allow-list.
func (c *Charge) AppliesTo(supplierID snowflake.ID, allowList map[snowflake.ID]struct{}) bool {
	if c.ApplyToAllSuppliers {
		return true
	}
	_, ok := allowList[supplierID]
	return ok
}

// ComputeAmount returns the deduction for gross: the literal amount for fixed
// charges, gross × pct / 100 rounded half-up to 2 places for percentages.
func (c *Charge) ComputeAmount(gross decimal.Decimal) decimal.Decimal {
	switch c.AmountType {
	case AmountTypeFixed:
		return c.Amount.Round(2)
	case AmountTypePercentage:
		return gross.Mul(c.Amount).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}
}

// SelectApplicable filters charges (already in creation order) for one supplier
// and computes their amounts. applied holds one-time charges the supplier
// already consumed.
func SelectApplicable(
	charges []Charge,
	allowLists map[snowflake.ID]map[snowflake.ID]struct{},
	applied map[snowflake.ID]struct{},
	supplierID snowflake.ID,
	periodStart, periodEnd time.Time,
	gross decimal.Decimal,
) []ApplicableCharge {
	out := make([]ApplicableCharge, 0, len(charges))
	for i := range charges {
		c := &charges[i]
		if !c.IsActive || !c.OverlapsPeriod(periodStart, periodEnd) {
			continue
		}
		if !c.AppliesTo(supplierID, allowLists[c.ID]) {
			continue
		}
		if c.Kind == KindOneTime {
			if _, done := applied[c.ID]; done {
				continue
			}
		}
		amount := c.ComputeAmount(gross)
		if !amount.IsPositive() {
			continue
		}
		out = append(out, ApplicableCharge{
			ChargeID: c.ID,
			Name:     c.Name,
			Amount:   amount,
			Kind:     c.Kind,
		})
	}
	return out
}

// Total sums resolved amounts.
func Total(charges []ApplicableCharge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.Amount)
	}
	return total
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
