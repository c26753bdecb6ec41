package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
)

type createChargeRequest struct {
	AccountID           string          `json:"account_id"`
	Name                string          `json:"name"`
	Description         *string         `json:"description"`
	Kind                string          `json:"kind"`
	AmountType          string          `json:"amount_type"`
	Amount              decimal.Decimal `json:"amount"`
	Recurrence          *string         `json:"recurrence"`
	ApplyToAllSuppliers flexibleBool    `json:"apply_to_all_suppliers"`
	SupplierAccountIDs  []string        `json:"supplier_account_ids"`
	EffectiveFrom       string          `json:"effective_from"`
	EffectiveTo         string          `json:"effective_to"`
	IsActive            flexibleBool    `json:"is_active"`
}

func (s *Server) CreateCharge(c *gin.Context) {
	var req createChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	supplierIDs, err := parseSnowflakeIDs(req.SupplierAccountIDs)
	if err != nil {
		AbortWithError(c, newValidationError("supplier_account_ids", "invalid_supplier_account_ids", "invalid supplier_account_ids"))
		return
	}
	effectiveFrom, err := parseDate(req.EffectiveFrom)
	if err != nil {
		AbortWithError(c, newValidationError("effective_from", "invalid_effective_from", "invalid effective_from"))
		return
	}
	effectiveTo, err := parseDate(req.EffectiveTo)
	if err != nil {
		AbortWithError(c, newValidationError("effective_to", "invalid_effective_to", "invalid effective_to"))
		return
	}

	resp, err := s.chargeSvc.Create(c.Request.Context(), chargedomain.CreateRequest{
		AccountID:           accountID,
		ActorID:             actorID(c),
		Name:                strings.TrimSpace(req.Name),
		Description:         req.Description,
		Kind:                chargedomain.Kind(strings.TrimSpace(req.Kind)),
		AmountType:          chargedomain.AmountType(strings.TrimSpace(req.AmountType)),
		Amount:              req.Amount,
		Recurrence:          recurrencePtr(req.Recurrence),
		ApplyToAllSuppliers: req.ApplyToAllSuppliers.ptr(),
		EffectiveFrom:       effectiveFrom,
		EffectiveTo:         effectiveTo,
		IsActive:            req.IsActive.ptr(),
		SupplierAccountIDs:  supplierIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type listChargesRequest struct {
	AccountID  string       `json:"account_id"`
	ActiveOnly flexibleBool `json:"active_only"`
}

func (s *Server) ListCharges(c *gin.Context) {
	var req listChargesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.chargeSvc.List(c.Request.Context(), chargedomain.ListRequest{
		AccountID:  accountID,
		ActiveOnly: req.ActiveOnly.Value,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCharge(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.chargeSvc.Get(c.Request.Context(), accountID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateChargeRequest struct {
	AccountID           string           `json:"account_id"`
	Name                *string          `json:"name"`
	Description         *string          `json:"description"`
	Kind                *string          `json:"kind"`
	AmountType          *string          `json:"amount_type"`
	Amount              *decimal.Decimal `json:"amount"`
	Recurrence          *string          `json:"recurrence"`
	ApplyToAllSuppliers flexibleBool     `json:"apply_to_all_suppliers"`
	SupplierAccountIDs  *[]string        `json:"supplier_account_ids"`
	EffectiveFrom       nullableDate     `json:"effective_from"`
	EffectiveTo         nullableDate     `json:"effective_to"`
	IsActive            flexibleBool     `json:"is_active"`
}

func (s *Server) UpdateCharge(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	update := chargedomain.UpdateRequest{
		AccountID:           accountID,
		ID:                  id,
		ActorID:             actorID(c),
		Name:                trimmedPtr(req.Name),
		Description:         req.Description,
		Amount:              req.Amount,
		Recurrence:          recurrencePtr(req.Recurrence),
		ApplyToAllSuppliers: req.ApplyToAllSuppliers.ptr(),
		IsActive:            req.IsActive.ptr(),
	}
	if req.Kind != nil {
		kind := chargedomain.Kind(strings.TrimSpace(*req.Kind))
		update.Kind = &kind
	}
	if req.AmountType != nil {
		amountType := chargedomain.AmountType(strings.TrimSpace(*req.AmountType))
		update.AmountType = &amountType
	}
	if req.SupplierAccountIDs != nil {
		ids, err := parseSnowflakeIDs(*req.SupplierAccountIDs)
		if err != nil {
			AbortWithError(c, newValidationError("supplier_account_ids", "invalid_supplier_account_ids", "invalid supplier_account_ids"))
			return
		}
		update.SupplierAccountIDs = &ids
	}
	if req.EffectiveFrom.Set {
		from, err := parseDate(req.EffectiveFrom.Value)
		if err != nil {
			AbortWithError(c, newValidationError("effective_from", "invalid_effective_from", "invalid effective_from"))
			return
		}
		update.EffectiveFrom = from
		update.ClearEffectiveFrom = from == nil
	}
	if req.EffectiveTo.Set {
		to, err := parseDate(req.EffectiveTo.Value)
		if err != nil {
			AbortWithError(c, newValidationError("effective_to", "invalid_effective_to", "invalid effective_to"))
			return
		}
		update.EffectiveTo = to
		update.ClearEffectiveTo = to == nil
	}

	resp, err := s.chargeSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCharge(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.chargeSvc.Delete(c.Request.Context(), chargedomain.DeleteRequest{
		AccountID: accountID,
		ID:        id,
		ActorID:   actorID(c),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Charge deleted successfully"})
}

type applicableChargesRequest struct {
	AccountID         string          `json:"account_id"`
	SupplierAccountID string          `json:"supplier_account_id"`
	PeriodStart       string          `json:"period_start"`
	PeriodEnd         string          `json:"period_end"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
}

// PreviewApplicableCharges runs the resolver without recording anything.
func (s *Server) PreviewApplicableCharges(c *gin.Context) {
	var req applicableChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	supplierID, err := parseOptionalSnowflakeID(req.SupplierAccountID)
	if err != nil || supplierID == nil {
		AbortWithError(c, newValidationError("supplier_account_id", "invalid_supplier_account_id", "invalid supplier_account_id"))
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil || periodStart == nil {
		AbortWithError(c, newValidationError("period_start", "invalid_period_start", "invalid period_start"))
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil || periodEnd == nil {
		AbortWithError(c, newValidationError("period_end", "invalid_period_end", "invalid period_end"))
		return
	}

	charges, err := s.resolver.Resolve(c.Request.Context(), accountID, *supplierID, *periodStart, *periodEnd, req.GrossAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	total := decimal.Zero
	for _, charge := range charges {
		total = total.Add(charge.Amount)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"charges":          charges,
		"total_deductions": total,
	}})
}

func recurrencePtr(value *string) *chargedomain.Recurrence {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	recurrence := chargedomain.Recurrence(trimmed)
	return &recurrence
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
