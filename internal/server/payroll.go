package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

type generatePayrollRequest struct {
	AccountID            string   `json:"account_id"`
	SupplierAccountCodes []string `json:"supplier_account_codes"`
	PeriodStart          string   `json:"period_start"`
	PeriodEnd            string   `json:"period_end"`
	PaymentTermsDays     int      `json:"payment_terms_days"`
	RunName              string   `json:"run_name"`
	PeriodID             string   `json:"period_id"`
}

func (s *Server) GeneratePayroll(c *gin.Context) {
	var req generatePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
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
	periodID, err := parseOptionalSnowflakeID(req.PeriodID)
	if err != nil {
		AbortWithError(c, newValidationError("period_id", "invalid_period_id", "invalid period_id"))
		return
	}

	resp, err := s.payrollSvc.Generate(c.Request.Context(), payrolldomain.GenerateRequest{
		AccountID:        accountID,
		SupplierCodes:    req.SupplierAccountCodes,
		PeriodStart:      *periodStart,
		PeriodEnd:        *periodEnd,
		PaymentTermsDays: req.PaymentTermsDays,
		RunName:          strings.TrimSpace(req.RunName),
		PeriodID:         periodID,
		CreatedBy:        actorID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayrollRuns(c *gin.Context) {
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	periodID, err := parseOptionalSnowflakeID(c.Query("period_id"))
	if err != nil {
		AbortWithError(c, newValidationError("period_id", "invalid_period_id", "invalid period_id"))
		return
	}

	resp, err := s.payrollSvc.ListRuns(c.Request.Context(), payrolldomain.ListRunsRequest{
		AccountID: accountID,
		PeriodID:  periodID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayrollRun(c *gin.Context) {
	runID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payrollSvc.GetRun(c.Request.Context(), accountID, runID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type markPaidRequest struct {
	AccountID   string `json:"account_id"`
	PayslipID   string `json:"payslip_id"`
	PaymentDate string `json:"payment_date"`
	PaidBy      string `json:"paid_by"`
}

func (s *Server) MarkPayrollPaid(c *gin.Context) {
	runID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req markPaidRequest
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
	payslipID, err := parseOptionalSnowflakeID(req.PayslipID)
	if err != nil {
		AbortWithError(c, newValidationError("payslip_id", "invalid_payslip_id", "invalid payslip_id"))
		return
	}
	paymentDate, err := parseOptionalTime(req.PaymentDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
		return
	}
	paidBy := strings.TrimSpace(req.PaidBy)
	if paidBy == "" {
		paidBy = actorID(c)
	}

	resp, err := s.payrollSvc.MarkPaid(c.Request.Context(), payrolldomain.MarkPaidRequest{
		AccountID:   accountID,
		RunID:       runID,
		PayslipID:   payslipID,
		PaymentDate: paymentDate,
		PaidBy:      paidBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportPayrollRun(c *gin.Context) {
	runID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payslipID, err := parseOptionalSnowflakeID(c.Query("payslip_id"))
	if err != nil {
		AbortWithError(c, newValidationError("payslip_id", "invalid_payslip_id", "invalid payslip_id"))
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" {
		format = string(payrolldomain.ExportFormatPDF)
	}

	file, err := s.payrollSvc.ExportRun(c.Request.Context(), payrolldomain.ExportRequest{
		AccountID: accountID,
		RunID:     runID,
		PayslipID: payslipID,
		Format:    payrolldomain.ExportFormat(format),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

type createPeriodRequest struct {
	AccountID  string `json:"account_id"`
	PeriodName string `json:"period_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (s *Server) CreatePayrollPeriod(c *gin.Context) {
	var req createPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil || startDate == nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil || endDate == nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.payrollSvc.CreatePeriod(c.Request.Context(), payrolldomain.CreatePeriodRequest{
		AccountID: accountID,
		Name:      req.PeriodName,
		StartDate: *startDate,
		EndDate:   *endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayrollPeriods(c *gin.Context) {
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payrollSvc.ListPeriods(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createPayrollSupplierRequest struct {
	AccountID         string `json:"account_id"`
	SupplierAccountID string `json:"supplier_account_id"`
	PaymentTermsDays  int    `json:"payment_terms_days"`
}

func (s *Server) CreatePayrollSupplier(c *gin.Context) {
	var req createPayrollSupplierRequest
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

	resp, err := s.payrollSvc.CreateSupplier(c.Request.Context(), payrolldomain.CreateSupplierRequest{
		AccountID:         accountID,
		SupplierAccountID: *supplierID,
		PaymentTermsDays:  req.PaymentTermsDays,
		ActorID:           actorID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayrollSuppliers(c *gin.Context) {
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payrollSvc.ListSuppliers(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayrollSupplier(c *gin.Context) {
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

	resp, err := s.payrollSvc.GetSupplier(c.Request.Context(), accountID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePayrollSupplierRequest struct {
	AccountID        string       `json:"account_id"`
	PaymentTermsDays *int         `json:"payment_terms_days"`
	IsActive         flexibleBool `json:"is_active"`
}

func (s *Server) UpdatePayrollSupplier(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updatePayrollSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := resolveAccountID(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payrollSvc.UpdateSupplier(c.Request.Context(), payrolldomain.UpdateSupplierRequest{
		AccountID:        accountID,
		ID:               id,
		PaymentTermsDays: req.PaymentTermsDays,
		IsActive:         req.IsActive.ptr(),
		ActorID:          actorID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivatePayrollSupplier(c *gin.Context) {
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

	if err := s.payrollSvc.DeactivateSupplier(c.Request.Context(), accountID, id, actorID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Supplier deactivated successfully"})
}

func (s *Server) GetPayrollReport(c *gin.Context) {
	accountID, err := resolveAccountID(c, c.Query("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	periodID, err := parseOptionalSnowflakeID(c.Query("period_id"))
	if err != nil {
		AbortWithError(c, newValidationError("period_id", "invalid_period_id", "invalid period_id"))
		return
	}

	resp, err := s.payrollSvc.Report(c.Request.Context(), payrolldomain.ReportRequest{
		AccountID: accountID,
		PeriodID:  periodID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
