package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePayrollService embeds the interface so tests only implement the
// methods they exercise.
type fakePayrollService struct {
	payrolldomain.Service

	generateReq payrolldomain.GenerateRequest
	markPaidReq payrolldomain.MarkPaidRequest
	exportReq   payrolldomain.ExportRequest
	err         error
}

func (f *fakePayrollService) Generate(ctx context.Context, req payrolldomain.GenerateRequest) (*payrolldomain.GenerateResult, error) {
	f.generateReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &payrolldomain.GenerateResult{
		RunID:       "9001",
		Status:      payrolldomain.RunStatusCompleted,
		PeriodStart: req.PeriodStart.Format(dateOnlyLayout),
		PeriodEnd:   req.PeriodEnd.Format(dateOnlyLayout),
		TotalAmount: decimal.RequireFromString("46495"),
	}, nil
}

func (f *fakePayrollService) MarkPaid(ctx context.Context, req payrolldomain.MarkPaidRequest) (*payrolldomain.MarkPaidResult, error) {
	f.markPaidReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &payrolldomain.MarkPaidResult{PaidCount: 1, TotalPaid: decimal.NewFromInt(100)}, nil
}

func (f *fakePayrollService) ExportRun(ctx context.Context, req payrolldomain.ExportRequest) (*payrolldomain.ExportFile, error) {
	f.exportReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &payrolldomain.ExportFile{
		Filename:    "payroll-9001.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}, nil
}

type fakeChargeService struct {
	chargedomain.Service

	createReq chargedomain.CreateRequest
	updateReq chargedomain.UpdateRequest
	listReq   chargedomain.ListRequest
	err       error
}

func (f *fakeChargeService) Create(ctx context.Context, req chargedomain.CreateRequest) (*chargedomain.Response, error) {
	f.createReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &chargedomain.Response{ID: "1", Name: req.Name, Kind: req.Kind}, nil
}

func (f *fakeChargeService) List(ctx context.Context, req chargedomain.ListRequest) ([]chargedomain.Response, error) {
	f.listReq = req
	return []chargedomain.Response{}, f.err
}

func (f *fakeChargeService) Update(ctx context.Context, req chargedomain.UpdateRequest) (*chargedomain.Response, error) {
	f.updateReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &chargedomain.Response{ID: req.ID.String()}, nil
}

type fakeResolver struct {
	chargedomain.Resolver

	supplierID snowflake.ID
	gross      decimal.Decimal
}

func (f *fakeResolver) Resolve(ctx context.Context, accountID, supplierID snowflake.ID, periodStart, periodEnd time.Time, gross decimal.Decimal) ([]chargedomain.ApplicableCharge, error) {
	f.supplierID = supplierID
	f.gross = gross
	return []chargedomain.ApplicableCharge{
		{ChargeID: 1, Name: "Cooperative fee", Amount: decimal.NewFromInt(500), Kind: chargedomain.KindRecurring},
		{ChargeID: 2, Name: "Insurance", Amount: decimal.NewFromInt(400), Kind: chargedomain.KindRecurring},
	}, nil
}

type testServer struct {
	server   *Server
	payroll  *fakePayrollService
	charges  *fakeChargeService
	resolver *fakeResolver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		payroll:  &fakePayrollService{},
		charges:  &fakeChargeService{},
		resolver: &fakeResolver{},
	}
	ts.server = NewServer(ServerParams{
		Gin:        NewEngine(nil),
		Log:        zap.NewNop(),
		ChargeSvc:  ts.charges,
		Resolver:   ts.resolver,
		PayrollSvc: ts.payroll,
	})
	return ts
}

func (ts *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

var coopHeaders = map[string]string{HeaderAccountID: "100", HeaderUserID: "user-7"}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGeneratePayrollBindsRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/payroll/runs/generate", gin.H{
		"supplier_account_codes": []string{"A_S1", "A_S2"},
		"period_start":           "2025-01-01",
		"period_end":             "2025-01-15",
		"payment_terms_days":     15,
		"run_name":               "  January A  ",
	}, coopHeaders)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := ts.payroll.generateReq
	assert.Equal(t, snowflake.ID(100), req.AccountID)
	assert.Equal(t, []string{"A_S1", "A_S2"}, req.SupplierCodes)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), req.PeriodStart)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), req.PeriodEnd)
	assert.Equal(t, 15, req.PaymentTermsDays)
	assert.Equal(t, "January A", req.RunName)
	assert.Equal(t, "user-7", req.CreatedBy)
	assert.Nil(t, req.PeriodID)

	var resp struct {
		Data payrolldomain.GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "9001", resp.Data.RunID)
	assert.Equal(t, "46495.00", resp.Data.TotalAmount.StringFixed(2))
}

func TestAccountResolution(t *testing.T) {
	ts := newTestServer(t)
	body := gin.H{"period_start": "2025-01-01", "period_end": "2025-01-15"}

	rec := ts.do(http.MethodPost, "/api/payroll/runs/generate", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Type)

	rec = ts.do(http.MethodPost, "/api/payroll/runs/generate", body, map[string]string{HeaderAccountID: "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body["account_id"] = "555"
	rec = ts.do(http.MethodPost, "/api/payroll/runs/generate", body, coopHeaders)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, snowflake.ID(555), ts.payroll.generateReq.AccountID)
}

func TestGeneratePayrollRejectsBadDates(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/payroll/runs/generate", gin.H{
		"period_start": "01/01/2025",
		"period_end":   "2025-01-15",
	}, coopHeaders)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "period_start", payload.Errors[0].Field)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", payrolldomain.ErrInvalidPaymentTerms, http.StatusBadRequest, "invalid_payment_terms"},
		{"no suppliers", payrolldomain.ErrNoSuppliersResolved, http.StatusBadRequest, "no_suppliers_resolved"},
		{"run missing", payrolldomain.ErrRunNotFound, http.StatusNotFound, "not_found"},
		{"already paid", fmt.Errorf("mark payslip: %w", payrolldomain.ErrPayslipAlreadyPaid), http.StatusConflict, "conflict"},
		{"already applied", fmt.Errorf("record application: %w", chargedomain.ErrAlreadyApplied), http.StatusConflict, "conflict"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.payroll.err = tc.err

			rec := ts.do(http.MethodPost, "/api/payroll/runs/42/mark-paid", gin.H{"payslip_id": "7"}, coopHeaders)

			assert.Equal(t, tc.status, rec.Code)
			errType, errCode := classifyErrorForLog(tc.err)
			assert.Equal(t, decodeError(t, rec).Type, errType)
			assert.Equal(t, tc.code, errCode)
		})
	}
}

func TestMarkPaidDefaultsPaidByToActor(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/payroll/runs/42/mark-paid", nil, coopHeaders)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	req := ts.payroll.markPaidReq
	assert.Equal(t, snowflake.ID(42), req.RunID)
	assert.Nil(t, req.PayslipID)
	assert.Nil(t, req.PaymentDate)
	assert.Equal(t, "user-7", req.PaidBy)

	rec = ts.do(http.MethodPost, "/api/payroll/runs/42/mark-paid", gin.H{
		"payslip_id":   "7",
		"payment_date": "2025-01-31",
		"paid_by":      "treasurer",
	}, coopHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	req = ts.payroll.markPaidReq
	require.NotNil(t, req.PayslipID)
	assert.Equal(t, snowflake.ID(7), *req.PayslipID)
	require.NotNil(t, req.PaymentDate)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *req.PaymentDate)
	assert.Equal(t, "treasurer", req.PaidBy)
}

func TestInvalidRunID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/api/payroll/runs/not-a-number/mark-paid", nil, coopHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportWritesAttachment(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/payroll/runs/9001/export?format=PDF&payslip_id=7", nil, coopHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="payroll-9001.pdf"`)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Equal(t, payrolldomain.ExportFormatPDF, ts.payroll.exportReq.Format)
	require.NotNil(t, ts.payroll.exportReq.PayslipID)
}

func TestExportUnsupportedFormat(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.err = payrolldomain.ErrInvalidExportFormat

	rec := ts.do(http.MethodGet, "/api/payroll/runs/9001/export?format=csv", nil, coopHeaders)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "export_format", payload.Errors[0].Field)
}

func TestCreateChargeBindsRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/charges", gin.H{
		"name":                   "Transport",
		"kind":                   "one_time",
		"amount_type":            "fixed",
		"amount":                 500,
		"apply_to_all_suppliers": "false",
		"supplier_account_ids":   []string{"201"},
		"effective_from":         "2025-01-01",
	}, coopHeaders)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := ts.charges.createReq
	assert.Equal(t, snowflake.ID(100), req.AccountID)
	assert.Equal(t, "user-7", req.ActorID)
	assert.Equal(t, chargedomain.KindOneTime, req.Kind)
	assert.Equal(t, "500", req.Amount.String())
	require.NotNil(t, req.ApplyToAllSuppliers)
	assert.False(t, *req.ApplyToAllSuppliers)
	assert.Equal(t, []snowflake.ID{201}, req.SupplierAccountIDs)
	require.NotNil(t, req.EffectiveFrom)
	assert.Nil(t, req.EffectiveTo)
	assert.Nil(t, req.IsActive)
}

func TestCreateChargeValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.charges.err = chargedomain.ErrInvalidPercentage

	rec := ts.do(http.MethodPost, "/api/charges", gin.H{"name": "Levy"}, coopHeaders)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_percentage", payload.Errors[0].Code)
	assert.Equal(t, "percentage", payload.Errors[0].Field)
}

func TestUpdateChargeDistinguishesNullFromAbsent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/api/charges/77", map[string]any{
		"effective_from": nil,
		"is_active":      false,
	}, coopHeaders)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	req := ts.charges.updateReq
	assert.Equal(t, snowflake.ID(77), req.ID)
	assert.True(t, req.ClearEffectiveFrom)
	assert.Nil(t, req.EffectiveFrom)
	assert.False(t, req.ClearEffectiveTo)
	require.NotNil(t, req.IsActive)
	assert.False(t, *req.IsActive)
	assert.Nil(t, req.Name)
	assert.Nil(t, req.SupplierAccountIDs)

	rec = ts.do(http.MethodPut, "/api/charges/77", map[string]any{
		"effective_to":         "2025-02-28",
		"supplier_account_ids": []string{},
	}, coopHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	req = ts.charges.updateReq
	require.NotNil(t, req.EffectiveTo)
	assert.False(t, req.ClearEffectiveTo)
	require.NotNil(t, req.SupplierAccountIDs)
	assert.Empty(t, *req.SupplierAccountIDs)
}

func TestListChargesAcceptsEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/charges/get", nil, coopHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ts.charges.listReq.ActiveOnly)

	rec = ts.do(http.MethodPost, "/api/charges/get", gin.H{"active_only": true}, coopHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.charges.listReq.ActiveOnly)
}

func TestPreviewApplicableCharges(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/charges/applicable", gin.H{
		"supplier_account_id": "201",
		"period_start":        "2025-01-01",
		"period_end":          "2025-01-15",
		"gross_amount":        "20000",
	}, coopHeaders)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, snowflake.ID(201), ts.resolver.supplierID)
	assert.Equal(t, "20000", ts.resolver.gross.String())

	var resp struct {
		Data struct {
			Charges         []chargedomain.ApplicableCharge `json:"charges"`
			TotalDeductions decimal.Decimal                 `json:"total_deductions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Charges, 2)
	assert.Equal(t, "900.00", resp.Data.TotalDeductions.StringFixed(2))
}

func TestAuditLogsRouteRequiresService(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/api/audit-logs", nil, coopHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
