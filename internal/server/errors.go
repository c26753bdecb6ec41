package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

var validationErrors = []error{
	ErrInvalidRequest,
	chargedomain.ErrInvalidAccount,
	chargedomain.ErrInvalidID,
	chargedomain.ErrInvalidName,
	chargedomain.ErrInvalidKind,
	chargedomain.ErrInvalidAmountType,
	chargedomain.ErrInvalidAmount,
	chargedomain.ErrInvalidPercentage,
	chargedomain.ErrInvalidRecurrence,
	chargedomain.ErrInvalidEffectiveWindow,
	chargedomain.ErrInvalidSupplier,
	chargedomain.ErrInvalidPeriod,
	payrolldomain.ErrInvalidAccount,
	payrolldomain.ErrInvalidID,
	payrolldomain.ErrInvalidPeriod,
	payrolldomain.ErrInvalidPeriodID,
	payrolldomain.ErrInvalidPaymentTerms,
	payrolldomain.ErrInvalidName,
	payrolldomain.ErrInvalidSupplier,
	payrolldomain.ErrInvalidExportFormat,
	payrolldomain.ErrNoSuppliersResolved,
	payrolldomain.ErrNoActiveSuppliers,
	payrolldomain.ErrNothingToPay,
	auditdomain.ErrInvalidAccount,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidAction,
}

var notFoundErrors = []error{
	ErrNotFound,
	chargedomain.ErrNotFound,
	payrolldomain.ErrRunNotFound,
	payrolldomain.ErrPayslipNotFound,
	payrolldomain.ErrSupplierNotFound,
	payrolldomain.ErrSupplierAccountNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	payrolldomain.ErrPayslipAlreadyPaid,
	chargedomain.ErrAlreadyApplied,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if sentinel := matchSentinel(err, validationErrors); sentinel != nil {
		code := sentinel.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case matchSentinel(err, notFoundErrors) != nil:
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case matchSentinel(err, conflictErrors) != nil:
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: matchSentinel(err, conflictErrors).Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code logged with each
// failed request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func matchSentinel(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func notFoundMessage(err error) string {
	sentinel := matchSentinel(err, notFoundErrors)
	if sentinel == nil || sentinel == gorm.ErrRecordNotFound || sentinel == ErrNotFound || sentinel == chargedomain.ErrNotFound {
		return "not found"
	}
	return strings.ReplaceAll(sentinel.Error(), "_", " ")
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "no_suppliers_resolved", "no_active_suppliers":
		return "supplier_account_codes"
	case "nothing_to_pay":
		return "payslip_id"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "no_suppliers_resolved":
		return "no suppliers matched the given codes"
	case "no_active_suppliers":
		return "no active suppliers to process"
	case "nothing_to_pay":
		return "no pending payslips in this run"
	default:
		return "invalid value"
	}
}
