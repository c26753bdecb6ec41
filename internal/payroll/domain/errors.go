package domain

import "errors"

var (
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidPeriodID     = errors.New("invalid_period_id")
	ErrInvalidPaymentTerms = errors.New("invalid_payment_terms")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidSupplier     = errors.New("invalid_supplier")
	ErrInvalidExportFormat = errors.New("invalid_export_format")
	ErrNoSuppliersResolved = errors.New("no_suppliers_resolved")
	ErrNoActiveSuppliers   = errors.New("no_active_suppliers")
	ErrNothingToPay        = errors.New("nothing_to_pay")

	ErrRunNotFound             = errors.New("payroll_run_not_found")
	ErrPayslipNotFound         = errors.New("payslip_not_found")
	ErrSupplierNotFound        = errors.New("payroll_supplier_not_found")
	ErrSupplierAccountNotFound = errors.New("supplier_account_not_found")

	ErrPayslipAlreadyPaid = errors.New("payslip_already_paid")
)
