package domain

import "errors"

var (
	ErrInvalidAccount         = errors.New("invalid_account")
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidKind            = errors.New("invalid_kind")
	ErrInvalidAmountType      = errors.New("invalid_amount_type")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidPercentage      = errors.New("invalid_percentage")
	ErrInvalidRecurrence      = errors.New("invalid_recurrence")
	ErrInvalidEffectiveWindow = errors.New("invalid_effective_window")
	ErrInvalidSupplier        = errors.New("invalid_supplier")
	ErrInvalidPeriod          = errors.New("invalid_period")
	ErrNotFound               = errors.New("not_found")
	ErrAlreadyApplied         = errors.New("charge_already_applied")
)
