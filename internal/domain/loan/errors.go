package loan

import "errors"

// Validation errors: malformed or out-of-range input, rejected before any
// computation starts.
var (
	ErrInvalidPrincipal        = errors.New("principal must be positive")
	ErrInvalidRepayments       = errors.New("number of repayments must be positive")
	ErrNegativeRate            = errors.New("interest rate must not be negative")
	ErrInvalidInterestMethod   = errors.New("invalid interest method")
	ErrInvalidAmortization     = errors.New("invalid amortization method")
	ErrInvalidFrequencyUnit    = errors.New("invalid frequency unit")
	ErrInvalidCurrency         = errors.New("invalid currency code")
	ErrInvalidDownPayment      = errors.New("down payment must be positive and below the principal")
	ErrDownPaymentConflict     = errors.New("down payment fixed amount and percentage are mutually exclusive")
	ErrInstallmentCountMismatch = errors.New("variable installment count must equal number of repayments")
	ErrInstallmentGap          = errors.New("variable installment gap outside allowed range")
	ErrInstallmentTooSmall     = errors.New("variable installment below minimum amount")

	// Calculation errors: internal inconsistency reached mid-generation.
	ErrUnsupportedFrequency = errors.New("unsupported frequency unit in calculation")

	// Business-rule errors: state-dependent refusals.
	ErrNotFound        = errors.New("loan not found")
	ErrNotActive       = errors.New("loan is not active")
	ErrChargeAlreadyPaid = errors.New("charge already fully paid")
)
