package http

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"loan-servicing-engine/internal/domain/interestpause"
	"loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/money"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/domain/restructure"
)

// statusFor maps domain errors to HTTP codes. Unknown errors fall through
// to 500 so callers never see raw internals as 4xx.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, interestpause.ErrPauseNotFound),
		errors.Is(err, restructure.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrNotActive),
		errors.Is(err, restructure.ErrNotPending),
		errors.Is(err, interestpause.ErrOverlappingPause),
		errors.Is(err, interestpause.ErrPauseAlreadyEnded):
		return http.StatusConflict
	case errors.Is(err, loan.ErrInvalidPrincipal),
		errors.Is(err, loan.ErrInvalidRepayments),
		errors.Is(err, loan.ErrNegativeRate),
		errors.Is(err, loan.ErrInvalidInterestMethod),
		errors.Is(err, loan.ErrInvalidAmortization),
		errors.Is(err, loan.ErrInvalidFrequencyUnit),
		errors.Is(err, loan.ErrInvalidCurrency),
		errors.Is(err, loan.ErrInvalidDownPayment),
		errors.Is(err, loan.ErrDownPaymentConflict),
		errors.Is(err, loan.ErrInstallmentCountMismatch),
		errors.Is(err, loan.ErrInstallmentGap),
		errors.Is(err, loan.ErrInstallmentTooSmall),
		errors.Is(err, loan.ErrUnsupportedFrequency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, payment.ErrUnknownStrategy),
		errors.Is(err, restructure.ErrInvalidType),
		errors.Is(err, interestpause.ErrEndBeforeStart),
		errors.Is(err, interestpause.ErrBeforeDisbursement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func domainError(err error) ErrorResponse {
	if statusFor(err) == http.StatusInternalServerError {
		return ErrorResponse{Error: "internal error"}
	}
	return ErrorResponse{Error: err.Error()}
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
