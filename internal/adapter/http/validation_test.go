package http

import (
	"errors"
	stdhttp "net/http"
	"strings"
	"testing"

	"gorm.io/gorm"

	"loan-servicing-engine/internal/domain/interestpause"
	"loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/domain/restructure"
)

func TestValidatorCustomTags(t *testing.T) {
	cv := NewValidator()

	type subject struct {
		ID       string  `validate:"required,hex32"`
		Currency string  `validate:"required,currency_code"`
		Rate     float64 `validate:"dec2"`
	}

	ok := subject{ID: strings.Repeat("a", 32), Currency: "USD", Rate: 1.29}
	if err := cv.Validate(&ok); err != nil {
		t.Fatalf("valid subject rejected: %v", err)
	}

	cases := []struct {
		name  string
		in    subject
		field string
		msg   string
	}{
		{"missing id", subject{Currency: "USD"}, "ID", "is required"},
		{"short id", subject{ID: "abc", Currency: "USD"}, "ID", "32-char lowercase hex"},
		{"upper hex", subject{ID: strings.Repeat("A", 32), Currency: "USD"}, "ID", "32-char lowercase hex"},
		{"lowercase currency", subject{ID: strings.Repeat("a", 32), Currency: "usd"}, "Currency", "ISO 4217"},
		{"long currency", subject{ID: strings.Repeat("a", 32), Currency: "USDT"}, "Currency", "ISO 4217"},
		{"too many decimals", subject{ID: strings.Repeat("a", 32), Currency: "USD", Rate: 1.299}, "Rate", "2 decimal places"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := cv.Validate(&tc.in)
			if err == nil {
				t.Fatal("want validation error, got nil")
			}
			fields := ToFieldErrors(err)
			if !containsFieldMsg(fields, tc.field, tc.msg) {
				t.Fatalf("details = %+v, want %s / %q", fields, tc.field, tc.msg)
			}
		})
	}
}

func TestToFieldErrorsNonValidatorError(t *testing.T) {
	fields := ToFieldErrors(errors.New("boom"))
	if len(fields) != 1 || fields[0].Field != "_" || fields[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fields)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{loan.ErrNotFound, stdhttp.StatusNotFound},
		{gorm.ErrRecordNotFound, stdhttp.StatusNotFound},
		{interestpause.ErrPauseNotFound, stdhttp.StatusNotFound},
		{restructure.ErrNotFound, stdhttp.StatusNotFound},
		{loan.ErrNotActive, stdhttp.StatusConflict},
		{restructure.ErrNotPending, stdhttp.StatusConflict},
		{interestpause.ErrOverlappingPause, stdhttp.StatusConflict},
		{loan.ErrInvalidPrincipal, stdhttp.StatusBadRequest},
		{payment.ErrUnknownStrategy, stdhttp.StatusBadRequest},
		{restructure.ErrInvalidType, stdhttp.StatusBadRequest},
		{interestpause.ErrEndBeforeStart, stdhttp.StatusBadRequest},
		{errors.New("database on fire"), stdhttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestDomainErrorHidesInternals(t *testing.T) {
	resp := domainError(errors.New("dial tcp 10.0.0.1: connection refused"))
	if resp.Error != "internal error" {
		t.Fatalf("internal errors must not leak, got %q", resp.Error)
	}
	resp = domainError(loan.ErrNotFound)
	if resp.Error != loan.ErrNotFound.Error() {
		t.Fatalf("domain error message lost: %q", resp.Error)
	}
}
