package loanmock

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
)

// Ensure compile-time compliance
var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("loanmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Fill in the function fields a test needs; write methods default to
// succeeding, read methods to errUnimplemented.
type Repo struct {
	CreateFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn            func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn   func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDForUpdateFn       func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetWithInstallmentsFn    func(ctx context.Context, loanID string) (*domain.Loan, []domain.SchedulePeriod, error)
	SaveFn                   func(ctx context.Context, l *domain.Loan) error
	UpdateStatusFn           func(ctx context.Context, loanID string, status domain.Status) error
	UpdateBalancesFn         func(ctx context.Context, loanID string, principal, interest, fee, penalty, repaid decimal.Decimal) error
	CreateScheduleFn         func(ctx context.Context, periods []domain.SchedulePeriod) error
	UpdateScheduleFn         func(ctx context.Context, periods []domain.SchedulePeriod) error
	DeactivateScheduleFromFn func(ctx context.Context, loanID uint64, fromPeriod int) error
	CreateChargesFn          func(ctx context.Context, charges []domain.Charge) error
	GetChargesFn             func(ctx context.Context, loanID uint64) ([]domain.Charge, error)
	SaveChargeFn             func(ctx context.Context, c *domain.Charge) error
	CreateTransactionFn      func(ctx context.Context, tx *domain.Transaction) error
	CreatePaymentDetailFn    func(ctx context.Context, d *domain.PaymentDetail) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetWithInstallments(ctx context.Context, loanID string) (*domain.Loan, []domain.SchedulePeriod, error) {
	if m.GetWithInstallmentsFn != nil {
		return m.GetWithInstallmentsFn(ctx, loanID)
	}
	return nil, nil, errUnimplemented
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) UpdateStatus(ctx context.Context, loanID string, status domain.Status) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, loanID, status)
	}
	return nil
}

func (m *Repo) UpdateBalances(ctx context.Context, loanID string, principal, interest, fee, penalty, repaid decimal.Decimal) error {
	if m.UpdateBalancesFn != nil {
		return m.UpdateBalancesFn(ctx, loanID, principal, interest, fee, penalty, repaid)
	}
	return nil
}

func (m *Repo) CreateSchedule(ctx context.Context, periods []domain.SchedulePeriod) error {
	if m.CreateScheduleFn != nil {
		return m.CreateScheduleFn(ctx, periods)
	}
	return nil
}

func (m *Repo) UpdateSchedule(ctx context.Context, periods []domain.SchedulePeriod) error {
	if m.UpdateScheduleFn != nil {
		return m.UpdateScheduleFn(ctx, periods)
	}
	return nil
}

func (m *Repo) DeactivateScheduleFrom(ctx context.Context, loanID uint64, fromPeriod int) error {
	if m.DeactivateScheduleFromFn != nil {
		return m.DeactivateScheduleFromFn(ctx, loanID, fromPeriod)
	}
	return nil
}

func (m *Repo) CreateCharges(ctx context.Context, charges []domain.Charge) error {
	if m.CreateChargesFn != nil {
		return m.CreateChargesFn(ctx, charges)
	}
	return nil
}

func (m *Repo) GetCharges(ctx context.Context, loanID uint64) ([]domain.Charge, error) {
	if m.GetChargesFn != nil {
		return m.GetChargesFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) SaveCharge(ctx context.Context, c *domain.Charge) error {
	if m.SaveChargeFn != nil {
		return m.SaveChargeFn(ctx, c)
	}
	return nil
}

func (m *Repo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.CreateTransactionFn != nil {
		return m.CreateTransactionFn(ctx, tx)
	}
	return nil
}

func (m *Repo) CreatePaymentDetail(ctx context.Context, d *domain.PaymentDetail) error {
	if m.CreatePaymentDetailFn != nil {
		return m.CreatePaymentDetailFn(ctx, d)
	}
	return nil
}
