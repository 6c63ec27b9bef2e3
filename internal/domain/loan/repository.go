package loan

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the persistence port consumed by the engine's stateful
// operations. Implementations are expected to run inside the caller's
// transaction boundary (see domain/uow).
type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the loan row for the rest of the tx.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetByIDForUpdate is the numeric-key variant used by restructure
	// approval, where only the FK is at hand.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	GetWithInstallments(ctx context.Context, loanID string) (*Loan, []SchedulePeriod, error)
	Save(ctx context.Context, l *Loan) error
	UpdateStatus(ctx context.Context, loanID string, status Status) error
	UpdateBalances(ctx context.Context, loanID string, principal, interest, fee, penalty, repaid decimal.Decimal) error

	CreateSchedule(ctx context.Context, periods []SchedulePeriod) error
	UpdateSchedule(ctx context.Context, periods []SchedulePeriod) error
	// DeactivateScheduleFrom clears the active flag on not-yet-completed
	// repayment periods due on or after the given period number.
	DeactivateScheduleFrom(ctx context.Context, loanID uint64, fromPeriod int) error

	CreateCharges(ctx context.Context, charges []Charge) error
	GetCharges(ctx context.Context, loanID uint64) ([]Charge, error)
	SaveCharge(ctx context.Context, c *Charge) error

	CreateTransaction(ctx context.Context, tx *Transaction) error
	CreatePaymentDetail(ctx context.Context, d *PaymentDetail) error
}
