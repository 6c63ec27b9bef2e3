package interestpause

import (
	"context"
	"time"

	domain "loan-servicing-engine/internal/domain/interestpause"
	domainLoan "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/money"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/pkg/id"
)

type Usecase struct {
	loans  domainLoan.Repository
	pauses domain.Repository
	uow    uow.UnitOfWork
}

func NewUsecase(loans domainLoan.Repository, pauses domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{loans: loans, pauses: pauses, uow: tx}
}

type CreatePauseInput struct {
	LoanID    string    `json:"loan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
}

type PauseDTO struct {
	PauseID   string    `json:"pause_id"`
	LoanID    string    `json:"loan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
	IsActive  bool      `json:"is_active"`
	InWindow  bool      `json:"is_currently_in_window"`
}

// Create validates against the loan's active pauses and inserts the new
// interval. The overlap check and the insert share one tx on the locked
// loan row, so concurrent creations cannot slip past each other.
func (u *Usecase) Create(ctx context.Context, in CreatePauseInput) (*PauseDTO, error) {
	var out *PauseDTO

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		active, err := r.InterestPauses.ListActiveByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := domain.Validate(in.StartDate, in.EndDate, l.DisbursementDate, active); err != nil {
			return err
		}
		p := &domain.Pause{
			PauseID:   id.NewID32(),
			LoanID:    l.ID,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Reason:    in.Reason,
			IsActive:  true,
		}
		if err := r.InterestPauses.Create(ctx, p); err != nil {
			return err
		}
		out = toDTO(l.LoanID, p, time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel deactivates a pause explicitly.
func (u *Usecase) Cancel(ctx context.Context, pauseID string) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.InterestPauses.GetByPauseID(ctx, pauseID)
		if err != nil {
			return domain.ErrPauseNotFound
		}
		if !p.IsActive {
			return domain.ErrPauseAlreadyEnded
		}
		p.IsActive = false
		return r.InterestPauses.Save(ctx, p)
	})
}

// InterestFreeDays returns the merged inclusive day count over the loan's
// active pauses.
func (u *Usecase) InterestFreeDays(ctx context.Context, loanID string) (int, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return 0, err
	}
	pauses, err := u.pauses.ListActiveByLoanID(ctx, l.ID)
	if err != nil {
		return 0, err
	}
	return domain.TotalInterestFreeDays(pauses), nil
}

// InterestAdjustment prices the accrual suspended by the loan's pauses.
func (u *Usecase) InterestAdjustment(ctx context.Context, loanID string) (money.Money, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return money.Money{}, err
	}
	pauses, err := u.pauses.ListActiveByLoanID(ctx, l.ID)
	if err != nil {
		return money.Money{}, err
	}
	days := domain.TotalInterestFreeDays(pauses)
	adj := domain.InterestAdjustment(l.PrincipalOutstanding, l.AnnualInterestRate, days)
	return money.New(l.Currency, adj)
}

func toDTO(loanID string, p *domain.Pause, now time.Time) *PauseDTO {
	return &PauseDTO{
		PauseID:   p.PauseID,
		LoanID:    loanID,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Reason:    p.Reason,
		IsActive:  p.IsActive,
		InWindow:  p.InWindow(now),
	}
}
