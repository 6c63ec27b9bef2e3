package interestpause

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/interestpause"
	domainLoan "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/internal/testutil/loanmock"
	"loan-servicing-engine/internal/testutil/servicingmock"
	"loan-servicing-engine/internal/testutil/uowmock"
)

func day(n int) time.Time { return time.Date(2025, 3, n, 0, 0, 0, 0, time.UTC) }

func pauseFixture(existing []domain.Pause) (*servicingmock.PauseRepo, *Usecase) {
	l := &domainLoan.Loan{
		ID:                   7,
		LoanID:               "loan1",
		Currency:             "USD",
		Status:               domainLoan.StatusActive,
		AnnualInterestRate:   decimal.NewFromInt(12),
		PrincipalOutstanding: decimal.NewFromInt(10000),
		DisbursementDate:     day(1),
	}
	loans := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domainLoan.Loan, error) {
			if loanID != l.LoanID {
				return nil, domainLoan.ErrNotFound
			}
			return l, nil
		},
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID string) (*domainLoan.Loan, error) {
			if loanID != l.LoanID {
				return nil, domainLoan.ErrNotFound
			}
			return l, nil
		},
	}
	pauses := &servicingmock.PauseRepo{
		ListActiveByLoanIDFn: func(ctx context.Context, loanID uint64) ([]domain.Pause, error) {
			return existing, nil
		},
	}
	mockUoW := uowmock.Passthrough(uow.Repos{Loans: loans, InterestPauses: pauses})
	return pauses, NewUsecase(loans, pauses, mockUoW)
}

func TestCreatePause(t *testing.T) {
	pauses, uc := pauseFixture(nil)

	var created *domain.Pause
	pauses.CreateFn = func(ctx context.Context, p *domain.Pause) error {
		created = p
		return nil
	}

	dto, err := uc.Create(context.Background(), CreatePauseInput{
		LoanID:    "loan1",
		StartDate: day(5),
		EndDate:   day(10),
		Reason:    "natural disaster moratorium",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created == nil || created.LoanID != 7 || !created.IsActive {
		t.Fatalf("persisted pause => got %+v", created)
	}
	if dto.PauseID == "" || dto.LoanID != "loan1" || !dto.IsActive {
		t.Fatalf("dto => got %+v", dto)
	}
}

func TestCreatePauseRejectsOverlap(t *testing.T) {
	existing := []domain.Pause{{StartDate: day(5), EndDate: day(10), IsActive: true}}
	_, uc := pauseFixture(existing)

	_, err := uc.Create(context.Background(), CreatePauseInput{
		LoanID:    "loan1",
		StartDate: day(8),
		EndDate:   day(12),
	})
	if !errors.Is(err, domain.ErrOverlappingPause) {
		t.Fatalf("want ErrOverlappingPause, got %v", err)
	}
}

func TestCreatePauseRejectsBadRange(t *testing.T) {
	_, uc := pauseFixture(nil)

	_, err := uc.Create(context.Background(), CreatePauseInput{
		LoanID:    "loan1",
		StartDate: day(10),
		EndDate:   day(5),
	})
	if !errors.Is(err, domain.ErrEndBeforeStart) {
		t.Fatalf("want ErrEndBeforeStart, got %v", err)
	}

	_, err = uc.Create(context.Background(), CreatePauseInput{
		LoanID:    "loan1",
		StartDate: time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   day(5),
	})
	if !errors.Is(err, domain.ErrBeforeDisbursement) {
		t.Fatalf("want ErrBeforeDisbursement, got %v", err)
	}
}

func TestCancelPause(t *testing.T) {
	pauses, uc := pauseFixture(nil)

	p := &domain.Pause{PauseID: "p1", IsActive: true}
	pauses.GetByPauseIDFn = func(ctx context.Context, pauseID string) (*domain.Pause, error) {
		if pauseID != "p1" {
			return nil, domain.ErrPauseNotFound
		}
		return p, nil
	}

	if err := uc.Cancel(context.Background(), "p1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if p.IsActive {
		t.Fatal("pause still active after cancel")
	}

	// Second cancel hits the already-ended guard.
	if err := uc.Cancel(context.Background(), "p1"); !errors.Is(err, domain.ErrPauseAlreadyEnded) {
		t.Fatalf("want ErrPauseAlreadyEnded, got %v", err)
	}
	if err := uc.Cancel(context.Background(), "ghost"); !errors.Is(err, domain.ErrPauseNotFound) {
		t.Fatalf("want ErrPauseNotFound, got %v", err)
	}
}

func TestInterestFreeDaysAndAdjustment(t *testing.T) {
	existing := []domain.Pause{
		{StartDate: day(1), EndDate: day(10), IsActive: true},
		{StartDate: day(11), EndDate: day(15), IsActive: true},
	}
	_, uc := pauseFixture(existing)

	days, err := uc.InterestFreeDays(context.Background(), "loan1")
	if err != nil {
		t.Fatalf("InterestFreeDays: %v", err)
	}
	if days != 15 {
		t.Fatalf("days => want 15, got %d", days)
	}

	// 10000 * 12%/365 * 15 days = 49.32
	adj, err := uc.InterestAdjustment(context.Background(), "loan1")
	if err != nil {
		t.Fatalf("InterestAdjustment: %v", err)
	}
	if got := adj.Amount().String(); got != "49.32" {
		t.Fatalf("adjustment => want 49.32, got %s", got)
	}
	if adj.Currency() != "USD" {
		t.Fatalf("currency => want USD, got %s", adj.Currency())
	}
}
