package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/internal/testutil/loanmock"
	"loan-servicing-engine/internal/testutil/uowmock"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func baseInput() CreateLoanInput {
	return CreateLoanInput{
		ClientID: "client1",
		Terms: domain.Terms{
			Principal:             decimal.NewFromInt(1200),
			Currency:              "USD",
			InterestRatePerPeriod: decimal.NewFromInt(1),
			InterestMethod:        domain.InterestFlat,
			AmortizationMethod:    domain.AmortizeEqualInstallments,
			NumberOfRepayments:    12,
			RepaymentEvery:        1,
			RepaymentUnit:         domain.FrequencyMonths,
			DisbursementDate:      date(2025, 1, 15),
		},
		AnnualInterestRate: decimal.NewFromInt(12),
	}
}

func TestCreatePersistsLoanScheduleAndDisbursement(t *testing.T) {
	var savedLoan *domain.Loan
	var savedPeriods []domain.SchedulePeriod
	var savedTx *domain.Transaction

	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			l.ID = 42
			savedLoan = l
			return nil
		},
		CreateScheduleFn: func(ctx context.Context, ps []domain.SchedulePeriod) error {
			savedPeriods = ps
			return nil
		},
		CreateTransactionFn: func(ctx context.Context, tx *domain.Transaction) error {
			savedTx = tx
			return nil
		},
	}
	uc := NewUsecase(repo, uowmock.Passthrough(uow.Repos{Loans: repo}))

	dto, err := uc.Create(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if savedLoan == nil || savedLoan.Status != domain.StatusActive {
		t.Fatalf("loan => want active, got %+v", savedLoan)
	}
	if savedLoan.PaymentStrategy != string(payment.StrategyDefault) {
		t.Fatalf("strategy => want default, got %s", savedLoan.PaymentStrategy)
	}
	if !savedLoan.PrincipalOutstanding.Equal(decimal.NewFromInt(1200)) ||
		!savedLoan.InterestOutstanding.Equal(decimal.NewFromInt(144)) {
		t.Fatalf("balances => got %s/%s", savedLoan.PrincipalOutstanding, savedLoan.InterestOutstanding)
	}
	if savedLoan.LastAccrualDate == nil || !savedLoan.LastAccrualDate.Equal(date(2025, 1, 15)) {
		t.Fatalf("last accrual => want disbursement date, got %v", savedLoan.LastAccrualDate)
	}

	// 13 periods persisted: disbursement + 12 repayments, FK stamped.
	if len(savedPeriods) != 13 {
		t.Fatalf("periods => want 13, got %d", len(savedPeriods))
	}
	for _, p := range savedPeriods {
		if p.LoanID != 42 {
			t.Fatalf("period %d => want loan fk 42, got %d", p.PeriodNumber, p.LoanID)
		}
	}

	if savedTx == nil || savedTx.Type != domain.TxDisbursement || !savedTx.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("disbursement tx => got %+v", savedTx)
	}

	if dto.LoanID == "" || dto.Schedule == nil {
		t.Fatalf("dto => got %+v", dto)
	}
	if !dto.Schedule.TotalRepaymentExpected.Equal(decimal.NewFromInt(1344)) {
		t.Fatalf("expected total => want 1344, got %s", dto.Schedule.TotalRepaymentExpected)
	}
}

func TestCreateDownPaymentCountsTowardOutstanding(t *testing.T) {
	pct := decimal.NewFromInt(20)
	in := baseInput()
	in.Terms.Principal = decimal.NewFromInt(1000)
	in.Terms.NumberOfRepayments = 4
	in.Terms.DownPayment = &domain.DownPaymentConfig{Percentage: &pct}

	var savedLoan *domain.Loan
	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			savedLoan = l
			return nil
		},
	}
	uc := NewUsecase(repo, uowmock.Passthrough(uow.Repos{Loans: repo}))

	if _, err := uc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Repayment principal 800 plus the 200 down payment still owed.
	if !savedLoan.PrincipalOutstanding.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("outstanding => want 1000, got %s", savedLoan.PrincipalOutstanding)
	}
	if !savedLoan.DownPaymentEnabled || !savedLoan.DownPaymentPercentage.Valid {
		t.Fatal("want down payment recorded on loan")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := &loanmock.Repo{}
	uc := NewUsecase(repo, uowmock.Passthrough(uow.Repos{Loans: repo}))

	in := baseInput()
	in.PaymentStrategy = "newest_first"
	if _, err := uc.Create(context.Background(), in); !errors.Is(err, payment.ErrUnknownStrategy) {
		t.Fatalf("want ErrUnknownStrategy, got %v", err)
	}

	in = baseInput()
	in.Terms.Principal = decimal.Zero
	if _, err := uc.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidPrincipal) {
		t.Fatalf("want ErrInvalidPrincipal, got %v", err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	created := false
	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			created = true
			return nil
		},
	}
	uc := NewUsecase(repo, uowmock.New())

	s, err := uc.Preview(baseInput().Terms, nil)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if s == nil || !s.TotalInterest.Equal(decimal.NewFromInt(144)) {
		t.Fatalf("preview => got %+v", s)
	}
	if created {
		t.Fatal("preview must not persist")
	}
}

func TestGetRebuildsScheduleFromStoredPeriods(t *testing.T) {
	l := &domain.Loan{
		ID:       1,
		LoanID:   "loan1",
		ClientID: "client1",
		Currency: "USD",
		Status:   domain.StatusActive,
	}
	periods := []domain.SchedulePeriod{
		{PeriodNumber: 0, PeriodType: domain.PeriodDisbursement, Active: true},
		{
			PeriodNumber: 1, PeriodType: domain.PeriodRepayment, Active: true,
			PrincipalDue: decimal.NewFromInt(100), InterestDue: decimal.NewFromInt(12),
			TotalOutstanding: decimal.NewFromInt(112),
		},
		// Deactivated period from a reschedule must not count.
		{
			PeriodNumber: 2, PeriodType: domain.PeriodRepayment, Active: false,
			PrincipalDue: decimal.NewFromInt(100), InterestDue: decimal.NewFromInt(12),
			TotalOutstanding: decimal.NewFromInt(112),
		},
	}
	repo := &loanmock.Repo{
		GetWithInstallmentsFn: func(ctx context.Context, loanID string) (*domain.Loan, []domain.SchedulePeriod, error) {
			if loanID != "loan1" {
				return nil, nil, domain.ErrNotFound
			}
			return l, periods, nil
		},
	}
	uc := NewUsecase(repo, uowmock.New())

	dto, err := uc.Get(context.Background(), "loan1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !dto.Schedule.TotalPrincipal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("total principal => want 100 (active only), got %s", dto.Schedule.TotalPrincipal)
	}
	if !dto.Schedule.TotalOutstanding.Equal(decimal.NewFromInt(112)) {
		t.Fatalf("total outstanding => want 112, got %s", dto.Schedule.TotalOutstanding)
	}

	if _, err := uc.Get(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
