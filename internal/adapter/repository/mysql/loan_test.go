package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	delinquencyDomain "loan-servicing-engine/internal/domain/delinquency"
	pauseDomain "loan-servicing-engine/internal/domain/interestpause"
	domain "loan-servicing-engine/internal/domain/loan"
	restructureDomain "loan-servicing-engine/internal/domain/restructure"
	"loan-servicing-engine/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the full schema. The models
// carry no MySQL-only column types, so the domain structs migrate directly.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Loan{},
		&domain.SchedulePeriod{},
		&domain.Charge{},
		&domain.Transaction{},
		&domain.PaymentDetail{},
		&pauseDomain.Pause{},
		&delinquencyDomain.Detail{},
		&restructureDomain.Request{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(loanID, clientID string) *domain.Loan {
	return &domain.Loan{
		LoanID:                loanID,
		ClientID:              clientID,
		Principal:             decimal.NewFromInt(1200),
		Currency:              "USD",
		InterestRatePerPeriod: decimal.NewFromInt(1),
		AnnualInterestRate:    decimal.NewFromInt(12),
		InterestMethod:        domain.InterestFlat,
		AmortizationMethod:    domain.AmortizeEqualInstallments,
		NumberOfRepayments:    12,
		RepaymentEvery:        1,
		RepaymentUnit:         domain.FrequencyMonths,
		DisbursementDate:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentStrategy:       "principal_interest_penalties_fees",
		PrincipalOutstanding:  decimal.NewFromInt(1200),
		InterestOutstanding:   decimal.NewFromInt(144),
		Status:                domain.StatusActive,
		StatusUpdatedAt:       time.Now().UTC(),
	}
}

func TestCreateAndGetByLoanID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	l := makeLoan(loanID, id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.LoanID != loanID || !got.Principal.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if got.InterestMethod != domain.InterestFlat || got.Status != domain.StatusActive {
		t.Fatalf("enum columns did not round-trip: %+v", got)
	}

	_, err = repo.GetByLoanID(ctx, "missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing loan => want ErrRecordNotFound, got %v", err)
	}
}

func TestGetByLoanIDForUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	if err := repo.Create(ctx, makeLoan(loanID, id.NewID32())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByLoanIDForUpdate(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanIDForUpdate: %v", err)
	}
	if got.LoanID != loanID {
		t.Fatalf("loan_id = %s, want %s", got.LoanID, loanID)
	}

	byID, err := repo.GetByIDForUpdate(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if byID.LoanID != loanID {
		t.Fatalf("loan_id = %s, want %s", byID.LoanID, loanID)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	l := makeLoan(loanID, id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	due := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	periods := []domain.SchedulePeriod{
		{LoanID: l.ID, PeriodNumber: 0, PeriodType: domain.PeriodDisbursement, DueDate: due, Active: true},
		{
			LoanID: l.ID, PeriodNumber: 1, PeriodType: domain.PeriodRepayment, DueDate: due,
			PrincipalDue: decimal.NewFromInt(100), InterestDue: decimal.NewFromInt(12),
			TotalDue: decimal.NewFromInt(112), TotalOutstanding: decimal.NewFromInt(112),
			Active: true,
		},
		{
			LoanID: l.ID, PeriodNumber: 2, PeriodType: domain.PeriodRepayment, DueDate: due.AddDate(0, 1, 0),
			PrincipalDue: decimal.NewFromInt(100), InterestDue: decimal.NewFromInt(12),
			TotalDue: decimal.NewFromInt(112), TotalOutstanding: decimal.NewFromInt(112),
			Active: true,
		},
	}
	if err := repo.CreateSchedule(ctx, periods); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	gotLoan, gotPeriods, err := repo.GetWithInstallments(ctx, loanID)
	if err != nil {
		t.Fatalf("GetWithInstallments: %v", err)
	}
	if gotLoan.ID != l.ID || len(gotPeriods) != 3 {
		t.Fatalf("got %d periods for loan %d, want 3", len(gotPeriods), gotLoan.ID)
	}
	// Ordered by period number.
	for i, p := range gotPeriods {
		if p.PeriodNumber != i {
			t.Fatalf("period order broken: index %d has number %d", i, p.PeriodNumber)
		}
	}

	if err := repo.DeactivateScheduleFrom(ctx, l.ID, 2); err != nil {
		t.Fatalf("DeactivateScheduleFrom: %v", err)
	}
	_, gotPeriods, err = repo.GetWithInstallments(ctx, loanID)
	if err != nil {
		t.Fatalf("GetWithInstallments: %v", err)
	}
	if gotPeriods[1].Active != true || gotPeriods[2].Active != false {
		t.Fatalf("deactivation => want periods [1 active, 2 inactive], got %v/%v",
			gotPeriods[1].Active, gotPeriods[2].Active)
	}

	// Completed periods survive deactivation.
	gotPeriods[1].Completed = true
	if err := repo.UpdateSchedule(ctx, gotPeriods[1:2]); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if err := repo.DeactivateScheduleFrom(ctx, l.ID, 1); err != nil {
		t.Fatalf("DeactivateScheduleFrom: %v", err)
	}
	_, gotPeriods, _ = repo.GetWithInstallments(ctx, loanID)
	if !gotPeriods[1].Active {
		t.Fatalf("completed period must stay active after deactivation sweep")
	}
}

func TestUpdateStatusAndBalances(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	if err := repo.Create(ctx, makeLoan(loanID, id.NewID32())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateStatus(ctx, loanID, domain.StatusClosed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateBalances(ctx, loanID,
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(1344)); err != nil {
		t.Fatalf("UpdateBalances: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Status != domain.StatusClosed {
		t.Fatalf("status = %s, want closed", got.Status)
	}
	if !got.PrincipalOutstanding.IsZero() || !got.TotalRepaid.Equal(decimal.NewFromInt(1344)) {
		t.Fatalf("balances = %s / %s, want 0 / 1344", got.PrincipalOutstanding, got.TotalRepaid)
	}
}

func TestChargesAndTransactions(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	l := makeLoan(loanID, id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	charges := []domain.Charge{{
		LoanID:      l.ID,
		ChargeID:    id.NewID32(),
		Name:        "origination fee",
		Amount:      decimal.NewFromInt(25),
		Currency:    "USD",
		TimeType:    domain.ChargeAtDisbursement,
		CalcType:    domain.CalcFlat,
		Outstanding: decimal.NewFromInt(25),
	}}
	if err := repo.CreateCharges(ctx, charges); err != nil {
		t.Fatalf("CreateCharges: %v", err)
	}

	got, err := repo.GetCharges(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetCharges: %v", err)
	}
	if len(got) != 1 || got[0].Name != "origination fee" {
		t.Fatalf("unexpected charges: %+v", got)
	}

	got[0].Paid = decimal.NewFromInt(25)
	got[0].Outstanding = decimal.Zero
	if err := repo.SaveCharge(ctx, &got[0]); err != nil {
		t.Fatalf("SaveCharge: %v", err)
	}
	got, _ = repo.GetCharges(ctx, l.ID)
	if !got[0].Outstanding.IsZero() {
		t.Fatalf("charge outstanding = %s, want 0", got[0].Outstanding)
	}

	tx := &domain.Transaction{
		TransactionID:   id.NewID32(),
		LoanID:          l.ID,
		Type:            domain.TxRepayment,
		Amount:          decimal.NewFromInt(112),
		Currency:        "USD",
		TransactionDate: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.ID == 0 {
		t.Fatalf("transaction ID not set")
	}
	if err := repo.CreatePaymentDetail(ctx, &domain.PaymentDetail{
		TransactionID: tx.ID,
		Method:        "bank_transfer",
		ReceiptNumber: "R-001",
	}); err != nil {
		t.Fatalf("CreatePaymentDetail: %v", err)
	}
}
