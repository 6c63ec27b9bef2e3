package prepayment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/money"
	"loan-servicing-engine/internal/domain/schedule"
)

// Usecase computes settlement quotes. Reads only; callers wanting to settle
// then post a payment for the quoted total.
type Usecase struct{ repo domain.Repository }

func NewUsecase(r domain.Repository) *Usecase { return &Usecase{repo: r} }

type Quote struct {
	LoanID string `json:"loan_id"`
	AsOf   time.Time `json:"as_of"`

	Principal money.Money `json:"principal"`
	Interest  money.Money `json:"interest"`
	Fees      money.Money `json:"fees"`
	Penalties money.Money `json:"penalties"`
	Total     money.Money `json:"total"`

	// Set when a proposed payment falls short of the total.
	AdditionalPrincipalRequired *money.Money `json:"additional_principal_required,omitempty"`
}

type Benefit struct {
	LoanID string `json:"loan_id"`

	OriginalTotalInterest decimal.Decimal `json:"original_total_interest"`
	InterestPaid          decimal.Decimal `json:"interest_paid"`
	InterestOnPrepayment  decimal.Decimal `json:"interest_on_prepayment"`
	InterestSaved         decimal.Decimal `json:"interest_saved"`

	DaysSaved         int `json:"days_saved"`
	InstallmentsSaved int `json:"installments_saved"`
}

var daysPerYear = decimal.NewFromInt(365)

// Calculate returns the full settlement amount as of a date: the four
// outstanding portions, plus declining-balance interest accrued since the
// last accrual date, plus the configured early-payment penalty.
func (u *Usecase) Calculate(ctx context.Context, loanID string, asOf time.Time, proposed *decimal.Decimal, includeEarlyPenalty bool) (*Quote, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	interest := l.InterestOutstanding
	if l.InterestMethod == domain.InterestDeclining && l.LastAccrualDate != nil {
		if days := daysBetween(*l.LastAccrualDate, asOf); days > 0 {
			accrued := l.PrincipalOutstanding.
				Mul(dailyRate(l.AnnualInterestRate)).
				Mul(decimal.NewFromInt(int64(days))).
				Round(2)
			interest = interest.Add(accrued)
		}
	}

	penalties := l.PenaltyOutstanding
	if includeEarlyPenalty && l.EarlyPaymentPenaltyRate.Valid {
		fee := l.PrincipalOutstanding.
			Mul(l.EarlyPaymentPenaltyRate.Decimal).
			Div(decimal.NewFromInt(100)).
			Round(2)
		penalties = penalties.Add(fee)
	}

	q := &Quote{LoanID: l.LoanID, AsOf: asOf}
	if q.Principal, err = money.New(l.Currency, l.PrincipalOutstanding); err != nil {
		return nil, err
	}
	q.Interest = money.MustNew(l.Currency, interest)
	q.Fees = money.MustNew(l.Currency, l.FeeOutstanding)
	q.Penalties = money.MustNew(l.Currency, penalties)

	total := q.Principal
	for _, part := range []money.Money{q.Interest, q.Fees, q.Penalties} {
		if total, err = total.Plus(part); err != nil {
			return nil, err
		}
	}
	q.Total = total

	if proposed != nil && proposed.LessThan(total.Amount()) {
		short := money.MustNew(l.Currency, total.Amount().Sub(*proposed))
		q.AdditionalPrincipalRequired = &short
	}
	return q, nil
}

// CalculateBenefit regenerates the original schedule and reports what early
// settlement as of asOf saves versus carrying the loan to maturity.
func (u *Usecase) CalculateBenefit(ctx context.Context, loanID string, asOf time.Time) (*Benefit, error) {
	l, periods, err := u.repo.GetWithInstallments(ctx, loanID)
	if err != nil {
		return nil, err
	}

	original, _, err := schedule.Generate(l.Terms(), nil)
	if err != nil {
		return nil, err
	}

	var interestPaid decimal.Decimal
	installmentsRemaining := 0
	for i := range periods {
		p := &periods[i]
		if p.PeriodType != domain.PeriodRepayment || !p.Active {
			continue
		}
		interestPaid = interestPaid.Add(p.InterestPaid)
		if !p.Completed && p.DueDate.After(asOf) {
			installmentsRemaining++
		}
	}

	quote, err := u.Calculate(ctx, loanID, asOf, nil, false)
	if err != nil {
		return nil, err
	}
	interestOnPrepay := quote.Interest.Amount()

	b := &Benefit{
		LoanID:                l.LoanID,
		OriginalTotalInterest: original.TotalInterest,
		InterestPaid:          interestPaid,
		InterestOnPrepayment:  interestOnPrepay,
		InterestSaved:         original.TotalInterest.Sub(interestPaid).Sub(interestOnPrepay),
		InstallmentsSaved:     installmentsRemaining,
	}
	if maturity := original.MaturityDate(); maturity.After(asOf) {
		b.DaysSaved = daysBetween(asOf, maturity)
	}
	return b, nil
}

func dailyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.Div(decimal.NewFromInt(100)).Div(daysPerYear)
}

func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
