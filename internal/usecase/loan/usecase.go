package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/domain/schedule"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/pkg/id"
)

type Usecase struct {
	repo domain.Repository
	uow  uow.UnitOfWork
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{repo: r, uow: tx}
}

type CreateLoanInput struct {
	ClientID           string           `json:"client_id"`
	Terms              domain.Terms     `json:"terms"`
	Charges            []domain.Charge  `json:"charges,omitempty"`
	AnnualInterestRate decimal.Decimal  `json:"annual_interest_rate"`
	PaymentStrategy    payment.Strategy `json:"payment_strategy,omitempty"`

	EarlyPaymentPenaltyRate *decimal.Decimal `json:"early_payment_penalty_rate,omitempty"`
}

type LoanDTO struct {
	LoanID    string             `json:"loan_id"`
	ClientID  string             `json:"client_id"`
	Status    string             `json:"status"`
	Currency  string             `json:"currency"`
	Principal decimal.Decimal    `json:"principal"`
	Schedule  *schedule.Schedule `json:"schedule,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Preview generates a schedule without persisting anything. Pure; safe to
// call concurrently.
func (u *Usecase) Preview(terms domain.Terms, charges []domain.Charge) (*schedule.Schedule, error) {
	s, _, err := schedule.Generate(terms, charges)
	return s, err
}

// Create validates the terms, generates the priced schedule and persists the
// loan, its periods, charges and the disbursement transaction in one tx.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	strategy := in.PaymentStrategy
	if strategy == "" {
		strategy = payment.StrategyDefault
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", payment.ErrUnknownStrategy, strategy)
	}

	s, charges, err := schedule.Generate(in.Terms, in.Charges)
	if err != nil {
		return nil, err
	}

	l := &domain.Loan{
		LoanID:                id.NewID32(),
		ClientID:              in.ClientID,
		Principal:             in.Terms.Principal,
		Currency:              in.Terms.Currency,
		InterestRatePerPeriod: in.Terms.InterestRatePerPeriod,
		AnnualInterestRate:    in.AnnualInterestRate,
		InterestMethod:        in.Terms.InterestMethod,
		AmortizationMethod:    in.Terms.AmortizationMethod,
		TermFrequency:         in.Terms.TermFrequency,
		TermUnit:              in.Terms.TermUnit,
		NumberOfRepayments:    in.Terms.NumberOfRepayments,
		RepaymentEvery:        in.Terms.RepaymentEvery,
		RepaymentUnit:         in.Terms.RepaymentUnit,
		DisbursementDate:      in.Terms.DisbursementDate,
		GraceOnPrincipal:      in.Terms.GraceOnPrincipal,
		GraceOnInterest:       in.Terms.GraceOnInterest,
		PaymentStrategy:       string(strategy),
		Status:                domain.StatusActive,
		StatusUpdatedAt:       time.Now().UTC(),

		// Down-payment principal is still owed, so the live outstanding
		// principal is repayment principal plus the down payment.
		PrincipalOutstanding: s.TotalPrincipal.Add(s.DownPaymentAmount),
		InterestOutstanding:  s.TotalInterest,
		FeeOutstanding:       s.TotalFeeCharges,
		PenaltyOutstanding:   s.TotalPenaltyCharges,
	}
	if in.Terms.DownPayment != nil {
		l.DownPaymentEnabled = true
		if in.Terms.DownPayment.FixedAmount != nil {
			l.DownPaymentFixed = decimal.NewNullDecimal(*in.Terms.DownPayment.FixedAmount)
		}
		if in.Terms.DownPayment.Percentage != nil {
			l.DownPaymentPercentage = decimal.NewNullDecimal(*in.Terms.DownPayment.Percentage)
		}
	}
	if in.EarlyPaymentPenaltyRate != nil {
		l.EarlyPaymentPenaltyRate = decimal.NewNullDecimal(*in.EarlyPaymentPenaltyRate)
	}
	disb := in.Terms.DisbursementDate
	l.LastAccrualDate = &disb

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		periods := make([]domain.SchedulePeriod, len(s.Periods))
		copy(periods, s.Periods)
		for i := range periods {
			periods[i].LoanID = l.ID
		}
		if err := r.Loans.CreateSchedule(ctx, periods); err != nil {
			return err
		}
		if len(charges) > 0 {
			for i := range charges {
				charges[i].LoanID = l.ID
				if charges[i].ChargeID == "" {
					charges[i].ChargeID = id.NewID32()
				}
			}
			if err := r.Loans.CreateCharges(ctx, charges); err != nil {
				return err
			}
		}
		return r.Loans.CreateTransaction(ctx, &domain.Transaction{
			TransactionID:   id.NewID32(),
			LoanID:          l.ID,
			Type:            domain.TxDisbursement,
			Amount:          in.Terms.Principal,
			Currency:        in.Terms.Currency,
			TransactionDate: in.Terms.DisbursementDate,
		})
	})
	if err != nil {
		return nil, err
	}

	return &LoanDTO{
		LoanID:    l.LoanID,
		ClientID:  l.ClientID,
		Status:    string(l.Status),
		Currency:  l.Currency,
		Principal: l.Principal,
		Schedule:  s,
		CreatedAt: l.CreatedAt,
	}, nil
}

// Get returns the loan with its live schedule rebuilt from the stored
// periods.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, periods, err := u.repo.GetWithInstallments(ctx, loanID)
	if err != nil {
		return nil, err
	}
	s := &schedule.Schedule{Currency: l.Currency, Periods: periods}
	if l.DownPaymentEnabled {
		s.DownPaymentAmount = l.Terms().DownPaymentAmount()
	}
	recompute(s)
	return &LoanDTO{
		LoanID:    l.LoanID,
		ClientID:  l.ClientID,
		Status:    string(l.Status),
		Currency:  l.Currency,
		Principal: l.Principal,
		Schedule:  s,
		CreatedAt: l.CreatedAt,
	}, nil
}

func recompute(s *schedule.Schedule) {
	var principal, interest, fees, penalties, outstanding decimal.Decimal
	for i := range s.Periods {
		p := &s.Periods[i]
		if p.PeriodType != domain.PeriodRepayment || !p.Active {
			continue
		}
		principal = principal.Add(p.PrincipalDue)
		interest = interest.Add(p.InterestDue)
		fees = fees.Add(p.FeeChargesDue)
		penalties = penalties.Add(p.PenaltyChargesDue)
		outstanding = outstanding.Add(p.TotalOutstanding)
	}
	s.TotalPrincipal = principal
	s.TotalInterest = interest
	s.TotalFeeCharges = fees
	s.TotalPenaltyCharges = penalties
	s.TotalRepaymentExpected = principal.Add(interest).Add(fees).Add(penalties)
	s.TotalOutstanding = outstanding
}
