package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/money"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/pkg/id"
)

type Usecase struct{ uow uow.UnitOfWork }

func NewUsecase(tx uow.UnitOfWork) *Usecase { return &Usecase{uow: tx} }

type ApplyPaymentInput struct {
	LoanID   string          `json:"loan_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	// Optional strategy override; defaults to the loan's configured one.
	Strategy payment.Strategy `json:"strategy,omitempty"`

	TransactionDate time.Time `json:"transaction_date"`
	Method          string    `json:"method,omitempty"`
	AccountNumber   string    `json:"account_number,omitempty"`
	ReceiptNumber   string    `json:"receipt_number,omitempty"`
}

type PaymentResultDTO struct {
	TransactionID string              `json:"transaction_id"`
	LoanID        string              `json:"loan_id"`
	Allocation    *payment.Allocation `json:"allocation"`
	LoanStatus    string              `json:"loan_status"`
}

// Apply allocates a payment against the loan's outstanding periods and
// persists the result. It runs under the per-loan transaction so concurrent
// payments to the same loan serialize.
func (u *Usecase) Apply(ctx context.Context, in ApplyPaymentInput) (*PaymentResultDTO, error) {
	var out *PaymentResultDTO

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusActive {
			return domain.ErrNotActive
		}
		if in.Currency != l.Currency {
			return fmt.Errorf("%w: payment in %s against %s loan",
				money.ErrCurrencyMismatch, in.Currency, l.Currency)
		}
		amount, err := money.New(l.Currency, in.Amount)
		if err != nil {
			return err
		}

		strategy := in.Strategy
		if strategy == "" {
			strategy = payment.Strategy(l.PaymentStrategy)
		}
		if !strategy.Valid() {
			return fmt.Errorf("%w: %q", payment.ErrUnknownStrategy, strategy)
		}

		_, periods, err := r.Loans.GetWithInstallments(ctx, in.LoanID)
		if err != nil {
			return err
		}

		open := make([]domain.SchedulePeriod, 0, len(periods))
		for _, p := range periods {
			if p.PeriodType == domain.PeriodDisbursement || !p.Active || p.Completed {
				continue
			}
			if p.TotalOutstanding.IsPositive() {
				open = append(open, p)
			}
		}

		alloc, err := payment.Allocate(amount, strategy, open)
		if err != nil {
			return err
		}

		touched := applyAllocation(periods, alloc)
		if err := r.Loans.UpdateSchedule(ctx, touched); err != nil {
			return err
		}

		l.PrincipalOutstanding = l.PrincipalOutstanding.Sub(alloc.TotalPrincipal)
		l.InterestOutstanding = l.InterestOutstanding.Sub(alloc.TotalInterest)
		l.FeeOutstanding = l.FeeOutstanding.Sub(alloc.TotalFees)
		l.PenaltyOutstanding = l.PenaltyOutstanding.Sub(alloc.TotalPenalties)
		l.TotalRepaid = l.TotalRepaid.Add(alloc.TotalAllocated)
		if !l.TotalOutstanding().IsPositive() {
			if alloc.UnallocatedAmount.IsPositive() {
				l.Status = domain.StatusOverpaid
			} else {
				l.Status = domain.StatusClosed
				closed := dateOnly(in.TransactionDate)
				l.ClosedDate = &closed
			}
			l.StatusUpdatedAt = time.Now().UTC()
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		tx := &domain.Transaction{
			TransactionID:    id.NewID32(),
			LoanID:           l.ID,
			Type:             domain.TxRepayment,
			Amount:           amount.Amount(),
			Currency:         l.Currency,
			PrincipalPortion: alloc.TotalPrincipal,
			InterestPortion:  alloc.TotalInterest,
			FeePortion:       alloc.TotalFees,
			PenaltyPortion:   alloc.TotalPenalties,
			Unallocated:      alloc.UnallocatedAmount,
			TransactionDate:  dateOnly(in.TransactionDate),
		}
		if err := r.Loans.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		if in.Method != "" {
			d := &domain.PaymentDetail{
				TransactionID: tx.ID,
				Method:        in.Method,
				AccountNumber: in.AccountNumber,
				ReceiptNumber: in.ReceiptNumber,
			}
			if err := r.Loans.CreatePaymentDetail(ctx, d); err != nil {
				return err
			}
		}

		out = &PaymentResultDTO{
			TransactionID: tx.TransactionID,
			LoanID:        l.LoanID,
			Allocation:    alloc,
			LoanStatus:    string(l.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyAllocation writes the breakdown back into the period rows, keeping
// due = paid + waived + writtenOff + outstanding per component.
func applyAllocation(periods []domain.SchedulePeriod, alloc *payment.Allocation) []domain.SchedulePeriod {
	byNumber := make(map[int]*domain.SchedulePeriod, len(periods))
	for i := range periods {
		byNumber[periods[i].PeriodNumber] = &periods[i]
	}

	touched := make([]domain.SchedulePeriod, 0, len(alloc.Periods))
	for _, pa := range alloc.Periods {
		p, ok := byNumber[pa.PeriodNumber]
		if !ok {
			continue
		}
		p.PrincipalPaid = p.PrincipalPaid.Add(pa.Principal)
		p.PrincipalOutstanding = p.PrincipalOutstanding.Sub(pa.Principal)
		p.InterestPaid = p.InterestPaid.Add(pa.Interest)
		p.InterestOutstanding = p.InterestOutstanding.Sub(pa.Interest)
		p.FeeChargesPaid = p.FeeChargesPaid.Add(pa.Fees)
		p.FeeChargesOutstanding = p.FeeChargesOutstanding.Sub(pa.Fees)
		p.PenaltyChargesPaid = p.PenaltyChargesPaid.Add(pa.Penalties)
		p.PenaltyChargesOutstanding = p.PenaltyChargesOutstanding.Sub(pa.Penalties)
		p.TotalPaid = p.TotalPaid.Add(pa.Total)
		p.TotalOutstanding = p.TotalOutstanding.Sub(pa.Total)
		if !p.TotalOutstanding.IsPositive() {
			p.Completed = true
		}
		touched = append(touched, *p)
	}
	return touched
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
