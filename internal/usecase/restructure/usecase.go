package restructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainLoan "loan-servicing-engine/internal/domain/loan"
	domain "loan-servicing-engine/internal/domain/restructure"
	"loan-servicing-engine/internal/domain/schedule"
	"loan-servicing-engine/internal/domain/uow"
	"loan-servicing-engine/pkg/id"
)

var ErrNothingToReschedule = errors.New("no open installments on or after the cut-over date")

type Usecase struct{ uow uow.UnitOfWork }

func NewUsecase(tx uow.UnitOfWork) *Usecase { return &Usecase{uow: tx} }

type CreateInput struct {
	LoanID             string      `json:"loan_id"`
	Type               domain.Type `json:"type"`
	RescheduleFromDate time.Time   `json:"reschedule_from_date"`

	NewInterestRate   *decimal.Decimal `json:"new_interest_rate,omitempty"`
	ExtraInstallments int              `json:"extra_installments"`
	EMIOverride       *decimal.Decimal `json:"emi_override,omitempty"`
	Reason            string           `json:"reason"`
}

type RequestDTO struct {
	RestructureID string             `json:"restructure_id"`
	LoanID        string             `json:"loan_id"`
	Type          domain.Type        `json:"type"`
	Status        domain.Status      `json:"status"`
	Preview       *schedule.Schedule `json:"preview,omitempty"`
	NewLoanID     string             `json:"new_loan_id,omitempty"`
}

// Create records a pending request with a generated preview schedule. No
// loan state changes until approval.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidType, in.Type)
	}
	var out *RequestDTO

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}
		_, periods, err := r.Loans.GetWithInstallments(ctx, in.LoanID)
		if err != nil {
			return err
		}

		terms, err := buildTerms(l, periods, in)
		if err != nil {
			return err
		}
		preview, _, err := schedule.Generate(terms, nil)
		if err != nil {
			return err
		}
		previewJSON, err := json.Marshal(preview)
		if err != nil {
			return err
		}

		req := &domain.Request{
			RestructureID:      id.NewID32(),
			LoanID:             l.ID,
			Type:               in.Type,
			RescheduleFromDate: in.RescheduleFromDate,
			ExtraInstallments:  in.ExtraInstallments,
			Reason:             in.Reason,
			Status:             domain.StatusPending,
			StatusUpdatedAt:    time.Now().UTC(),
			PreviewSchedule:    previewJSON,
		}
		if in.NewInterestRate != nil {
			req.NewInterestRate = decimal.NewNullDecimal(*in.NewInterestRate)
		}
		if in.EMIOverride != nil {
			req.EMIOverride = decimal.NewNullDecimal(*in.EMIOverride)
		}
		if err := r.Restructures.Create(ctx, req); err != nil {
			return err
		}

		out = &RequestDTO{
			RestructureID: req.RestructureID,
			LoanID:        l.LoanID,
			Type:          req.Type,
			Status:        req.Status,
			Preview:       preview,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve performs the loan mutation atomically with the status change.
// Only pending requests can be approved.
func (u *Usecase) Approve(ctx context.Context, restructureID string) (*RequestDTO, error) {
	var out *RequestDTO

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Restructures.GetByRestructureIDForUpdate(ctx, restructureID)
		if err != nil {
			return domain.ErrNotFound
		}
		if req.Status != domain.StatusPending {
			return domain.ErrNotPending
		}

		l, err := r.Loans.GetByIDForUpdate(ctx, req.LoanID)
		if err != nil {
			return err
		}

		var newLoanID string
		switch req.Type {
		case domain.TypeReschedule:
			err = u.applyReschedule(ctx, r, l, req)
		case domain.TypeRefinance, domain.TypeRestructure:
			newLoanID, err = u.applyRefinance(ctx, r, l, req)
		default:
			err = fmt.Errorf("%w: %q", domain.ErrInvalidType, req.Type)
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		req.Status = domain.StatusApproved
		req.StatusUpdatedAt = now
		req.ApprovedAt = &now
		if err := r.Restructures.Save(ctx, req); err != nil {
			return err
		}

		out = &RequestDTO{
			RestructureID: req.RestructureID,
			LoanID:        l.LoanID,
			Type:          req.Type,
			Status:        req.Status,
			NewLoanID:     newLoanID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject is terminal: it records the reason and touches nothing else.
func (u *Usecase) Reject(ctx context.Context, restructureID, reason string) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Restructures.GetByRestructureIDForUpdate(ctx, restructureID)
		if err != nil {
			return domain.ErrNotFound
		}
		if req.Status != domain.StatusPending {
			return domain.ErrNotPending
		}
		req.Status = domain.StatusRejected
		req.StatusUpdatedAt = time.Now().UTC()
		req.RejectionReason = reason
		return r.Restructures.Save(ctx, req)
	})
}

// applyReschedule swaps the open tail of the schedule for a regenerated one
// and mutates the source loan in place.
func (u *Usecase) applyReschedule(ctx context.Context, r uow.Repos, l *domainLoan.Loan, req *domain.Request) error {
	_, periods, err := r.Loans.GetWithInstallments(ctx, l.LoanID)
	if err != nil {
		return err
	}

	fromPeriod, completed, open := splitAt(periods, req.RescheduleFromDate)
	if open == 0 {
		return ErrNothingToReschedule
	}
	if err := r.Loans.DeactivateScheduleFrom(ctx, l.ID, fromPeriod); err != nil {
		return err
	}

	rate := l.InterestRatePerPeriod
	if req.NewInterestRate.Valid {
		rate = req.NewInterestRate.Decimal
	}
	// Overdue unpaid installments before the cut-over stay active and keep
	// their own balances, so the regenerated tail amortizes only the
	// principal they do not already carry.
	carryPrincipal, carryInterest := overdueCarry(periods, req.RescheduleFromDate)
	terms, err := remainingTerms(l, l.PrincipalOutstanding.Sub(carryPrincipal), rate, open+req.ExtraInstallments, req.RescheduleFromDate, emiOverride(req))
	if err != nil {
		return err
	}
	s, _, err := schedule.Generate(terms, nil)
	if err != nil {
		return err
	}

	// Renumber the regenerated repayment periods to continue the ledger.
	number := fromPeriod
	inserts := make([]domainLoan.SchedulePeriod, 0, len(s.Periods))
	for i := range s.Periods {
		p := s.Periods[i]
		if p.PeriodType != domainLoan.PeriodRepayment {
			continue
		}
		p.LoanID = l.ID
		p.PeriodNumber = number
		number++
		inserts = append(inserts, p)
	}
	if err := r.Loans.CreateSchedule(ctx, inserts); err != nil {
		return err
	}

	l.InterestRatePerPeriod = rate
	l.NumberOfRepayments = completed + len(inserts)
	l.InterestOutstanding = s.TotalInterest.Add(carryInterest)
	l.StatusUpdatedAt = time.Now().UTC()
	return r.Loans.Save(ctx, l)
}

// applyRefinance closes the source loan and opens a replacement carrying the
// full outstanding balance as its principal.
func (u *Usecase) applyRefinance(ctx context.Context, r uow.Repos, l *domainLoan.Loan, req *domain.Request) (string, error) {
	outstanding := l.TotalOutstanding()

	if err := r.Loans.CreateTransaction(ctx, &domainLoan.Transaction{
		TransactionID:   id.NewID32(),
		LoanID:          l.ID,
		Type:            domainLoan.TxClose,
		Amount:          outstanding,
		Currency:        l.Currency,
		TransactionDate: dateOnly(req.RescheduleFromDate),
	}); err != nil {
		return "", err
	}

	closed := dateOnly(req.RescheduleFromDate)
	l.Status = domainLoan.StatusClosedRescheduled
	l.StatusUpdatedAt = time.Now().UTC()
	l.ClosedDate = &closed
	l.PrincipalOutstanding = decimal.Zero
	l.InterestOutstanding = decimal.Zero
	l.FeeOutstanding = decimal.Zero
	l.PenaltyOutstanding = decimal.Zero
	if err := r.Loans.Save(ctx, l); err != nil {
		return "", err
	}

	rate := l.InterestRatePerPeriod
	if req.NewInterestRate.Valid {
		rate = req.NewInterestRate.Decimal
	}
	n := l.NumberOfRepayments + req.ExtraInstallments
	terms, err := remainingTerms(l, outstanding, rate, n, req.RescheduleFromDate, emiOverride(req))
	if err != nil {
		return "", err
	}
	s, _, err := schedule.Generate(terms, nil)
	if err != nil {
		return "", err
	}

	newLoan := &domainLoan.Loan{
		LoanID:                id.NewID32(),
		ClientID:              l.ClientID,
		Principal:             outstanding,
		Currency:              l.Currency,
		InterestRatePerPeriod: rate,
		AnnualInterestRate:    l.AnnualInterestRate,
		InterestMethod:        l.InterestMethod,
		AmortizationMethod:    l.AmortizationMethod,
		TermFrequency:         terms.TermFrequency,
		TermUnit:              terms.TermUnit,
		NumberOfRepayments:    n,
		RepaymentEvery:        l.RepaymentEvery,
		RepaymentUnit:         l.RepaymentUnit,
		DisbursementDate:      dateOnly(req.RescheduleFromDate),
		PaymentStrategy:       l.PaymentStrategy,
		SourceLoanID:          &l.ID,
		Status:                domainLoan.StatusActive,
		StatusUpdatedAt:       time.Now().UTC(),
		PrincipalOutstanding:  s.TotalPrincipal,
		InterestOutstanding:   s.TotalInterest,
	}
	if err := r.Loans.Create(ctx, newLoan); err != nil {
		return "", err
	}

	periods := make([]domainLoan.SchedulePeriod, len(s.Periods))
	copy(periods, s.Periods)
	for i := range periods {
		periods[i].LoanID = newLoan.ID
	}
	if err := r.Loans.CreateSchedule(ctx, periods); err != nil {
		return "", err
	}

	req.NewLoanID = &newLoan.ID
	return newLoan.LoanID, nil
}

// buildTerms derives the preview terms for a pending request.
func buildTerms(l *domainLoan.Loan, periods []domainLoan.SchedulePeriod, in CreateInput) (domainLoan.Terms, error) {
	rate := l.InterestRatePerPeriod
	if in.NewInterestRate != nil {
		rate = *in.NewInterestRate
	}

	var principal decimal.Decimal
	var n int
	if in.Type == domain.TypeReschedule {
		_, _, open := splitAt(periods, in.RescheduleFromDate)
		if open == 0 {
			return domainLoan.Terms{}, ErrNothingToReschedule
		}
		carryPrincipal, _ := overdueCarry(periods, in.RescheduleFromDate)
		principal = l.PrincipalOutstanding.Sub(carryPrincipal)
		n = open + in.ExtraInstallments
	} else {
		principal = l.TotalOutstanding()
		n = l.NumberOfRepayments + in.ExtraInstallments
	}
	return remainingTerms(l, principal, rate, n, in.RescheduleFromDate, in.EMIOverride)
}

// remainingTerms keeps the loan's cadence and methods but re-anchors the
// walk at the cut-over date. An EMI override is expressed through the
// variable-installment path so the generator stays the single source of
// schedule math.
func remainingTerms(l *domainLoan.Loan, principal, rate decimal.Decimal, n int, from time.Time, emi *decimal.Decimal) (domainLoan.Terms, error) {
	t := domainLoan.Terms{
		Principal:             principal,
		Currency:              l.Currency,
		InterestRatePerPeriod: rate,
		InterestMethod:        l.InterestMethod,
		AmortizationMethod:    l.AmortizationMethod,
		TermFrequency:         n * l.RepaymentEvery,
		TermUnit:              l.RepaymentUnit,
		NumberOfRepayments:    n,
		RepaymentEvery:        l.RepaymentEvery,
		RepaymentUnit:         l.RepaymentUnit,
		DisbursementDate:      dateOnly(from),
	}
	if emi != nil {
		// Due dates follow the same month-end-clamped walk the generator
		// uses, so an override anchored on Jan 31 lands on Feb 28.
		installments := make([]domainLoan.VariableInstallment, 0, n)
		due := dateOnly(from)
		var err error
		for i := 1; i <= n; i++ {
			due, err = schedule.Advance(due, l.RepaymentEvery, l.RepaymentUnit)
			if err != nil {
				return domainLoan.Terms{}, err
			}
			amount := *emi
			installments = append(installments, domainLoan.VariableInstallment{
				InstallmentNumber: i,
				DueDate:           due,
				InstallmentAmount: &amount,
			})
		}
		t.VariableInstallments = &domainLoan.VariableInstallmentConfig{Installments: installments}
	}
	return t, nil
}

// splitAt returns the first open period number on/after the cut-over date,
// the count of completed repayment periods before it, and the count of open
// periods being replaced.
func splitAt(periods []domainLoan.SchedulePeriod, from time.Time) (fromPeriod, completed, open int) {
	fromPeriod = -1
	for i := range periods {
		p := &periods[i]
		if p.PeriodType != domainLoan.PeriodRepayment || !p.Active {
			continue
		}
		if p.Completed || p.DueDate.Before(from) {
			completed++
			continue
		}
		if fromPeriod == -1 {
			fromPeriod = p.PeriodNumber
		}
		open++
	}
	return fromPeriod, completed, open
}

// overdueCarry sums the outstanding principal and interest of active unpaid
// repayment periods due before the cut-over date. These periods survive the
// reschedule untouched and their balances stay owed alongside the new tail.
func overdueCarry(periods []domainLoan.SchedulePeriod, from time.Time) (principal, interest decimal.Decimal) {
	for i := range periods {
		p := &periods[i]
		if p.PeriodType != domainLoan.PeriodRepayment || !p.Active || p.Completed {
			continue
		}
		if !p.DueDate.Before(from) {
			continue
		}
		principal = principal.Add(p.PrincipalOutstanding)
		interest = interest.Add(p.InterestOutstanding)
	}
	return principal, interest
}

func emiOverride(req *domain.Request) *decimal.Decimal {
	if !req.EMIOverride.Valid {
		return nil
	}
	v := req.EMIOverride.Decimal
	return &v
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
