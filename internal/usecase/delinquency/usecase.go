package delinquency

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domainDelinquency "loan-servicing-engine/internal/domain/delinquency"
	domainLoan "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/uow"
)

// ChargeMapping decides which penalty charge, if any, a classification
// change should insert. Supplied by the caller; returning nil means no
// charge.
type ChargeMapping func(c domainDelinquency.Classification) *domainLoan.Charge

type Usecase struct {
	uow     uow.UnitOfWork
	mapping ChargeMapping
}

func NewUsecase(tx uow.UnitOfWork, mapping ChargeMapping) *Usecase {
	return &Usecase{uow: tx, mapping: mapping}
}

type DetailDTO struct {
	LoanID                 string                            `json:"loan_id"`
	Classification         domainDelinquency.Classification  `json:"classification"`
	PreviousClassification domainDelinquency.Classification  `json:"previous_classification,omitempty"`
	DelinquentDays         int                               `json:"delinquent_days"`
	DelinquentAmount       decimal.Decimal                   `json:"delinquent_amount"`
	IsActive               bool                              `json:"is_active"`
}

// ProcessLoan recomputes the loan's delinquency state as of the given day.
func (u *Usecase) ProcessLoan(ctx context.Context, loanID string, asOf time.Time) (*DetailDTO, error) {
	var out *DetailDTO

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		_, periods, err := r.Loans.GetWithInstallments(ctx, loanID)
		if err != nil {
			return err
		}

		var oldestDue time.Time
		var amount decimal.Decimal
		for i := range periods {
			p := &periods[i]
			if !p.Overdue(asOf) {
				continue
			}
			if oldestDue.IsZero() || p.DueDate.Before(oldestDue) {
				oldestDue = p.DueDate
			}
			amount = amount.Add(p.TotalOutstanding)
		}

		detail, err := r.Delinquencies.GetByLoanID(ctx, l.ID)
		notFound := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !notFound {
			return err
		}

		if oldestDue.IsZero() {
			// Nothing overdue: clear an active record, otherwise no-op.
			if !notFound && detail.IsActive {
				detail.IsActive = false
				detail.DelinquentDays = 0
				detail.DelinquentAmount = decimal.Zero
				if err := r.Delinquencies.Save(ctx, detail); err != nil {
					return err
				}
				out = toDTO(l.LoanID, detail)
			}
			return nil
		}

		days := daysBetween(oldestDue, asOf)
		cls := domainDelinquency.Classify(days)
		now := time.Now().UTC()

		if notFound {
			detail = &domainDelinquency.Detail{
				LoanID:           l.ID,
				Classification:   cls,
				DelinquentDays:   days,
				DelinquentAmount: amount,
				DelinquentDate:   &oldestDue,
				IsActive:         true,
			}
			if err := r.Delinquencies.Create(ctx, detail); err != nil {
				return err
			}
			u.insertPenalty(ctx, r, l, periods, cls)
			out = toDTO(l.LoanID, detail)
			return nil
		}

		transitioned := detail.Classification != cls
		if transitioned {
			detail.PreviousClassification = detail.Classification
			detail.Classification = cls
			detail.LastTransitionAt = &now
		}
		detail.DelinquentDays = days
		detail.DelinquentAmount = amount
		detail.DelinquentDate = &oldestDue
		detail.IsActive = true
		if err := r.Delinquencies.Save(ctx, detail); err != nil {
			return err
		}
		if transitioned {
			u.insertPenalty(ctx, r, l, periods, cls)
		}
		out = toDTO(l.LoanID, detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// insertPenalty is best-effort: a failure is logged and never aborts the
// classification update.
func (u *Usecase) insertPenalty(ctx context.Context, r uow.Repos, l *domainLoan.Loan, periods []domainLoan.SchedulePeriod, cls domainDelinquency.Classification) {
	if u.mapping == nil {
		return
	}
	charge := u.mapping(cls)
	if charge == nil {
		return
	}
	charge.LoanID = l.ID
	charge.IsPenalty = true
	charge.Currency = l.Currency
	charge.Outstanding = charge.Amount
	if err := r.Loans.CreateCharges(ctx, []domainLoan.Charge{*charge}); err != nil {
		log.Printf("delinquency: penalty charge insert failed for loan %s: %v", l.LoanID, err)
		return
	}

	// Attach the penalty to the oldest overdue period.
	for i := range periods {
		p := &periods[i]
		if !p.Overdue(time.Now().UTC()) {
			continue
		}
		p.PenaltyChargesDue = p.PenaltyChargesDue.Add(charge.Amount)
		p.PenaltyChargesOutstanding = p.PenaltyChargesOutstanding.Add(charge.Amount)
		p.TotalDue = p.TotalDue.Add(charge.Amount)
		p.TotalOutstanding = p.TotalOutstanding.Add(charge.Amount)
		if err := r.Loans.UpdateSchedule(ctx, []domainLoan.SchedulePeriod{*p}); err != nil {
			log.Printf("delinquency: penalty schedule update failed for loan %s: %v", l.LoanID, err)
		}
		l.PenaltyOutstanding = l.PenaltyOutstanding.Add(charge.Amount)
		if err := r.Loans.Save(ctx, l); err != nil {
			log.Printf("delinquency: loan balance update failed for loan %s: %v", l.LoanID, err)
		}
		break
	}
}

type BatchResult struct {
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// ProcessAll iterates loans independently; one loan's failure must not abort
// the rest.
func (u *Usecase) ProcessAll(ctx context.Context, loanIDs []string, asOf time.Time) *BatchResult {
	res := &BatchResult{Errors: map[string]string{}}
	for _, loanID := range loanIDs {
		if _, err := u.ProcessLoan(ctx, loanID, asOf); err != nil {
			res.Failed++
			res.Errors[loanID] = err.Error()
			continue
		}
		res.Processed++
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}

func toDTO(loanID string, d *domainDelinquency.Detail) *DetailDTO {
	return &DetailDTO{
		LoanID:                 loanID,
		Classification:         d.Classification,
		PreviousClassification: d.PreviousClassification,
		DelinquentDays:         d.DelinquentDays,
		DelinquentAmount:       d.DelinquentAmount,
		IsActive:               d.IsActive,
	}
}

func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
