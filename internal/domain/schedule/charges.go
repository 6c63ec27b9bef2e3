package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loan-servicing-engine/internal/domain/loan"
)

var hundred = decimal.NewFromInt(100)

// applyCharges distributes charges onto the schedule periods and returns the
// charges with their resolved amount and outstanding set. Overdue charge
// types are servicing-time charges; they are returned untouched and nothing
// is applied for them at generation time.
func applyCharges(s *Schedule, charges []loan.Charge) ([]loan.Charge, error) {
	if len(charges) == 0 {
		return nil, nil
	}
	out := make([]loan.Charge, len(charges))
	copy(out, charges)

	disbursed := s.Periods[0].PrincipalBalanceOutstanding

	for i := range out {
		c := &out[i]
		if !c.TimeType.Valid() {
			return nil, fmt.Errorf("invalid charge time type %q", c.TimeType)
		}
		if !c.CalcType.Valid() {
			return nil, fmt.Errorf("invalid charge calculation type %q", c.CalcType)
		}

		switch c.TimeType {
		case loan.ChargeAtDisbursement, loan.ChargeTrancheDisbursement:
			// All percentage bases collapse to the disbursed principal here;
			// no interest exists yet at disbursement.
			amount := chargeAmount(c, disbursed)
			applyToPeriod(&s.Periods[0], c.IsPenalty, amount)
			c.Amount = amount
			c.Outstanding = amount

		case loan.ChargeSpecifiedDueDate:
			idx := targetPeriodIndex(s, c)
			base := specifiedDueDateBase(s, c, disbursed, idx)
			amount := chargeAmount(c, base)
			applyToPeriod(&s.Periods[idx], c.IsPenalty, amount)
			c.Amount = amount
			c.Outstanding = amount

		case loan.ChargeInstallmentFee:
			total := chargeAmount(c, installmentFeeBase(s, c, disbursed))
			spreadOverInstallments(s, c.IsPenalty, total)
			c.Amount = total
			c.Outstanding = total

		case loan.ChargeOverdueInstallment, loan.ChargeOverdueMaturity:
			// Applied dynamically once an installment is overdue or the loan
			// reaches maturity unpaid; left unapplied here.
		}
	}
	return out, nil
}

// chargeAmount resolves a charge against its base, 2dp.
func chargeAmount(c *loan.Charge, base decimal.Decimal) decimal.Decimal {
	if c.CalcType == loan.CalcFlat {
		return c.Amount.Round(2)
	}
	if !c.Percentage.Valid {
		return decimal.Zero
	}
	return c.Percentage.Decimal.Div(hundred).Mul(base).Round(2)
}

// targetPeriodIndex picks the first repayment period due on/after the
// charge's due date, falling back to the last repayment period.
func targetPeriodIndex(s *Schedule, c *loan.Charge) int {
	lastRepayment := -1
	for i := range s.Periods {
		if s.Periods[i].PeriodType != loan.PeriodRepayment {
			continue
		}
		lastRepayment = i
		if c.DueDate != nil && !s.Periods[i].DueDate.Before(*c.DueDate) {
			return i
		}
	}
	return lastRepayment
}

func specifiedDueDateBase(s *Schedule, c *loan.Charge, disbursed decimal.Decimal, periodIdx int) decimal.Decimal {
	switch c.CalcType {
	case loan.CalcPercentOfAmount:
		return s.TotalPrincipal
	case loan.CalcPercentOfAmountInterest:
		return s.TotalPrincipal.Add(s.TotalInterest)
	case loan.CalcPercentOfInterest:
		return s.TotalInterest
	case loan.CalcPercentOfDisbursement:
		return disbursed
	case loan.CalcPercentOfTotalOutstanding:
		return s.Periods[periodIdx].PrincipalBalanceOutstanding
	default:
		return decimal.Zero
	}
}

func installmentFeeBase(s *Schedule, c *loan.Charge, disbursed decimal.Decimal) decimal.Decimal {
	switch c.CalcType {
	case loan.CalcPercentOfAmount:
		return s.TotalPrincipal
	case loan.CalcPercentOfAmountInterest:
		return s.TotalPrincipal.Add(s.TotalInterest)
	case loan.CalcPercentOfInterest:
		return s.TotalInterest
	case loan.CalcPercentOfDisbursement, loan.CalcPercentOfTotalOutstanding:
		return disbursed
	default:
		return decimal.Zero
	}
}

// spreadOverInstallments splits total evenly across repayment periods; the
// last period absorbs the rounding remainder so the parts sum exactly.
func spreadOverInstallments(s *Schedule, penalty bool, total decimal.Decimal) {
	repayments := s.RepaymentPeriods()
	n := len(repayments)
	if n == 0 {
		return
	}
	share := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	allocated := decimal.Zero
	for i, p := range repayments {
		amount := share
		if i == n-1 {
			amount = total.Sub(allocated)
		}
		applyToPeriod(p, penalty, amount)
		allocated = allocated.Add(amount)
	}
}

func applyToPeriod(p *loan.SchedulePeriod, penalty bool, amount decimal.Decimal) {
	if penalty {
		p.PenaltyChargesDue = p.PenaltyChargesDue.Add(amount)
		p.PenaltyChargesOutstanding = p.PenaltyChargesOutstanding.Add(amount)
	} else {
		p.FeeChargesDue = p.FeeChargesDue.Add(amount)
		p.FeeChargesOutstanding = p.FeeChargesOutstanding.Add(amount)
	}
	p.TotalDue = p.TotalDue.Add(amount)
	p.TotalOutstanding = p.TotalOutstanding.Add(amount)
}
