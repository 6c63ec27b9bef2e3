package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan-servicing-engine/internal/domain/loan"
)

// Schedule is the generated repayment plan. Aggregate totals cover
// repayment-type periods only; disbursement and down-payment periods carry
// principal separately.
type Schedule struct {
	Currency string                `json:"currency"`
	Periods  []loan.SchedulePeriod `json:"periods"`

	DownPaymentAmount decimal.Decimal `json:"down_payment_amount"`

	TotalPrincipal         decimal.Decimal `json:"total_principal"`
	TotalInterest          decimal.Decimal `json:"total_interest"`
	TotalFeeCharges        decimal.Decimal `json:"total_fee_charges"`
	TotalPenaltyCharges    decimal.Decimal `json:"total_penalty_charges"`
	TotalRepaymentExpected decimal.Decimal `json:"total_repayment_expected"`
	TotalOutstanding       decimal.Decimal `json:"total_outstanding"`
}

// residualTolerance is the largest closing balance a variable-installment
// schedule may leave without folding it into the final period.
var residualTolerance = decimal.NewFromFloat(0.01)

// Generate produces a Schedule from validated Terms, then applies the given
// charges and recomputes totals. Schedule arithmetic is rounded to 2dp at
// each step; this is a fixed rule independent of the Money precision table.
func Generate(terms loan.Terms, charges []loan.Charge) (*Schedule, []loan.Charge, error) {
	if err := terms.Validate(); err != nil {
		return nil, nil, err
	}

	downPayment := terms.DownPaymentAmount()
	effective := terms.Principal.Sub(downPayment)
	if terms.DownPayment != nil && !effective.IsPositive() {
		return nil, nil, loan.ErrInvalidDownPayment
	}

	s := &Schedule{Currency: terms.Currency, DownPaymentAmount: downPayment}

	disb := dateOnly(terms.DisbursementDate)
	s.Periods = append(s.Periods, loan.SchedulePeriod{
		PeriodNumber:                0,
		PeriodType:                  loan.PeriodDisbursement,
		FromDate:                    disb,
		DueDate:                     disb,
		PrincipalBalanceOutstanding: terms.Principal,
		Active:                      true,
	})

	periodNumber := 1
	if terms.DownPayment != nil {
		p := newRepaymentPeriod(periodNumber, loan.PeriodDownPayment, disb, disb, downPayment, decimal.Zero)
		p.PrincipalBalanceOutstanding = effective
		s.Periods = append(s.Periods, p)
		periodNumber++
	}

	var err error
	if terms.VariableInstallments != nil {
		err = generateVariable(s, terms, effective, periodNumber)
	} else {
		err = generateRegular(s, terms, effective, periodNumber)
	}
	if err != nil {
		return nil, nil, err
	}

	s.recomputeTotals()

	applied, err := applyCharges(s, charges)
	if err != nil {
		return nil, nil, err
	}
	if len(applied) > 0 {
		s.recomputeTotals()
	}
	return s, applied, nil
}

func generateRegular(s *Schedule, terms loan.Terms, effective decimal.Decimal, periodNumber int) error {
	dates, err := repaymentDates(terms)
	if err != nil {
		return err
	}

	rate := terms.PeriodRate()
	n := terms.NumberOfRepayments
	nDec := decimal.NewFromInt(int64(n))

	var emi, totalCompoundInterest, compoundInterestPer decimal.Decimal
	if terms.AmortizationMethod == loan.AmortizeEqualInstallments {
		emi, err = computeEMI(terms, effective)
		if err != nil {
			return err
		}
		if terms.InterestMethod == loan.InterestCompound {
			growth := onePlus(rate).Pow(nDec)
			totalCompoundInterest = effective.Mul(growth.Sub(decimal.NewFromInt(1))).Round(2)
			compoundInterestPer = totalCompoundInterest.Div(nDec).Round(2)
		}
	}

	equalPrincipalShare := effective.Div(nDec).Round(2)
	equalInstallmentShare := effective.Div(nDec).Round(2)
	flatInterestEqualPrincipal := effective.Mul(rate).Div(nDec).Round(2)
	flatInterestEqualInstallment := effective.Mul(rate).Round(2)

	outstanding := effective
	from := dateOnly(terms.DisbursementDate)
	var interestAccrued decimal.Decimal

	for i := 1; i <= n; i++ {
		last := i == n
		var principal, interest decimal.Decimal

		switch terms.AmortizationMethod {
		case loan.AmortizeEqualPrincipal:
			principal = equalPrincipalShare
			switch terms.InterestMethod {
			case loan.InterestFlat:
				interest = flatInterestEqualPrincipal
			default: // declining_balance, compound
				interest = outstanding.Mul(rate).Round(2)
			}

		case loan.AmortizeEqualInstallments:
			switch terms.InterestMethod {
			case loan.InterestFlat:
				principal = equalInstallmentShare
				interest = flatInterestEqualInstallment
			case loan.InterestDeclining:
				interest = outstanding.Mul(rate).Round(2)
				principal = emi.Sub(interest)
			case loan.InterestCompound:
				principal = equalInstallmentShare
				interest = compoundInterestPer
				if last {
					// Remainder of the precomputed total so sums match.
					interest = totalCompoundInterest.Sub(interestAccrued)
				}
			}
		}

		// Final period absorbs rounding so the loan amortizes exactly.
		if last || principal.GreaterThan(outstanding) {
			principal = outstanding
		}
		if i <= terms.GraceOnInterest {
			interest = decimal.Zero
		}

		outstanding = outstanding.Sub(principal)
		interestAccrued = interestAccrued.Add(interest)

		p := newRepaymentPeriod(periodNumber, loan.PeriodRepayment, from, dateOnly(dates[i-1]), principal, interest)
		p.PrincipalBalanceOutstanding = outstanding
		s.Periods = append(s.Periods, p)

		from = dateOnly(dates[i-1])
		periodNumber++
	}
	return nil
}

func generateVariable(s *Schedule, terms loan.Terms, effective decimal.Decimal, periodNumber int) error {
	rate := terms.PeriodRate()
	installments := terms.VariableInstallments.SortedInstallments()

	outstanding := effective
	from := dateOnly(terms.DisbursementDate)

	for idx, inst := range installments {
		remaining := len(installments) - idx

		var interest decimal.Decimal
		if inst.Interest != nil {
			interest = inst.Interest.Round(2)
		} else {
			interest = outstanding.Mul(rate).Round(2)
		}

		var principal decimal.Decimal
		switch {
		case inst.Principal != nil:
			principal = inst.Principal.Round(2)
		case inst.InstallmentAmount != nil:
			principal = inst.InstallmentAmount.Sub(interest).Round(2)
		default:
			principal = outstanding.Div(decimal.NewFromInt(int64(remaining))).Round(2)
		}

		outstanding = outstanding.Sub(principal)

		p := newRepaymentPeriod(periodNumber, loan.PeriodRepayment, from, dateOnly(inst.DueDate), principal, interest)
		p.PrincipalBalanceOutstanding = outstanding
		s.Periods = append(s.Periods, p)

		from = dateOnly(inst.DueDate)
		periodNumber++
	}

	// Fold any residual beyond the tolerance into the last installment and
	// force the closing balance to zero.
	if outstanding.Abs().GreaterThan(residualTolerance) {
		lastIdx := len(s.Periods) - 1
		p := &s.Periods[lastIdx]
		p.PrincipalDue = p.PrincipalDue.Add(outstanding).Round(2)
		p.PrincipalOutstanding = p.PrincipalDue
		p.TotalDue = p.PrincipalDue.Add(p.InterestDue)
		p.TotalOutstanding = p.TotalDue
		p.PrincipalBalanceOutstanding = decimal.Zero
	}
	return nil
}

func computeEMI(terms loan.Terms, principal decimal.Decimal) (decimal.Decimal, error) {
	rate := terms.PeriodRate()
	n := decimal.NewFromInt(int64(terms.NumberOfRepayments))

	switch terms.InterestMethod {
	case loan.InterestFlat:
		// (P + P*r*N) / N
		return principal.Add(principal.Mul(rate).Mul(n)).Div(n).Round(2), nil
	case loan.InterestDeclining:
		if rate.IsZero() {
			return principal.Div(n).Round(2), nil
		}
		// P * r * (1+r)^N / ((1+r)^N - 1)
		growth := onePlus(rate).Pow(n)
		num := principal.Mul(rate).Mul(growth)
		den := growth.Sub(decimal.NewFromInt(1))
		return num.Div(den).Round(2), nil
	case loan.InterestCompound:
		// futureValue / N, futureValue = P*(1+r)^N
		future := principal.Mul(onePlus(rate).Pow(n))
		return future.Div(n).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", loan.ErrInvalidInterestMethod, terms.InterestMethod)
	}
}

func newRepaymentPeriod(number int, kind loan.PeriodType, from, due time.Time, principal, interest decimal.Decimal) loan.SchedulePeriod {
	total := principal.Add(interest)
	return loan.SchedulePeriod{
		PeriodNumber:         number,
		PeriodType:           kind,
		FromDate:             from,
		DueDate:              due,
		PrincipalDue:         principal,
		PrincipalOutstanding: principal,
		InterestDue:          interest,
		InterestOutstanding:  interest,
		TotalDue:             total,
		TotalOutstanding:     total,
		Active:               true,
	}
}

func (s *Schedule) recomputeTotals() {
	var principal, interest, fees, penalties, outstanding decimal.Decimal
	for i := range s.Periods {
		p := &s.Periods[i]
		if p.PeriodType != loan.PeriodRepayment {
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

// RepaymentPeriods returns only the repayment-type periods.
func (s *Schedule) RepaymentPeriods() []*loan.SchedulePeriod {
	out := make([]*loan.SchedulePeriod, 0, len(s.Periods))
	for i := range s.Periods {
		if s.Periods[i].PeriodType == loan.PeriodRepayment {
			out = append(out, &s.Periods[i])
		}
	}
	return out
}

// MaturityDate is the due date of the final repayment period.
func (s *Schedule) MaturityDate() time.Time {
	var last time.Time
	for i := range s.Periods {
		if s.Periods[i].PeriodType == loan.PeriodRepayment {
			last = s.Periods[i].DueDate
		}
	}
	return last
}

func onePlus(rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(rate)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
