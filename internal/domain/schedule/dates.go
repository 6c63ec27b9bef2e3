package schedule

import (
	"fmt"
	"time"

	"loan-servicing-engine/internal/domain/loan"
)

// addMonthsClamped adds months keeping the day-of-month, clamping to the last
// day of the target month instead of rolling over (Jan 31 + 1 month = Feb 28).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, time.Month(int(m)+months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

// Advance moves a date forward by n units of the repayment frequency.
func Advance(t time.Time, n int, unit loan.FrequencyUnit) (time.Time, error) {
	switch unit {
	case loan.FrequencyDays:
		return t.AddDate(0, 0, n), nil
	case loan.FrequencyWeeks:
		return t.AddDate(0, 0, 7*n), nil
	case loan.FrequencyMonths:
		return addMonthsClamped(t, n), nil
	case loan.FrequencyYears:
		return addMonthsClamped(t, 12*n), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", loan.ErrUnsupportedFrequency, unit)
	}
}

// repaymentDates walks the cadence: the anchor is the disbursement date
// shifted by the principal grace period, then one step per installment.
func repaymentDates(terms loan.Terms) ([]time.Time, error) {
	anchor := terms.DisbursementDate
	var err error
	for i := 0; i < terms.GraceOnPrincipal; i++ {
		anchor, err = Advance(anchor, terms.RepaymentEvery, terms.RepaymentUnit)
		if err != nil {
			return nil, err
		}
	}
	dates := make([]time.Time, 0, terms.NumberOfRepayments)
	cur := anchor
	for i := 0; i < terms.NumberOfRepayments; i++ {
		cur, err = Advance(cur, terms.RepaymentEvery, terms.RepaymentUnit)
		if err != nil {
			return nil, err
		}
		dates = append(dates, cur)
	}
	return dates, nil
}
