package schedule

import (
	"errors"
	"testing"
	"time"

	"loan-servicing-engine/internal/domain/loan"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{d(2025, time.January, 31), 1, d(2025, time.February, 28)},
		{d(2024, time.January, 31), 1, d(2024, time.February, 29)}, // leap year
		{d(2025, time.January, 31), 2, d(2025, time.March, 31)},
		{d(2025, time.March, 31), 1, d(2025, time.April, 30)},
		{d(2025, time.January, 15), 1, d(2025, time.February, 15)},
		{d(2025, time.November, 30), 3, d(2026, time.February, 28)},
	}
	for _, tc := range cases {
		if got := addMonthsClamped(tc.in, tc.months); !got.Equal(tc.want) {
			t.Errorf("%s + %dmo => want %s, got %s",
				tc.in.Format("2006-01-02"), tc.months, tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}

func TestAdvanceUnits(t *testing.T) {
	start := d(2025, time.January, 1)

	got, err := Advance(start, 10, loan.FrequencyDays)
	if err != nil || !got.Equal(d(2025, time.January, 11)) {
		t.Fatalf("10 days => want 2025-01-11, got %s (%v)", got, err)
	}
	got, err = Advance(start, 2, loan.FrequencyWeeks)
	if err != nil || !got.Equal(d(2025, time.January, 15)) {
		t.Fatalf("2 weeks => want 2025-01-15, got %s (%v)", got, err)
	}
	got, err = Advance(start, 1, loan.FrequencyYears)
	if err != nil || !got.Equal(d(2026, time.January, 1)) {
		t.Fatalf("1 year => want 2026-01-01, got %s (%v)", got, err)
	}
	if _, err = Advance(start, 1, "fortnights"); !errors.Is(err, loan.ErrUnsupportedFrequency) {
		t.Fatalf("bad unit => want ErrUnsupportedFrequency, got %v", err)
	}
}

func TestRepaymentDatesGraceShiftsAnchor(t *testing.T) {
	terms := loan.Terms{
		NumberOfRepayments: 3,
		RepaymentEvery:     1,
		RepaymentUnit:      loan.FrequencyMonths,
		DisbursementDate:   d(2025, time.January, 15),
		GraceOnPrincipal:   2,
	}
	dates, err := repaymentDates(terms)
	if err != nil {
		t.Fatalf("repaymentDates: %v", err)
	}
	want := []time.Time{d(2025, time.April, 15), d(2025, time.May, 15), d(2025, time.June, 15)}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date[%d] => want %s, got %s", i, want[i].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}
}
