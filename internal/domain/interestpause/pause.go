package interestpause

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEndBeforeStart      = errors.New("pause end date must be after start date")
	ErrBeforeDisbursement  = errors.New("pause cannot start before disbursement")
	ErrOverlappingPause    = errors.New("pause overlaps an existing active pause")
	ErrPauseNotFound       = errors.New("interest pause not found")
	ErrPauseAlreadyEnded   = errors.New("interest pause already cancelled")
)

// Pause is a date range during which interest accrual is suspended.
type Pause struct {
	ID      uint64 `gorm:"primaryKey;column:id" json:"-"`
	PauseID string `gorm:"size:32;uniqueIndex:ux_pause_id" json:"pause_id"`
	LoanID  uint64 `gorm:"index:idx_pause_loan;column:loan_id" json:"-"`

	StartDate time.Time `gorm:"type:date" json:"start_date"`
	EndDate   time.Time `gorm:"type:date" json:"end_date"`
	Reason    string    `gorm:"type:text" json:"reason,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Pause) TableName() string { return "loan_interest_pauses" }

// InWindow reports whether the given date falls inside the pause (inclusive).
func (p *Pause) InWindow(at time.Time) bool {
	return p.IsActive && !at.Before(p.StartDate) && !at.After(p.EndDate)
}

// Overlaps uses the inclusive interval test: existing.start <= newEnd AND
// existing.end >= newStart.
func (p *Pause) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}

// Validate checks a new pause against the loan's disbursement date and the
// currently active pauses.
func Validate(start, end, disbursement time.Time, active []Pause) error {
	if start.Before(disbursement) {
		return ErrBeforeDisbursement
	}
	if !end.After(start) {
		return ErrEndBeforeStart
	}
	for i := range active {
		if active[i].IsActive && active[i].Overlaps(start, end) {
			return ErrOverlappingPause
		}
	}
	return nil
}

type interval struct {
	start, end time.Time
}

// TotalInterestFreeDays merges the active pauses and counts days inclusively.
// Intervals that touch or sit one day apart are merged into one span; the
// merged spans then contribute (end - start + 1) days each. [day1..day10] and
// [day11..day15] therefore collapse into a single 15-day span.
func TotalInterestFreeDays(pauses []Pause) int {
	var ivs []interval
	for i := range pauses {
		if pauses[i].IsActive {
			ivs = append(ivs, interval{dateOnly(pauses[i].StartDate), dateOnly(pauses[i].EndDate)})
		}
	}
	if len(ivs) == 0 {
		return 0
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start.Before(ivs[j].start) })

	merged := []interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		// merge when the gap is <= 1 day (touching or overlapping)
		if !iv.start.After(last.end.AddDate(0, 0, 1)) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	total := 0
	for _, iv := range merged {
		total += int(iv.end.Sub(iv.start).Hours()/24) + 1
	}
	return total
}

// InterestAdjustment is outstanding * dailyRate * freeDays, 2dp. dailyRate is
// (annualRate/100)/365.
func InterestAdjustment(outstandingPrincipal, annualRatePercent decimal.Decimal, freeDays int) decimal.Decimal {
	dailyRate := annualRatePercent.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(365))
	return outstandingPrincipal.Mul(dailyRate).Mul(decimal.NewFromInt(int64(freeDays))).Round(2)
}

type Repository interface {
	Create(ctx context.Context, p *Pause) error
	GetByPauseID(ctx context.Context, pauseID string) (*Pause, error)
	ListActiveByLoanID(ctx context.Context, loanID uint64) ([]Pause, error)
	Save(ctx context.Context, p *Pause) error
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
