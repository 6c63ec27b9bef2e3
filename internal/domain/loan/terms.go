package loan

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

var oneHundred = decimal.NewFromInt(100)

// DownPaymentConfig is an upfront principal reduction collected on the
// disbursement date. Exactly one of FixedAmount/Percentage must be set.
type DownPaymentConfig struct {
	FixedAmount *decimal.Decimal `json:"fixed_amount,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
}

// VariableInstallment is one caller-specified installment. Amounts left nil
// are derived during generation.
type VariableInstallment struct {
	InstallmentNumber int              `json:"installment_number"`
	DueDate           time.Time        `json:"due_date"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`
	Principal         *decimal.Decimal `json:"principal,omitempty"`
	Interest          *decimal.Decimal `json:"interest,omitempty"`
}

// VariableInstallmentConfig replaces the fixed cadence with per-installment
// dates and amounts.
type VariableInstallmentConfig struct {
	Installments      []VariableInstallment `json:"installments"`
	MinimumGapDays    int                   `json:"minimum_gap_days"`
	MaximumGapDays    int                   `json:"maximum_gap_days"`
	MinimumInstallment decimal.Decimal      `json:"minimum_installment"`
}

// InterestRecalculationConfig enables rebuilding the schedule when balances
// change mid-term (early payments, pauses). Only the switch and cadence are
// modelled; the rebuild itself reuses the generator.
type InterestRecalculationConfig struct {
	Enabled          bool          `json:"enabled"`
	RecalculateEvery int           `json:"recalculate_every"`
	FrequencyUnit    FrequencyUnit `json:"frequency_unit"`
}

// Terms is the validated input for schedule generation.
type Terms struct {
	Principal             decimal.Decimal    `json:"principal"`
	Currency              string             `json:"currency"`
	InterestRatePerPeriod decimal.Decimal    `json:"interest_rate_per_period"` // percentage
	InterestMethod        InterestMethod     `json:"interest_method"`
	AmortizationMethod    AmortizationMethod `json:"amortization_method"`

	TermFrequency      int           `json:"term_frequency"`
	TermUnit           FrequencyUnit `json:"term_unit"`
	NumberOfRepayments int           `json:"number_of_repayments"`
	RepaymentEvery     int           `json:"repayment_every"`
	RepaymentUnit      FrequencyUnit `json:"repayment_unit"`
	DisbursementDate   time.Time     `json:"disbursement_date"`

	GraceOnPrincipal int `json:"grace_on_principal"`
	GraceOnInterest  int `json:"grace_on_interest"`

	DownPayment          *DownPaymentConfig           `json:"down_payment,omitempty"`
	VariableInstallments *VariableInstallmentConfig   `json:"variable_installments,omitempty"`
	InterestRecalc       *InterestRecalculationConfig `json:"interest_recalculation,omitempty"`
}

// Validate applies the structural invariants. It does not touch anything
// date-walk or amortization specific; those fail as calculation errors.
func (t Terms) Validate() error {
	if !t.Principal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if !currencyRe.MatchString(t.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, t.Currency)
	}
	if t.InterestRatePerPeriod.IsNegative() {
		return ErrNegativeRate
	}
	if !t.InterestMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInterestMethod, t.InterestMethod)
	}
	if !t.AmortizationMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAmortization, t.AmortizationMethod)
	}
	if t.NumberOfRepayments <= 0 {
		return ErrInvalidRepayments
	}
	if t.RepaymentEvery <= 0 {
		return fmt.Errorf("%w: repayment_every must be positive", ErrInvalidFrequencyUnit)
	}
	if !t.RepaymentUnit.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequencyUnit, t.RepaymentUnit)
	}
	if t.TermUnit != "" && !t.TermUnit.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequencyUnit, t.TermUnit)
	}
	if t.DisbursementDate.IsZero() {
		return fmt.Errorf("disbursement date is required")
	}
	if t.DownPayment != nil {
		if err := t.validateDownPayment(); err != nil {
			return err
		}
	}
	if t.VariableInstallments != nil {
		if err := t.validateVariableInstallments(); err != nil {
			return err
		}
	}
	return nil
}

func (t Terms) validateDownPayment() error {
	dp := t.DownPayment
	if (dp.FixedAmount == nil) == (dp.Percentage == nil) {
		return ErrDownPaymentConflict
	}
	if dp.FixedAmount != nil {
		if !dp.FixedAmount.IsPositive() || dp.FixedAmount.GreaterThanOrEqual(t.Principal) {
			return ErrInvalidDownPayment
		}
	}
	if dp.Percentage != nil {
		if !dp.Percentage.IsPositive() || dp.Percentage.GreaterThanOrEqual(oneHundred) {
			return ErrInvalidDownPayment
		}
	}
	return nil
}

func (t Terms) validateVariableInstallments() error {
	cfg := t.VariableInstallments
	if len(cfg.Installments) != t.NumberOfRepayments {
		return fmt.Errorf("%w: got %d, want %d",
			ErrInstallmentCountMismatch, len(cfg.Installments), t.NumberOfRepayments)
	}
	sorted := cfg.SortedInstallments()
	prev := t.DisbursementDate
	for i, inst := range sorted {
		gap := daysBetween(prev, inst.DueDate)
		if gap < cfg.MinimumGapDays || (cfg.MaximumGapDays > 0 && gap > cfg.MaximumGapDays) {
			return fmt.Errorf("%w: installment %d gap %d days not in [%d,%d]",
				ErrInstallmentGap, inst.InstallmentNumber, gap, cfg.MinimumGapDays, cfg.MaximumGapDays)
		}
		if inst.InstallmentAmount != nil && cfg.MinimumInstallment.IsPositive() &&
			inst.InstallmentAmount.LessThan(cfg.MinimumInstallment) {
			return fmt.Errorf("%w: installment %d", ErrInstallmentTooSmall, sorted[i].InstallmentNumber)
		}
		prev = inst.DueDate
	}
	return nil
}

// SortedInstallments returns the installments ordered by installment number
// without mutating the config.
func (c *VariableInstallmentConfig) SortedInstallments() []VariableInstallment {
	out := make([]VariableInstallment, len(c.Installments))
	copy(out, c.Installments)
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstallmentNumber < out[j].InstallmentNumber
	})
	return out
}

// DownPaymentAmount resolves the configured down payment against the
// principal, rounded to 2dp (schedule rounding regime).
func (t Terms) DownPaymentAmount() decimal.Decimal {
	if t.DownPayment == nil {
		return decimal.Zero
	}
	if t.DownPayment.FixedAmount != nil {
		return t.DownPayment.FixedAmount.Round(2)
	}
	return t.DownPayment.Percentage.Div(oneHundred).Mul(t.Principal).Round(2)
}

// PeriodRate is the per-period interest rate as a fraction (rate% / 100).
func (t Terms) PeriodRate() decimal.Decimal {
	return t.InterestRatePerPeriod.Div(oneHundred)
}

func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
