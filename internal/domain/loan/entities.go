package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive            Status = "active"
	StatusClosed            Status = "closed"
	StatusClosedRescheduled Status = "closed_rescheduled"
	StatusOverpaid          Status = "overpaid"
)

type InterestMethod string

const (
	InterestFlat      InterestMethod = "flat"
	InterestDeclining InterestMethod = "declining_balance"
	InterestCompound  InterestMethod = "compound"
)

func (m InterestMethod) Valid() bool {
	switch m {
	case InterestFlat, InterestDeclining, InterestCompound:
		return true
	}
	return false
}

type AmortizationMethod string

const (
	AmortizeEqualInstallments AmortizationMethod = "equal_installments"
	AmortizeEqualPrincipal    AmortizationMethod = "equal_principal"
)

func (m AmortizationMethod) Valid() bool {
	return m == AmortizeEqualInstallments || m == AmortizeEqualPrincipal
}

type FrequencyUnit string

const (
	FrequencyDays   FrequencyUnit = "days"
	FrequencyWeeks  FrequencyUnit = "weeks"
	FrequencyMonths FrequencyUnit = "months"
	FrequencyYears  FrequencyUnit = "years"
)

func (u FrequencyUnit) Valid() bool {
	switch u {
	case FrequencyDays, FrequencyWeeks, FrequencyMonths, FrequencyYears:
		return true
	}
	return false
}

type PeriodType string

const (
	PeriodDisbursement PeriodType = "disbursement"
	PeriodDownPayment  PeriodType = "downpayment"
	PeriodRepayment    PeriodType = "repayment"
)

// Loan carries both the servicing state and the full set of origination
// terms, so a schedule can be regenerated from the row alone (prepayment
// benefit comparison, restructuring).
type Loan struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID   string `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	ClientID string `gorm:"size:32;index:idx_loans_client" json:"client_id"`

	Principal             decimal.Decimal    `gorm:"type:decimal(19,6)" json:"principal"`
	Currency              string             `gorm:"size:3" json:"currency"`
	InterestRatePerPeriod decimal.Decimal    `gorm:"type:decimal(19,6)" json:"interest_rate_per_period"`
	AnnualInterestRate    decimal.Decimal    `gorm:"type:decimal(19,6)" json:"annual_interest_rate"`
	InterestMethod        InterestMethod     `gorm:"size:32" json:"interest_method"`
	AmortizationMethod    AmortizationMethod `gorm:"size:32" json:"amortization_method"`

	TermFrequency      int           `json:"term_frequency"`
	TermUnit           FrequencyUnit `gorm:"size:16" json:"term_unit"`
	NumberOfRepayments int           `json:"number_of_repayments"`
	RepaymentEvery     int           `json:"repayment_every"`
	RepaymentUnit      FrequencyUnit `gorm:"size:16" json:"repayment_unit"`
	DisbursementDate   time.Time     `gorm:"type:date" json:"disbursement_date"`

	GraceOnPrincipal int `json:"grace_on_principal"`
	GraceOnInterest  int `json:"grace_on_interest"`

	DownPaymentEnabled    bool                `json:"down_payment_enabled"`
	DownPaymentFixed      decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"down_payment_fixed,omitempty"`
	DownPaymentPercentage decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"down_payment_percentage,omitempty"`

	PaymentStrategy string `gorm:"size:64" json:"payment_strategy"`

	EarlyPaymentPenaltyRate decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"early_payment_penalty_rate,omitempty"`
	LastAccrualDate         *time.Time          `gorm:"type:date" json:"last_accrual_date,omitempty"`

	PrincipalOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_outstanding"`
	InterestOutstanding  decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_outstanding"`
	FeeOutstanding       decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_outstanding"`
	PenaltyOutstanding   decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_outstanding"`
	TotalRepaid          decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_repaid"`

	// Set on loans spawned by refinance/restructure, pointing at the source.
	SourceLoanID *uint64 `gorm:"index" json:"-"`

	Status          Status     `gorm:"size:32;default:'active'" json:"status"`
	StatusUpdatedAt time.Time  `gorm:"autoCreateTime" json:"status_updated_at"`
	ClosedDate      *time.Time `gorm:"type:date" json:"closed_date,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// TotalOutstanding is the sum of the four outstanding components.
func (l *Loan) TotalOutstanding() decimal.Decimal {
	return l.PrincipalOutstanding.
		Add(l.InterestOutstanding).
		Add(l.FeeOutstanding).
		Add(l.PenaltyOutstanding)
}

// Terms rebuilds the origination Terms from the stored row.
func (l *Loan) Terms() Terms {
	t := Terms{
		Principal:             l.Principal,
		Currency:              l.Currency,
		InterestRatePerPeriod: l.InterestRatePerPeriod,
		InterestMethod:        l.InterestMethod,
		AmortizationMethod:    l.AmortizationMethod,
		TermFrequency:         l.TermFrequency,
		TermUnit:              l.TermUnit,
		NumberOfRepayments:    l.NumberOfRepayments,
		RepaymentEvery:        l.RepaymentEvery,
		RepaymentUnit:         l.RepaymentUnit,
		DisbursementDate:      l.DisbursementDate,
		GraceOnPrincipal:      l.GraceOnPrincipal,
		GraceOnInterest:       l.GraceOnInterest,
	}
	if l.DownPaymentEnabled {
		dp := &DownPaymentConfig{}
		if l.DownPaymentFixed.Valid {
			v := l.DownPaymentFixed.Decimal
			dp.FixedAmount = &v
		}
		if l.DownPaymentPercentage.Valid {
			v := l.DownPaymentPercentage.Decimal
			dp.Percentage = &v
		}
		t.DownPayment = dp
	}
	return t
}

// SchedulePeriod is one row of a loan's repayment schedule. Every due/paid/
// waived/writtenOff/outstanding quintuple keeps the identity
// due = paid + waived + writtenOff + outstanding at all times.
type SchedulePeriod struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID uint64 `gorm:"index:idx_periods_loan;column:loan_id" json:"-"`

	PeriodNumber int        `json:"period_number"`
	PeriodType   PeriodType `gorm:"size:16" json:"period_type"`
	FromDate     time.Time  `gorm:"type:date" json:"from_date"`
	DueDate      time.Time  `gorm:"type:date" json:"due_date"`

	PrincipalDue         decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_due"`
	PrincipalPaid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_paid"`
	PrincipalWaived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_waived"`
	PrincipalWrittenOff  decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_written_off"`
	PrincipalOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_outstanding"`

	InterestDue         decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_due"`
	InterestPaid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_paid"`
	InterestWaived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_waived"`
	InterestWrittenOff  decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_written_off"`
	InterestOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_outstanding"`

	FeeChargesDue         decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_charges_due"`
	FeeChargesPaid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_charges_paid"`
	FeeChargesWaived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_charges_waived"`
	FeeChargesWrittenOff  decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_charges_written_off"`
	FeeChargesOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_charges_outstanding"`

	PenaltyChargesDue         decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_charges_due"`
	PenaltyChargesPaid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_charges_paid"`
	PenaltyChargesWaived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_charges_waived"`
	PenaltyChargesWrittenOff  decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_charges_written_off"`
	PenaltyChargesOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_charges_outstanding"`

	// Running outstanding principal balance after this period.
	PrincipalBalanceOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_balance_outstanding"`

	TotalDue         decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_due"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_paid"`
	TotalWaived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_waived"`
	TotalWrittenOff  decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_written_off"`
	TotalOutstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"total_outstanding"`

	Completed bool `json:"completed"`
	// Cleared when a reschedule replaces this installment.
	Active bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (SchedulePeriod) TableName() string { return "loan_schedule_periods" }

// Overdue reports whether the period still carries an unpaid balance past due.
func (p *SchedulePeriod) Overdue(asOf time.Time) bool {
	return p.PeriodType == PeriodRepayment && p.Active && !p.Completed &&
		p.TotalOutstanding.IsPositive() && p.DueDate.Before(asOf)
}

type ChargeTimeType string

const (
	ChargeAtDisbursement      ChargeTimeType = "disbursement"
	ChargeSpecifiedDueDate    ChargeTimeType = "specified_due_date"
	ChargeInstallmentFee      ChargeTimeType = "installment_fee"
	ChargeOverdueInstallment  ChargeTimeType = "overdue_installment"
	ChargeOverdueMaturity     ChargeTimeType = "overdue_maturity"
	ChargeTrancheDisbursement ChargeTimeType = "tranche_disbursement"
)

func (t ChargeTimeType) Valid() bool {
	switch t {
	case ChargeAtDisbursement, ChargeSpecifiedDueDate, ChargeInstallmentFee,
		ChargeOverdueInstallment, ChargeOverdueMaturity, ChargeTrancheDisbursement:
		return true
	}
	return false
}

type ChargeCalcType string

const (
	CalcFlat                      ChargeCalcType = "flat"
	CalcPercentOfAmount           ChargeCalcType = "percent_of_amount"
	CalcPercentOfAmountInterest   ChargeCalcType = "percent_of_amount_and_interest"
	CalcPercentOfInterest         ChargeCalcType = "percent_of_interest"
	CalcPercentOfDisbursement     ChargeCalcType = "percent_of_disbursement_amount"
	CalcPercentOfTotalOutstanding ChargeCalcType = "percent_of_total_outstanding"
)

func (t ChargeCalcType) Valid() bool {
	switch t {
	case CalcFlat, CalcPercentOfAmount, CalcPercentOfAmountInterest,
		CalcPercentOfInterest, CalcPercentOfDisbursement, CalcPercentOfTotalOutstanding:
		return true
	}
	return false
}

// Charge is a fee or penalty attached to a loan.
type Charge struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID   uint64 `gorm:"index:idx_charges_loan;column:loan_id" json:"-"`
	ChargeID string `gorm:"size:32;uniqueIndex:ux_charges_charge_id" json:"charge_id"`
	Name     string `gorm:"size:128" json:"name"`

	Amount     decimal.Decimal     `gorm:"type:decimal(19,6)" json:"amount"`
	Currency   string              `gorm:"size:3" json:"currency"`
	TimeType   ChargeTimeType      `gorm:"size:32" json:"time_type"`
	CalcType   ChargeCalcType      `gorm:"size:40" json:"calculation_type"`
	Percentage decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"percentage,omitempty"`
	IsPenalty  bool                `json:"is_penalty"`

	Paid        decimal.Decimal `gorm:"type:decimal(19,6)" json:"paid"`
	Waived      decimal.Decimal `gorm:"type:decimal(19,6)" json:"waived"`
	Outstanding decimal.Decimal `gorm:"type:decimal(19,6)" json:"outstanding"`

	DueDate *time.Time `gorm:"type:date" json:"due_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Charge) TableName() string { return "loan_charges" }

type TransactionType string

const (
	TxDisbursement TransactionType = "disbursement"
	TxRepayment    TransactionType = "repayment"
	TxPrepayment   TransactionType = "prepayment"
	TxClose        TransactionType = "close_reschedule"
)

// Transaction is one money movement against a loan.
type Transaction struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string          `gorm:"size:32;uniqueIndex:ux_loan_tx_id" json:"transaction_id"`
	LoanID        uint64          `gorm:"index:idx_loan_tx_loan;column:loan_id" json:"-"`
	Type          TransactionType `gorm:"size:32" json:"type"`

	Amount           decimal.Decimal `gorm:"type:decimal(19,6)" json:"amount"`
	Currency         string          `gorm:"size:3" json:"currency"`
	PrincipalPortion decimal.Decimal `gorm:"type:decimal(19,6)" json:"principal_portion"`
	InterestPortion  decimal.Decimal `gorm:"type:decimal(19,6)" json:"interest_portion"`
	FeePortion       decimal.Decimal `gorm:"type:decimal(19,6)" json:"fee_portion"`
	PenaltyPortion   decimal.Decimal `gorm:"type:decimal(19,6)" json:"penalty_portion"`
	Unallocated      decimal.Decimal `gorm:"type:decimal(19,6)" json:"unallocated"`

	TransactionDate time.Time `gorm:"type:date" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "loan_transactions" }

// PaymentDetail records how a repayment transaction was tendered.
type PaymentDetail struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	TransactionID uint64    `gorm:"index;column:transaction_id" json:"-"`
	Method        string    `gorm:"size:32" json:"method"`
	AccountNumber string    `gorm:"size:64" json:"account_number,omitempty"`
	ReceiptNumber string    `gorm:"size:64" json:"receipt_number,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"-"`
}

func (PaymentDetail) TableName() string { return "loan_payment_details" }
