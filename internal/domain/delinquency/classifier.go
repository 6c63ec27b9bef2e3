package delinquency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Classification string

const (
	ClassificationNone Classification = "NONE"
	Delinquent30       Classification = "DELINQUENT_30"
	Delinquent60       Classification = "DELINQUENT_60"
	Delinquent90       Classification = "DELINQUENT_90"
	Delinquent120      Classification = "DELINQUENT_120"
	Delinquent150      Classification = "DELINQUENT_150"
	Delinquent180      Classification = "DELINQUENT_180"
)

// Classify maps days overdue to a classification band. Bands are half-open:
// [30,60) is DELINQUENT_30 and so on; at 180 and beyond it stays
// DELINQUENT_180.
func Classify(daysOverdue int) Classification {
	switch {
	case daysOverdue < 30:
		return ClassificationNone
	case daysOverdue < 60:
		return Delinquent30
	case daysOverdue < 90:
		return Delinquent60
	case daysOverdue < 120:
		return Delinquent90
	case daysOverdue < 150:
		return Delinquent120
	case daysOverdue < 180:
		return Delinquent150
	default:
		return Delinquent180
	}
}

// Detail tracks a loan's delinquency lifecycle: created on the first overdue
// installment, updated daily, deactivated once nothing remains overdue.
type Detail struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID uint64 `gorm:"uniqueIndex:ux_delinquency_loan;column:loan_id" json:"-"`

	Classification         Classification  `gorm:"size:32" json:"classification"`
	PreviousClassification Classification  `gorm:"size:32" json:"previous_classification,omitempty"`
	DelinquentDays         int             `json:"delinquent_days"`
	DelinquentAmount       decimal.Decimal `gorm:"type:decimal(19,6)" json:"delinquent_amount"`
	DelinquentDate         *time.Time      `gorm:"type:date" json:"delinquent_date,omitempty"`
	LastTransitionAt       *time.Time      `json:"last_transition_at,omitempty"`
	IsActive               bool            `json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Detail) TableName() string { return "loan_delinquency_details" }

type Repository interface {
	GetByLoanID(ctx context.Context, loanID uint64) (*Detail, error)
	Create(ctx context.Context, d *Detail) error
	Save(ctx context.Context, d *Detail) error
}
