package restructure

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("restructure request not found")
	ErrNotPending  = errors.New("restructure request is not pending")
	ErrInvalidType = errors.New("invalid restructure type")
)

type Type string

const (
	TypeReschedule  Type = "reschedule"
	TypeRefinance   Type = "refinance"
	TypeRestructure Type = "restructure"
)

func (t Type) Valid() bool {
	return t == TypeReschedule || t == TypeRefinance || t == TypeRestructure
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request captures a proposed change to a loan's remaining terms. Approval
// mutates the loan (reschedule) or spawns a replacement loan (refinance/
// restructure); rejection is terminal.
type Request struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	RestructureID string `gorm:"size:32;uniqueIndex:ux_restructure_id" json:"restructure_id"`
	LoanID        uint64 `gorm:"index:idx_restructure_loan;column:loan_id" json:"-"`

	Type               Type      `gorm:"size:16" json:"type"`
	RescheduleFromDate time.Time `gorm:"type:date" json:"reschedule_from_date"`

	NewInterestRate   decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"new_interest_rate,omitempty"`
	ExtraInstallments int                 `json:"extra_installments"`
	EMIOverride       decimal.NullDecimal `gorm:"type:decimal(19,6)" json:"emi_override,omitempty"`
	Reason            string              `gorm:"type:text" json:"reason"`

	Status          Status     `gorm:"size:16;default:'pending'" json:"status"`
	StatusUpdatedAt time.Time  `gorm:"autoCreateTime" json:"status_updated_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`

	// Schedule preview generated at creation time, serialized JSON.
	PreviewSchedule []byte `gorm:"type:json" json:"-"`

	// Set on approval of refinance/restructure: the replacement loan.
	NewLoanID *uint64 `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Request) TableName() string { return "loan_restructure_requests" }

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByRestructureID(ctx context.Context, restructureID string) (*Request, error)
	// GetByRestructureIDForUpdate locks the row for the rest of the tx.
	GetByRestructureIDForUpdate(ctx context.Context, restructureID string) (*Request, error)
	Save(ctx context.Context, r *Request) error
}
