package mysql

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "loan-servicing-engine/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetWithInstallments(ctx context.Context, loanID string) (*loanDomain.Loan, []loanDomain.SchedulePeriod, error) {
	l, err := r.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	var periods []loanDomain.SchedulePeriod
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", l.ID).
		Order("period_number ASC").
		Find(&periods)
	if res.Error != nil {
		return nil, nil, res.Error
	}
	return l, periods, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, loanID string, status loanDomain.Status) error {
	return r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ?", loanID).
		Update("status", status).Error
}

func (r *LoanRepository) UpdateBalances(ctx context.Context, loanID string, principal, interest, fee, penalty, repaid decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ?", loanID).
		Updates(map[string]any{
			"principal_outstanding": principal,
			"interest_outstanding":  interest,
			"fee_outstanding":       fee,
			"penalty_outstanding":   penalty,
			"total_repaid":          repaid,
		}).Error
}

func (r *LoanRepository) CreateSchedule(ctx context.Context, periods []loanDomain.SchedulePeriod) error {
	if len(periods) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&periods).Error
}

func (r *LoanRepository) UpdateSchedule(ctx context.Context, periods []loanDomain.SchedulePeriod) error {
	for i := range periods {
		if err := r.db.WithContext(ctx).Save(&periods[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *LoanRepository) DeactivateScheduleFrom(ctx context.Context, loanID uint64, fromPeriod int) error {
	return r.db.WithContext(ctx).
		Model(&loanDomain.SchedulePeriod{}).
		Where("loan_id = ? AND period_number >= ? AND completed = ?", loanID, fromPeriod, false).
		Update("active", false).Error
}

func (r *LoanRepository) CreateCharges(ctx context.Context, charges []loanDomain.Charge) error {
	if len(charges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&charges).Error
}

func (r *LoanRepository) GetCharges(ctx context.Context, loanID uint64) ([]loanDomain.Charge, error) {
	var out []loanDomain.Charge
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Find(&out)
	return out, res.Error
}

func (r *LoanRepository) SaveCharge(ctx context.Context, c *loanDomain.Charge) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *LoanRepository) CreateTransaction(ctx context.Context, tx *loanDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *LoanRepository) CreatePaymentDetail(ctx context.Context, d *loanDomain.PaymentDetail) error {
	return r.db.WithContext(ctx).Create(d).Error
}
