package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	delinquencyDomain "loan-servicing-engine/internal/domain/delinquency"
	pauseDomain "loan-servicing-engine/internal/domain/interestpause"
	restructureDomain "loan-servicing-engine/internal/domain/restructure"
)

type DelinquencyRepository struct{ db *gorm.DB }

func NewDelinquencyRepository(db *gorm.DB) *DelinquencyRepository {
	return &DelinquencyRepository{db: db}
}

func (r *DelinquencyRepository) GetByLoanID(ctx context.Context, loanID uint64) (*delinquencyDomain.Detail, error) {
	var out delinquencyDomain.Detail
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *DelinquencyRepository) Create(ctx context.Context, d *delinquencyDomain.Detail) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DelinquencyRepository) Save(ctx context.Context, d *delinquencyDomain.Detail) error {
	return r.db.WithContext(ctx).Save(d).Error
}

type InterestPauseRepository struct{ db *gorm.DB }

func NewInterestPauseRepository(db *gorm.DB) *InterestPauseRepository {
	return &InterestPauseRepository{db: db}
}

func (r *InterestPauseRepository) Create(ctx context.Context, p *pauseDomain.Pause) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *InterestPauseRepository) GetByPauseID(ctx context.Context, pauseID string) (*pauseDomain.Pause, error) {
	var out pauseDomain.Pause
	res := r.db.WithContext(ctx).Where("pause_id = ?", pauseID).First(&out)
	return &out, res.Error
}

func (r *InterestPauseRepository) ListActiveByLoanID(ctx context.Context, loanID uint64) ([]pauseDomain.Pause, error) {
	var out []pauseDomain.Pause
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND is_active = ?", loanID, true).
		Order("start_date ASC").
		Find(&out)
	return out, res.Error
}

func (r *InterestPauseRepository) Save(ctx context.Context, p *pauseDomain.Pause) error {
	return r.db.WithContext(ctx).Save(p).Error
}

type RestructureRepository struct{ db *gorm.DB }

func NewRestructureRepository(db *gorm.DB) *RestructureRepository {
	return &RestructureRepository{db: db}
}

func (r *RestructureRepository) Create(ctx context.Context, req *restructureDomain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RestructureRepository) GetByRestructureID(ctx context.Context, restructureID string) (*restructureDomain.Request, error) {
	var out restructureDomain.Request
	res := r.db.WithContext(ctx).Where("restructure_id = ?", restructureID).First(&out)
	return &out, res.Error
}

func (r *RestructureRepository) GetByRestructureIDForUpdate(ctx context.Context, restructureID string) (*restructureDomain.Request, error) {
	var out restructureDomain.Request
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restructure_id = ?", restructureID).
		First(&out)
	return &out, res.Error
}

func (r *RestructureRepository) Save(ctx context.Context, req *restructureDomain.Request) error {
	return r.db.WithContext(ctx).Save(req).Error
}
