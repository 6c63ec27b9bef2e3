package servicingmock

import (
	"context"
	"errors"

	"loan-servicing-engine/internal/domain/delinquency"
	"loan-servicing-engine/internal/domain/interestpause"
	"loan-servicing-engine/internal/domain/restructure"
)

var (
	_ delinquency.Repository   = (*DelinquencyRepo)(nil)
	_ interestpause.Repository = (*PauseRepo)(nil)
	_ restructure.Repository   = (*RestructureRepo)(nil)
)

var errUnimplemented = errors.New("servicingmock: method not implemented")

// DelinquencyRepo is a function-backed mock for delinquency.Repository.
type DelinquencyRepo struct {
	GetByLoanIDFn func(ctx context.Context, loanID uint64) (*delinquency.Detail, error)
	CreateFn      func(ctx context.Context, d *delinquency.Detail) error
	SaveFn        func(ctx context.Context, d *delinquency.Detail) error
}

func (m *DelinquencyRepo) GetByLoanID(ctx context.Context, loanID uint64) (*delinquency.Detail, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *DelinquencyRepo) Create(ctx context.Context, d *delinquency.Detail) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *DelinquencyRepo) Save(ctx context.Context, d *delinquency.Detail) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

// PauseRepo is a function-backed mock for interestpause.Repository.
type PauseRepo struct {
	CreateFn             func(ctx context.Context, p *interestpause.Pause) error
	GetByPauseIDFn       func(ctx context.Context, pauseID string) (*interestpause.Pause, error)
	ListActiveByLoanIDFn func(ctx context.Context, loanID uint64) ([]interestpause.Pause, error)
	SaveFn               func(ctx context.Context, p *interestpause.Pause) error
}

func (m *PauseRepo) Create(ctx context.Context, p *interestpause.Pause) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *PauseRepo) GetByPauseID(ctx context.Context, pauseID string) (*interestpause.Pause, error) {
	if m.GetByPauseIDFn != nil {
		return m.GetByPauseIDFn(ctx, pauseID)
	}
	return nil, errUnimplemented
}

func (m *PauseRepo) ListActiveByLoanID(ctx context.Context, loanID uint64) ([]interestpause.Pause, error) {
	if m.ListActiveByLoanIDFn != nil {
		return m.ListActiveByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *PauseRepo) Save(ctx context.Context, p *interestpause.Pause) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}

// RestructureRepo is a function-backed mock for restructure.Repository.
type RestructureRepo struct {
	CreateFn                      func(ctx context.Context, r *restructure.Request) error
	GetByRestructureIDFn          func(ctx context.Context, restructureID string) (*restructure.Request, error)
	GetByRestructureIDForUpdateFn func(ctx context.Context, restructureID string) (*restructure.Request, error)
	SaveFn                        func(ctx context.Context, r *restructure.Request) error
}

func (m *RestructureRepo) Create(ctx context.Context, r *restructure.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *RestructureRepo) GetByRestructureID(ctx context.Context, restructureID string) (*restructure.Request, error) {
	if m.GetByRestructureIDFn != nil {
		return m.GetByRestructureIDFn(ctx, restructureID)
	}
	return nil, errUnimplemented
}

func (m *RestructureRepo) GetByRestructureIDForUpdate(ctx context.Context, restructureID string) (*restructure.Request, error) {
	if m.GetByRestructureIDForUpdateFn != nil {
		return m.GetByRestructureIDForUpdateFn(ctx, restructureID)
	}
	return nil, errUnimplemented
}

func (m *RestructureRepo) Save(ctx context.Context, r *restructure.Request) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}
