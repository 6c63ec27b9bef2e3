package uow

import (
	"context"

	"loan-servicing-engine/internal/domain/delinquency"
	"loan-servicing-engine/internal/domain/interestpause"
	"loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/restructure"
)

type Repos struct {
	Loans          loan.Repository
	Delinquencies  delinquency.Repository
	InterestPauses interestpause.Repository
	Restructures   restructure.Repository
}

// UnitOfWork scopes a set of repository calls to one transaction. Stateful
// engine operations (payments, pause creation, restructure approval) must
// run under WithinLoanTx so concurrent mutations of the same loan serialize
// on the locked row; operations on different loans are independent.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
