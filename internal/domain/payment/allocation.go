package payment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/money"
)

var ErrUnknownStrategy = errors.New("unknown payment allocation strategy")

type Component string

const (
	ComponentPrincipal Component = "principal"
	ComponentInterest  Component = "interest"
	ComponentFees      Component = "fees"
	ComponentPenalties Component = "penalties"
)

type Strategy string

const (
	// StrategyDefault allocates principal first; schedule order.
	StrategyDefault Strategy = "principal_interest_penalties_fees"
	// StrategyHeaviness shares the default order; reserved for weighting
	// extensions.
	StrategyHeaviness        Strategy = "heaviness_principal_interest_penalties_fees"
	StrategyInterestFirst    Strategy = "interest_principal_penalties_fees"
	StrategyFeesLast         Strategy = "principal_interest_fees_penalties"
	StrategyDueDatePrincipal Strategy = "due_date_principal_interest_penalties_fees"
	StrategyDueDateInterest  Strategy = "due_date_interest_principal_fees_penalties"
	StrategyDueDateInterestPenalties Strategy = "due_date_interest_principal_penalties_fees"
)

type rule struct {
	order        []Component
	dueDateFirst bool
}

var strategies = map[Strategy]rule{
	StrategyDefault:   {order: []Component{ComponentPrincipal, ComponentInterest, ComponentPenalties, ComponentFees}},
	StrategyHeaviness: {order: []Component{ComponentPrincipal, ComponentInterest, ComponentPenalties, ComponentFees}},
	StrategyInterestFirst: {order: []Component{ComponentInterest, ComponentPrincipal, ComponentPenalties, ComponentFees}},
	StrategyFeesLast:      {order: []Component{ComponentPrincipal, ComponentInterest, ComponentFees, ComponentPenalties}},
	StrategyDueDatePrincipal: {
		order:        []Component{ComponentPrincipal, ComponentInterest, ComponentPenalties, ComponentFees},
		dueDateFirst: true,
	},
	StrategyDueDateInterest: {
		order:        []Component{ComponentInterest, ComponentPrincipal, ComponentFees, ComponentPenalties},
		dueDateFirst: true,
	},
	StrategyDueDateInterestPenalties: {
		order:        []Component{ComponentInterest, ComponentPrincipal, ComponentPenalties, ComponentFees},
		dueDateFirst: true,
	},
}

// Valid reports whether s names a built-in strategy.
func (s Strategy) Valid() bool {
	_, ok := strategies[s]
	return ok
}

// PeriodAllocation is the breakdown of a payment against one period.
type PeriodAllocation struct {
	PeriodNumber int             `json:"period_number"`
	Principal    decimal.Decimal `json:"principal"`
	Interest     decimal.Decimal `json:"interest"`
	Fees         decimal.Decimal `json:"fees"`
	Penalties    decimal.Decimal `json:"penalties"`
	Total        decimal.Decimal `json:"total"`
}

// Allocation is the result of distributing one payment. UnallocatedAmount is
// overpayment/advance and is never distributed further by this engine.
type Allocation struct {
	Currency          string             `json:"currency"`
	Strategy          Strategy           `json:"strategy"`
	Periods           []PeriodAllocation `json:"periods"`
	TotalPrincipal    decimal.Decimal    `json:"total_principal"`
	TotalInterest     decimal.Decimal    `json:"total_interest"`
	TotalFees         decimal.Decimal    `json:"total_fees"`
	TotalPenalties    decimal.Decimal    `json:"total_penalties"`
	TotalAllocated    decimal.Decimal    `json:"total_allocated"`
	UnallocatedAmount decimal.Decimal    `json:"unallocated_amount"`
}

// Allocate walks the outstanding periods in strategy order, allocating
// min(remaining, componentOutstanding) per component. It does not mutate the
// input periods; the caller applies the breakdown to its live state.
func Allocate(amount money.Money, strategy Strategy, periods []loan.SchedulePeriod) (*Allocation, error) {
	r, ok := strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("payment amount must not be negative")
	}

	ordered := make([]loan.SchedulePeriod, len(periods))
	copy(ordered, periods)
	if r.dueDateFirst {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		})
	}

	out := &Allocation{Currency: amount.Currency(), Strategy: strategy}
	remaining := amount.Amount()

	for i := range ordered {
		if !remaining.IsPositive() {
			break
		}
		p := &ordered[i]
		pa := PeriodAllocation{PeriodNumber: p.PeriodNumber}

		for _, comp := range r.order {
			if !remaining.IsPositive() {
				break
			}
			outstanding := componentOutstanding(p, comp)
			take := decimal.Min(remaining, outstanding)
			if !take.IsPositive() {
				continue
			}
			remaining = remaining.Sub(take)
			pa.Total = pa.Total.Add(take)
			switch comp {
			case ComponentPrincipal:
				pa.Principal = pa.Principal.Add(take)
			case ComponentInterest:
				pa.Interest = pa.Interest.Add(take)
			case ComponentFees:
				pa.Fees = pa.Fees.Add(take)
			case ComponentPenalties:
				pa.Penalties = pa.Penalties.Add(take)
			}
		}

		if pa.Total.IsPositive() {
			out.Periods = append(out.Periods, pa)
			out.TotalPrincipal = out.TotalPrincipal.Add(pa.Principal)
			out.TotalInterest = out.TotalInterest.Add(pa.Interest)
			out.TotalFees = out.TotalFees.Add(pa.Fees)
			out.TotalPenalties = out.TotalPenalties.Add(pa.Penalties)
		}
	}

	out.TotalAllocated = out.TotalPrincipal.Add(out.TotalInterest).Add(out.TotalFees).Add(out.TotalPenalties)
	out.UnallocatedAmount = remaining
	return out, nil
}

func componentOutstanding(p *loan.SchedulePeriod, c Component) decimal.Decimal {
	switch c {
	case ComponentPrincipal:
		return p.PrincipalOutstanding
	case ComponentInterest:
		return p.InterestOutstanding
	case ComponentFees:
		return p.FeeChargesOutstanding
	case ComponentPenalties:
		return p.PenaltyChargesOutstanding
	default:
		return decimal.Zero
	}
}
