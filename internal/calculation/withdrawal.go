package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
)

// workingState is the engine-local mutable balance ledger, deliberately
// separate from the caller-owned account snapshot. Order is the household's
// account order, which doubles as the withdrawal tie-break order.
type workingState struct {
	order    []string
	balances map[string]decimal.Decimal
}

func newWorkingState(accounts []domain.Account) *workingState {
	ws := &workingState{
		order:    make([]string, len(accounts)),
		balances: make(map[string]decimal.Decimal, len(accounts)),
	}
	for i := range accounts {
		ws.order[i] = accounts[i].ID
		ws.balances[accounts[i].ID] = accounts[i].Balance
	}
	return ws
}

func (ws *workingState) total() decimal.Decimal {
	total := decimalZero
	for _, id := range ws.order {
		total = total.Add(ws.balances[id])
	}
	return total
}

// withdrawPartial drains accounts in order up to amount and returns what was
// actually withdrawn. Used for yearly expenses, where an unmet remainder is
// dropped rather than carried forward.
func (ws *workingState) withdrawPartial(amount decimal.Decimal) decimal.Decimal {
	withdrawn := decimalZero
	for _, id := range ws.order {
		if withdrawn.GreaterThanOrEqual(amount) {
			break
		}
		bal := ws.balances[id]
		if bal.LessThanOrEqual(decimalZero) {
			continue
		}
		take := amount.Sub(withdrawn)
		if take.GreaterThan(bal) {
			take = bal
		}
		ws.balances[id] = bal.Sub(take)
		withdrawn = withdrawn.Add(take)
	}
	return withdrawn
}

// WithdrawalPolicy decides how an unplanned outflow is taken from the
// household's accounts. Withdraw returns the amount actually withdrawn,
// which is zero when the policy declines to apply the withdrawal.
type WithdrawalPolicy interface {
	Name() string
	Withdraw(ws *workingState, amount decimal.Decimal) decimal.Decimal
}

// NewWithdrawalPolicy resolves a policy by name, falling back to skip for
// an empty or unknown name.
func NewWithdrawalPolicy(name string) WithdrawalPolicy {
	switch name {
	case domain.WithdrawalPolicyAllowNegative:
		return allowNegativePolicy{}
	case domain.WithdrawalPolicyCascade:
		return cascadePolicy{}
	default:
		return skipPolicy{}
	}
}

// skipPolicy withdraws the full amount from the first account that covers
// it; if none does, the withdrawal is not applied at all. This understates
// real-world shortfalls and is kept for compatibility with the original
// forecasts.
type skipPolicy struct{}

func (skipPolicy) Name() string { return domain.WithdrawalPolicySkip }

func (skipPolicy) Withdraw(ws *workingState, amount decimal.Decimal) decimal.Decimal {
	for _, id := range ws.order {
		if ws.balances[id].GreaterThanOrEqual(amount) {
			ws.balances[id] = ws.balances[id].Sub(amount)
			return amount
		}
	}
	return decimalZero
}

// allowNegativePolicy always applies the withdrawal, preferring the first
// account that covers it and otherwise driving the first account negative,
// so expenses never vanish from the ledger.
type allowNegativePolicy struct{}

func (allowNegativePolicy) Name() string { return domain.WithdrawalPolicyAllowNegative }

func (allowNegativePolicy) Withdraw(ws *workingState, amount decimal.Decimal) decimal.Decimal {
	for _, id := range ws.order {
		if ws.balances[id].GreaterThanOrEqual(amount) {
			ws.balances[id] = ws.balances[id].Sub(amount)
			return amount
		}
	}
	if len(ws.order) == 0 {
		return decimalZero
	}
	first := ws.order[0]
	ws.balances[first] = ws.balances[first].Sub(amount)
	return amount
}

// cascadePolicy drains accounts in order until the amount is met; whatever
// cannot be covered is dropped.
type cascadePolicy struct{}

func (cascadePolicy) Name() string { return domain.WithdrawalPolicyCascade }

func (cascadePolicy) Withdraw(ws *workingState, amount decimal.Decimal) decimal.Decimal {
	return ws.withdrawPartial(amount)
}
