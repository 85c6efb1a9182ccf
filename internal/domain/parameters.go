package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraDeposit is a one-off deposit applied in the calendar month its date
// falls in. AccountID empty means the household's first account.
type ExtraDeposit struct {
	Date      time.Time       `yaml:"date" json:"date"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
	AccountID string          `yaml:"account_id,omitempty" json:"account_id,omitempty"`
	Note      string          `yaml:"note,omitempty" json:"note,omitempty"`
}

// WithdrawalEvent is a one-off withdrawal applied in the calendar month its
// date falls in. With an AccountID it is applied only if that account covers
// the amount; without one the configured withdrawal policy decides.
type WithdrawalEvent struct {
	Date      time.Time       `yaml:"date" json:"date"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
	AccountID string          `yaml:"account_id,omitempty" json:"account_id,omitempty"`
	Note      string          `yaml:"note,omitempty" json:"note,omitempty"`
}

// YearlyExpense recurs every simulated year in a fixed calendar month. The
// amount is in today's money and inflated forward unless FixedAmount is set.
type YearlyExpense struct {
	Month       time.Month      `yaml:"month" json:"month"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	FixedAmount bool            `yaml:"fixed_amount,omitempty" json:"fixed_amount,omitempty"`
	Label       string          `yaml:"label,omitempty" json:"label,omitempty"`
}

// Withdrawal policy names accepted by SimulationParameters.WithdrawalPolicy.
const (
	WithdrawalPolicySkip          = "skip"
	WithdrawalPolicyAllowNegative = "allow_negative"
	WithdrawalPolicyCascade       = "cascade"
)

// SimulationParameters controls one projection run. Horizon resolution:
// EndDate wins, then EndAge against the target dependent, then a 30-year
// fallback from the start date.
type SimulationParameters struct {
	StartDate time.Time `yaml:"start_date" json:"start_date"`

	// AsOf is "today" for goal contribution math. Zero means StartDate.
	AsOf time.Time `yaml:"as_of,omitempty" json:"as_of,omitempty"`

	EndDate           *time.Time `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	EndAge            *int       `yaml:"end_age,omitempty" json:"end_age,omitempty"`
	TargetDependentID string     `yaml:"target_dependent_id,omitempty" json:"target_dependent_id,omitempty"`

	// InflationRatePercent overrides the household default when set.
	InflationRatePercent *decimal.Decimal `yaml:"inflation_rate_percent,omitempty" json:"inflation_rate_percent,omitempty"`

	IncludePlannedChildren bool `yaml:"include_planned_children,omitempty" json:"include_planned_children,omitempty"`

	// ExtraMonthlyDeposit is a flat amount split evenly across all accounts
	// every month, on top of each account's own recurring deposits.
	ExtraMonthlyDeposit decimal.Decimal `yaml:"extra_monthly_deposit,omitempty" json:"extra_monthly_deposit,omitempty"`

	ExtraDeposits    []ExtraDeposit    `yaml:"extra_deposits,omitempty" json:"extra_deposits,omitempty"`
	WithdrawalEvents []WithdrawalEvent `yaml:"withdrawal_events,omitempty" json:"withdrawal_events,omitempty"`
	YearlyExpenses   []YearlyExpense   `yaml:"yearly_expenses,omitempty" json:"yearly_expenses,omitempty"`

	// WithdrawalPolicy is skip (default), allow_negative or cascade.
	WithdrawalPolicy string `yaml:"withdrawal_policy,omitempty" json:"withdrawal_policy,omitempty"`
}

// AsOfDate returns the explicit as-of date, falling back to the start date.
func (p *SimulationParameters) AsOfDate() time.Time {
	if p.AsOf.IsZero() {
		return p.StartDate
	}
	return p.AsOf
}

// PlanInput is the complete input to one simulation run: a consistent
// household snapshot plus the run parameters.
type PlanInput struct {
	Household  Household            `yaml:"household" json:"household"`
	Parameters SimulationParameters `yaml:"parameters" json:"parameters"`
}
