package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimelinePoint is one monthly snapshot of the projection. Points are
// emitted at the simulation's first instant and on the first day of each
// following month; cumulative totals cover everything up to the point's
// date. TotalAssetsReal is TotalAssets divided by InflationFactor, by
// construction.
type TimelinePoint struct {
	// Date is the snapshot instant. Activity between the previous point and
	// this one, including its Events, belongs to this point.
	Date time.Time `json:"date"`

	TotalAssets     decimal.Decimal `json:"totalAssets"`
	TotalAssetsReal decimal.Decimal `json:"totalAssetsReal"`

	TotalDeposits      decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals   decimal.Decimal `json:"totalWithdrawals"`
	TotalReturns       decimal.Decimal `json:"totalReturns"`
	TotalFees          decimal.Decimal `json:"totalFees"`
	TotalChildExpenses decimal.Decimal `json:"totalChildExpenses"`

	MonthlyIncome     decimal.Decimal `json:"monthlyIncome"`
	MonthlyIncomeReal decimal.Decimal `json:"monthlyIncomeReal"`

	InflationFactor decimal.Decimal `json:"inflationFactor"`

	AccountBalances map[string]decimal.Decimal `json:"accountBalances"` // accountID -> balance

	// Events describes what happened in the month leading up to this point.
	Events []string `json:"events,omitempty"`
}

// SimulationSummary aggregates the whole horizon. TotalInflationFactor is
// recomputed from the full elapsed span, not read off the last timeline
// point, since the horizon end may fall inside a month.
type SimulationSummary struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Months    int       `json:"months"`

	InitialBalance   decimal.Decimal `json:"initialBalance"`
	FinalBalance     decimal.Decimal `json:"finalBalance"`
	FinalBalanceReal decimal.Decimal `json:"finalBalanceReal"`

	TotalDeposits      decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals   decimal.Decimal `json:"totalWithdrawals"`
	TotalReturns       decimal.Decimal `json:"totalReturns"`
	TotalReturnsReal   decimal.Decimal `json:"totalReturnsReal"`
	TotalFees          decimal.Decimal `json:"totalFees"`
	TotalChildExpenses decimal.Decimal `json:"totalChildExpenses"`

	// Effective return rates are total returns over the initial balance,
	// zero when the household started from nothing.
	EffectiveReturnRate     decimal.Decimal `json:"effectiveReturnRate"`
	EffectiveReturnRateReal decimal.Decimal `json:"effectiveReturnRateReal"`

	TotalInflationFactor decimal.Decimal `json:"totalInflationFactor"`
}

// GoalAnalysis is the feasibility verdict for one goal.
type GoalAnalysis struct {
	GoalID       string          `json:"goalId"`
	GoalName     string          `json:"goalName"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	TargetDate   *time.Time      `json:"targetDate,omitempty"`
	AccountID    string          `json:"accountId,omitempty"`

	ProjectedAmount decimal.Decimal `json:"projectedAmount"`
	Achievable      bool            `json:"achievable"`
	Shortfall       decimal.Decimal `json:"shortfall"`

	// RequiredMonthlyContribution closes the shortfall evenly over the
	// months remaining from the as-of date to the target date. Zero for
	// achievable or undated goals.
	RequiredMonthlyContribution decimal.Decimal `json:"requiredMonthlyContribution"`
}

// SimulationResult is the engine's complete output for one run.
type SimulationResult struct {
	Timeline []TimelinePoint   `json:"timeline"`
	Summary  SimulationSummary `json:"summary"`
	Goals    []GoalAnalysis    `json:"goals,omitempty"`
}
