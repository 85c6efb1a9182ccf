package calculation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestplan/nestplan/internal/domain"
	"github.com/nestplan/nestplan/pkg/dateutil"
)

func timePtr(t time.Time) *time.Time                { return &t }
func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func basicPlan() *domain.PlanInput {
	return &domain.PlanInput{
		Household: domain.Household{
			Name:                 "testers",
			InflationRatePercent: decimal.Zero,
			Accounts: []domain.Account{
				{ID: "savings", Name: "Savings", Balance: decimal.NewFromInt(100000), AnnualReturnPercent: decimal.NewFromInt(5)},
			},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
}

func TestNewSimulationEngine(t *testing.T) {
	engine := NewSimulationEngine()

	assert.NotNil(t, engine, "Should create engine")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
}

func TestSimulationEngine_SetLogger(t *testing.T) {
	engine := NewSimulationEngine()

	custom := &testLogger{}
	engine.SetLogger(custom)
	assert.Equal(t, custom, engine.Logger, "Should set custom logger")

	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger, "Should fall back to no-op logger")
}

func TestRun_NilPlan(t *testing.T) {
	engine := NewSimulationEngine()

	result, err := engine.Run(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestRun_MissingStartDate(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Parameters.StartDate = time.Time{}

	result, err := engine.Run(context.Background(), plan)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "start date")
}

func TestRun_EndToEndCompounding(t *testing.T) {
	engine := NewSimulationEngine()

	result, err := engine.Run(context.Background(), basicPlan())
	require.NoError(t, err)

	// Inclusive of both endpoints: 2024-01 through 2025-01.
	assert.Len(t, result.Timeline, 13)

	final := result.Timeline[len(result.Timeline)-1]
	assert.InDelta(t, 105116.19, final.TotalAssets.InexactFloat64(), 0.01,
		"100000 compounded monthly at 5%/12 over 12 months")
	assert.True(t, final.TotalChildExpenses.IsZero())

	assert.InDelta(t, 105116.19, result.Summary.FinalBalance.InexactFloat64(), 0.01)
	assert.Equal(t, 13, result.Summary.Months)
	assert.InDelta(t, 0.05116, result.Summary.EffectiveReturnRate.InexactFloat64(), 0.0001)
}

func TestRun_Determinism(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Household.InflationRatePercent = decimal.NewFromFloat(2.5)

	first, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must produce identical output")
}

func TestRun_TimelineMonotonicity(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Parameters.StartDate = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	plan.Parameters.EndDate = timePtr(time.Date(2027, time.August, 20, 0, 0, 0, 0, time.UTC))

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	for i := 1; i < len(result.Timeline); i++ {
		prev, cur := result.Timeline[i-1], result.Timeline[i]
		assert.True(t, cur.Date.After(prev.Date), "timeline must be strictly ordered")
		assert.Equal(t, 1, dateutil.MonthsBetween(prev.Date, cur.Date), "exactly one point per calendar month")
	}

	months := dateutil.MonthsBetween(plan.Parameters.StartDate, *plan.Parameters.EndDate)
	assert.InDelta(t, months, len(result.Timeline), 1)
}

func TestRun_RealNominalConsistency(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Household.InflationRatePercent = decimal.NewFromFloat(3)
	plan.Parameters.EndDate = timePtr(time.Date(2034, time.January, 1, 0, 0, 0, 0, time.UTC))

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	for _, point := range result.Timeline {
		nominal := point.TotalAssetsReal.Mul(point.InflationFactor)
		assert.InDelta(t, point.TotalAssets.InexactFloat64(), nominal.InexactFloat64(), 1e-6,
			"real * factor must reproduce nominal at %s", point.Date)
	}
}

func TestRun_ZeroActivityInvariant(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Household.Accounts = []domain.Account{{ID: "idle", Balance: decimal.NewFromInt(5000)}}
	plan.Parameters.EndDate = timePtr(time.Date(2054, time.January, 1, 0, 0, 0, 0, time.UTC))

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	for _, point := range result.Timeline {
		assert.True(t, point.TotalAssets.Equal(decimal.NewFromInt(5000)),
			"idle account must keep its exact starting balance, got %s at %s", point.TotalAssets, point.Date)
	}
}

func TestRun_WithdrawalInsufficientFundsSkipped(t *testing.T) {
	engine := NewSimulationEngine()
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{{ID: "small", Balance: decimal.NewFromInt(100)}},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)),
			WithdrawalEvents: []domain.WithdrawalEvent{
				{Date: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(500)},
			},
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.TotalAssets.Equal(decimal.NewFromInt(100)), "withdrawal must be silently skipped")
	assert.True(t, final.TotalWithdrawals.IsZero())
}

func TestRun_OneOffDepositAndWithdrawal(t *testing.T) {
	engine := NewSimulationEngine()
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{{ID: "main", Balance: decimal.NewFromInt(1000)}},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)),
			ExtraDeposits: []domain.ExtraDeposit{
				{Date: time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(300)},
			},
			WithdrawalEvents: []domain.WithdrawalEvent{
				{Date: time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(200), AccountID: "main"},
			},
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.TotalAssets.Equal(decimal.NewFromInt(1100)), "1000 + 300 - 200, got %s", final.TotalAssets)
	assert.True(t, final.TotalDeposits.Equal(decimal.NewFromInt(300)))
	assert.True(t, final.TotalWithdrawals.Equal(decimal.NewFromInt(200)))

	// The deposit lands during February, so it shows up on the March point.
	march := result.Timeline[2]
	assert.Contains(t, march.Events, "extra deposit of 300.00 to main")
}

func TestRun_ExtraMonthlyDepositSplit(t *testing.T) {
	engine := NewSimulationEngine()
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{
				{ID: "a"},
				{ID: "b"},
			},
		},
		Parameters: domain.SimulationParameters{
			StartDate:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:             timePtr(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
			ExtraMonthlyDeposit: decimal.NewFromInt(100),
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.AccountBalances["a"].Equal(decimal.NewFromInt(100)), "two months, 50 each")
	assert.True(t, final.AccountBalances["b"].Equal(decimal.NewFromInt(100)))
	assert.True(t, final.TotalDeposits.Equal(decimal.NewFromInt(200)))
}

func TestRun_ChildExpensesWithdrawAndRecord(t *testing.T) {
	engine := NewSimulationEngine()
	birth := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{{ID: "main", Balance: decimal.NewFromInt(100000)}},
			Dependents: []domain.Dependent{
				{ID: "kid", Name: "Sam", Role: domain.RoleChild, BirthDate: &birth, ExpenseCatalogID: "cat"},
			},
			ExpenseCatalogs: []domain.ExpenseCatalog{
				{ID: "cat", Name: "default", Rules: []domain.ExpenseRule{
					{Label: "daycare", Trigger: domain.TriggerAgeInYears, TriggerValue: 4, TriggerValueEnd: intPtr(5),
						Amount: decimal.NewFromInt(400), Recurrence: domain.RecurrenceMonthly},
				}},
			},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)),
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.TotalChildExpenses.GreaterThan(decimal.Zero))
	assert.True(t, final.TotalAssets.LessThan(decimal.NewFromInt(100000)))
	assert.True(t, final.TotalWithdrawals.IsZero(), "child expenses are tracked separately from withdrawals")

	foundEvent := false
	for _, point := range result.Timeline {
		for _, ev := range point.Events {
			if strings.Contains(ev, "daycare") && strings.Contains(ev, "Sam") {
				foundEvent = true
			}
		}
	}
	assert.True(t, foundEvent, "firing rules must be described as events")
}

func TestRun_PlannedChildOptIn(t *testing.T) {
	engine := NewSimulationEngine()
	expected := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	makePlan := func(include bool) *domain.PlanInput {
		return &domain.PlanInput{
			Household: domain.Household{
				Accounts: []domain.Account{{ID: "main", Balance: decimal.NewFromInt(50000)}},
				Dependents: []domain.Dependent{
					{ID: "p", Name: "Baby", Role: domain.RolePlannedChild, ExpectedBirthDate: &expected},
				},
				ExpenseCatalogs: []domain.ExpenseCatalog{
					{ID: "cat", Rules: []domain.ExpenseRule{
						{Label: "newborn kit", Trigger: domain.TriggerAgeInMonths, TriggerValue: 0,
							Amount: decimal.NewFromInt(1000), Recurrence: domain.RecurrenceOnce},
					}},
				},
				DefaultCatalogID: "cat",
			},
			Parameters: domain.SimulationParameters{
				StartDate:              time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
				EndDate:                timePtr(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
				IncludePlannedChildren: include,
			},
		}
	}

	excluded, err := engine.Run(context.Background(), makePlan(false))
	require.NoError(t, err)
	assert.True(t, excluded.Summary.TotalChildExpenses.IsZero(), "planned children are opt-in")

	included, err := engine.Run(context.Background(), makePlan(true))
	require.NoError(t, err)
	assert.True(t, included.Summary.TotalChildExpenses.GreaterThan(decimal.Zero))
}

func TestRun_YearlyExpenseFiresInConfiguredMonth(t *testing.T) {
	engine := NewSimulationEngine()
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{{ID: "main", Balance: decimal.NewFromInt(100000)}},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
			YearlyExpenses: []domain.YearlyExpense{
				{Month: time.July, Amount: decimal.NewFromInt(1000), Label: "insurance"},
			},
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.TotalAssets.Equal(decimal.NewFromInt(99000)),
		"one firing in twelve months, got %s", final.TotalAssets)
	assert.True(t, final.TotalWithdrawals.Equal(decimal.NewFromInt(1000)))

	// The expense lands during July, so it shows up on the August point.
	august := result.Timeline[7]
	assert.Contains(t, august.Events, `yearly expense "insurance": 1000.00`)
	for i, point := range result.Timeline {
		if i != 7 {
			assert.Empty(t, point.Events, "no other month may record the expense")
		}
	}
}

func TestRun_YearlyExpenseInflationAdjustment(t *testing.T) {
	engine := NewSimulationEngine()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	makePlan := func(fixed bool) *domain.PlanInput {
		return &domain.PlanInput{
			Household: domain.Household{
				InflationRatePercent: decimal.NewFromInt(12),
				Accounts:             []domain.Account{{ID: "main", Balance: decimal.NewFromInt(100000)}},
			},
			Parameters: domain.SimulationParameters{
				StartDate: start,
				EndDate:   timePtr(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
				YearlyExpenses: []domain.YearlyExpense{
					{Month: time.July, Amount: decimal.NewFromInt(1000), FixedAmount: fixed, Label: "premium"},
				},
			},
		}
	}

	fixed, err := engine.Run(context.Background(), makePlan(true))
	require.NoError(t, err)
	assert.True(t, fixed.Summary.TotalWithdrawals.Equal(decimal.NewFromInt(1000)),
		"a fixed amount is never inflated, got %s", fixed.Summary.TotalWithdrawals)

	adjusted, err := engine.Run(context.Background(), makePlan(false))
	require.NoError(t, err)
	july := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	expected := 1000 * dateutil.InflationFactor(dateutil.ElapsedYears(start, july), 12)
	assert.InDelta(t, expected, adjusted.Summary.TotalWithdrawals.InexactFloat64(), 1e-6,
		"today's amount scaled by the factor at the firing month")
}

func TestRun_YearlyExpensePartialFallback(t *testing.T) {
	engine := NewSimulationEngine()
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{
				{ID: "a", Balance: decimal.NewFromInt(100)},
				{ID: "b", Balance: decimal.NewFromInt(50)},
			},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   timePtr(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)),
			YearlyExpenses: []domain.YearlyExpense{
				{Month: time.March, Amount: decimal.NewFromInt(500), Label: "roof"},
			},
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	// The default skip policy declines, so the expense drains what is there
	// and drops the remainder.
	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.TotalAssets.IsZero(), "both accounts drained, got %s", final.TotalAssets)
	assert.True(t, final.TotalWithdrawals.Equal(decimal.NewFromInt(150)),
		"only the available 150 of 500 is withdrawn")
	assert.True(t, final.AccountBalances["a"].IsZero())
	assert.True(t, final.AccountBalances["b"].IsZero())

	april := result.Timeline[3]
	assert.Contains(t, april.Events, `yearly expense "roof": 150.00 of 500.00 (partial)`)
}

func TestRun_HorizonFromEndAge(t *testing.T) {
	engine := NewSimulationEngine()
	birth := time.Date(1984, time.May, 10, 0, 0, 0, 0, time.UTC)
	endAge := 65
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts:   []domain.Account{{ID: "main", Balance: decimal.NewFromInt(1000)}},
			Dependents: []domain.Dependent{{ID: "me", Role: domain.RoleSelf, BirthDate: &birth}},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndAge:    &endAge,
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2049, time.May, 10, 0, 0, 0, 0, time.UTC), result.Summary.EndDate,
		"end age resolves against the self member's birth date")
}

func TestRun_HorizonEndAgeWithoutBirthDate(t *testing.T) {
	engine := NewSimulationEngine()
	endAge := 65
	plan := &domain.PlanInput{
		Household: domain.Household{
			Accounts:   []domain.Account{{ID: "main", Balance: decimal.NewFromInt(1000)}},
			Dependents: []domain.Dependent{{ID: "me", Role: domain.RoleSelf}},
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndAge:    &endAge,
		},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2059, time.January, 1, 0, 0, 0, 0, time.UTC), result.Summary.EndDate,
		"fallback assumes the member is around 30 today")
}

func TestRun_DegenerateHorizonClamped(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Parameters.EndDate = timePtr(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2054, time.January, 1, 0, 0, 0, 0, time.UTC), result.Summary.EndDate,
		"an end date not after the start is forced to the 30-year fallback")
	assert.Len(t, result.Timeline, 361)
}

func TestRun_InflationOverride(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Household.InflationRatePercent = decimal.NewFromInt(10)
	plan.Parameters.InflationRatePercent = decimalPtr(decimal.Zero)

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	final := result.Timeline[len(result.Timeline)-1]
	assert.True(t, final.InflationFactor.Equal(decimal.NewFromInt(1)),
		"the parameter override wins over the household default")
}

func TestRun_HouseholdIncomeOnTimeline(t *testing.T) {
	engine := NewSimulationEngine()
	plan := basicPlan()
	plan.Household.Dependents = []domain.Dependent{
		{ID: "me", Role: domain.RoleSelf},
		{ID: "partner", Role: domain.RoleSpouse},
	}
	plan.Household.IncomeHistory = []domain.IncomeRecord{
		{DependentID: "me", Amount: decimal.NewFromInt(3000), EffectiveDate: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{DependentID: "me", Amount: decimal.NewFromInt(3500), EffectiveDate: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{DependentID: "partner", Amount: decimal.NewFromInt(2500), EffectiveDate: time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)},
	}

	result, err := engine.Run(context.Background(), plan)
	require.NoError(t, err)

	first := result.Timeline[0]
	assert.True(t, first.MonthlyIncome.Equal(decimal.NewFromInt(6000)),
		"most recent records win: 3500 + 2500, got %s", first.MonthlyIncome)
	assert.True(t, first.MonthlyIncomeReal.Equal(decimal.NewFromInt(6000)))
}

// testLogger records nothing; it only needs to satisfy the interface.
type testLogger struct{}

func (testLogger) Debugf(format string, args ...any) {}
func (testLogger) Infof(format string, args ...any)  {}
func (testLogger) Warnf(format string, args ...any)  {}
func (testLogger) Errorf(format string, args ...any) {}
