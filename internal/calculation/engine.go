package calculation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
	"github.com/nestplan/nestplan/pkg/dateutil"
)

const fallbackHorizonYears = 30

// SimulationEngine runs the month-by-month household projection. It is a
// pure function of its input: no I/O, no shared state, and the caller's
// snapshot is never written back.
type SimulationEngine struct {
	Logger Logger
}

// NewSimulationEngine creates an engine with a no-op logger.
func NewSimulationEngine() *SimulationEngine {
	return &SimulationEngine{Logger: NopLogger{}}
}

// SetLogger replaces the engine's logger. Nil restores the no-op logger.
func (se *SimulationEngine) SetLogger(l Logger) {
	if l == nil {
		se.Logger = NopLogger{}
		return
	}
	se.Logger = l
}

// childSubject pairs a child dependent with its resolved catalog and the
// per-rule firing state for this run.
type childSubject struct {
	dep     *domain.Dependent
	rules   []domain.ExpenseRule
	states  []ruleState
	catalog string
}

// Run projects the household from the start date to the resolved horizon
// and evaluates the declared goals against the resulting timeline. Input is
// assumed validated (see internal/config); the only terminal errors are
// structurally unusable inputs.
func (se *SimulationEngine) Run(ctx context.Context, plan *domain.PlanInput) (*domain.SimulationResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan input is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &plan.Parameters
	household := &plan.Household

	if params.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}

	start := params.StartDate
	end := resolveHorizon(household, params)

	inflationPercent := household.InflationRatePercent
	if params.InflationRatePercent != nil {
		inflationPercent = *params.InflationRatePercent
	}
	inflationRate := inflationPercent.InexactFloat64()

	se.Logger.Infof("simulating %s: %s to %s, inflation %s%%",
		household.Name, start.Format("2006-01-02"), end.Format("2006-01-02"), inflationPercent.String())

	policy := NewWithdrawalPolicy(params.WithdrawalPolicy)
	ws := newWorkingState(household.Accounts)
	initialBalance := ws.total()

	subjects := collectChildSubjects(household, params.IncludePlannedChildren)
	earners := collectEarners(household)

	extraShare := decimalZero
	if params.ExtraMonthlyDeposit.GreaterThan(decimalZero) && len(household.Accounts) > 0 {
		extraShare = params.ExtraMonthlyDeposit.Div(decimal.NewFromInt(int64(len(household.Accounts))))
	}

	totals := struct {
		deposits      decimal.Decimal
		withdrawals   decimal.Decimal
		returns       decimal.Decimal
		returnsReal   decimal.Decimal
		fees          decimal.Decimal
		childExpenses decimal.Decimal
	}{decimalZero, decimalZero, decimalZero, decimalZero, decimalZero, decimalZero}

	var timeline []domain.TimelinePoint
	var pendingEvents []string

	current := start
	for {
		factor := decimal.NewFromFloat(dateutil.InflationFactor(dateutil.ElapsedYears(start, current), inflationRate))

		point := domain.TimelinePoint{
			Date:               current,
			TotalAssets:        ws.total(),
			TotalDeposits:      totals.deposits,
			TotalWithdrawals:   totals.withdrawals,
			TotalReturns:       totals.returns,
			TotalFees:          totals.fees,
			TotalChildExpenses: totals.childExpenses,
			InflationFactor:    factor,
			AccountBalances:    make(map[string]decimal.Decimal, len(ws.order)),
			Events:             pendingEvents,
		}
		point.TotalAssetsReal = point.TotalAssets.Div(factor)
		for _, id := range ws.order {
			point.AccountBalances[id] = ws.balances[id]
		}

		incomeBase := decimalZero
		for _, earner := range earners {
			incomeBase = incomeBase.Add(household.IncomeAt(earner.ID, current))
		}
		point.MonthlyIncome = incomeBase.Mul(factor)
		point.MonthlyIncomeReal = incomeBase

		timeline = append(timeline, point)
		pendingEvents = nil

		next := dateutil.FirstOfNextMonth(current)
		if next.After(end) {
			break
		}

		// Recurring deposits, compounding and fees for every account.
		for i := range household.Accounts {
			acct := &household.Accounts[i]
			delta := stepAccount(acct, ws.balances[acct.ID], factor, extraShare)
			ws.balances[acct.ID] = delta.balance
			totals.deposits = totals.deposits.Add(delta.deposited)
			totals.returns = totals.returns.Add(delta.returned)
			totals.returnsReal = totals.returnsReal.Add(delta.returned.Div(factor))
			totals.fees = totals.fees.Add(delta.feePaid)
		}

		// Conditional child expenses.
		for s := range subjects {
			subject := &subjects[s]
			for r := range subject.rules {
				amount, fires := evaluateRule(&subject.rules[r], subject.dep, current, factor, &subject.states[r])
				if !fires {
					continue
				}
				applied := policy.Withdraw(ws, amount)
				if applied.IsZero() {
					se.Logger.Debugf("child expense %q for %s skipped: insufficient funds", subject.rules[r].Label, subject.dep.Name)
					continue
				}
				totals.childExpenses = totals.childExpenses.Add(applied)
				pendingEvents = append(pendingEvents,
					fmt.Sprintf("child expense %q for %s: %s", subject.rules[r].Label, subject.dep.Name, applied.StringFixed(2)))
			}
		}

		// One-off deposits dated in this month.
		for _, dep := range params.ExtraDeposits {
			if !dateutil.SameCalendarMonth(dep.Date, current) {
				continue
			}
			id := dep.AccountID
			if _, ok := ws.balances[id]; !ok {
				if len(ws.order) == 0 {
					continue
				}
				id = ws.order[0]
			}
			ws.balances[id] = ws.balances[id].Add(dep.Amount)
			totals.deposits = totals.deposits.Add(dep.Amount)
			pendingEvents = append(pendingEvents,
				fmt.Sprintf("extra deposit of %s to %s", dep.Amount.StringFixed(2), id))
		}

		// One-off withdrawals dated in this month.
		for _, wd := range params.WithdrawalEvents {
			if !dateutil.SameCalendarMonth(wd.Date, current) {
				continue
			}
			applied := decimalZero
			if wd.AccountID != "" {
				if bal, ok := ws.balances[wd.AccountID]; ok && bal.GreaterThanOrEqual(wd.Amount) {
					ws.balances[wd.AccountID] = bal.Sub(wd.Amount)
					applied = wd.Amount
				}
			} else {
				applied = policy.Withdraw(ws, wd.Amount)
			}
			if applied.IsZero() {
				se.Logger.Debugf("withdrawal of %s on %s skipped: insufficient funds",
					wd.Amount.StringFixed(2), wd.Date.Format("2006-01-02"))
				continue
			}
			totals.withdrawals = totals.withdrawals.Add(applied)
			pendingEvents = append(pendingEvents,
				fmt.Sprintf("withdrawal of %s", applied.StringFixed(2)))
		}

		// Recurring yearly expenses in their configured month. An unmet
		// remainder is dropped, not carried forward.
		for _, exp := range params.YearlyExpenses {
			if exp.Month != current.Month() {
				continue
			}
			amount := exp.Amount
			if !exp.FixedAmount {
				amount = amount.Mul(factor)
			}
			applied := policy.Withdraw(ws, amount)
			if applied.IsZero() {
				applied = ws.withdrawPartial(amount)
			}
			if applied.IsZero() {
				continue
			}
			totals.withdrawals = totals.withdrawals.Add(applied)
			event := fmt.Sprintf("yearly expense %q: %s", exp.Label, applied.StringFixed(2))
			if applied.LessThan(amount) {
				event = fmt.Sprintf("yearly expense %q: %s of %s (partial)", exp.Label, applied.StringFixed(2), amount.StringFixed(2))
			}
			pendingEvents = append(pendingEvents, event)
		}

		current = next
	}

	summary := buildSummary(start, end, initialBalance, ws, totals.deposits, totals.withdrawals,
		totals.returns, totals.returnsReal, totals.fees, totals.childExpenses, inflationRate, len(timeline))

	result := &domain.SimulationResult{
		Timeline: timeline,
		Summary:  summary,
		Goals:    analyzeGoals(household, timeline, params.AsOfDate()),
	}
	return result, nil
}

// resolveHorizon picks the simulation end date: explicit end date, then end
// age resolved against the target dependent, then a 30-year fallback. A
// horizon that does not extend past the start date is forced to the
// fallback.
func resolveHorizon(household *domain.Household, params *domain.SimulationParameters) time.Time {
	start := params.StartDate
	fallback := start.AddDate(fallbackHorizonYears, 0, 0)

	var end time.Time
	switch {
	case params.EndDate != nil:
		end = *params.EndDate
	case params.EndAge != nil:
		target := household.SelfDependent()
		if params.TargetDependentID != "" {
			if d := household.DependentByID(params.TargetDependentID); d != nil {
				target = d
			}
		}
		if target != nil && target.BirthDate != nil {
			end = target.BirthDate.AddDate(*params.EndAge, 0, 0)
		} else {
			// No birth date to anchor on; assume the member is around 30.
			end = start.AddDate(*params.EndAge-30, 0, 0)
		}
	default:
		end = fallback
	}

	if !end.After(start) {
		end = fallback
	}
	return end
}

// collectChildSubjects gathers the dependents whose expense catalogs are
// evaluated, with rules ordered by their sort key. Planned children are
// excluded unless opted in; once excluded nothing downstream sees them.
func collectChildSubjects(household *domain.Household, includePlanned bool) []childSubject {
	var subjects []childSubject
	for i := range household.Dependents {
		dep := &household.Dependents[i]
		if !dep.Role.IsChild() {
			continue
		}
		if dep.Role == domain.RolePlannedChild && !includePlanned {
			continue
		}
		catalog := household.CatalogFor(dep)
		if catalog == nil || len(catalog.Rules) == 0 {
			continue
		}
		rules := append([]domain.ExpenseRule(nil), catalog.Rules...)
		sort.SliceStable(rules, func(a, b int) bool { return rules[a].SortOrder < rules[b].SortOrder })
		subjects = append(subjects, childSubject{
			dep:     dep,
			rules:   rules,
			states:  make([]ruleState, len(rules)),
			catalog: catalog.ID,
		})
	}
	return subjects
}

func collectEarners(household *domain.Household) []domain.Dependent {
	var earners []domain.Dependent
	for _, dep := range household.Dependents {
		if dep.Role == domain.RoleSelf || dep.Role == domain.RoleSpouse {
			earners = append(earners, dep)
		}
	}
	return earners
}

// buildSummary derives the run summary. The total inflation factor is
// recomputed over the full horizon span, since the last timeline point may
// not land exactly on the end date.
func buildSummary(start, end time.Time, initialBalance decimal.Decimal, ws *workingState,
	deposits, withdrawals, returns, returnsReal, fees, childExpenses decimal.Decimal,
	inflationRate float64, months int) domain.SimulationSummary {

	totalFactor := decimal.NewFromFloat(dateutil.InflationFactor(dateutil.ElapsedYears(start, end), inflationRate))
	finalBalance := ws.total()

	summary := domain.SimulationSummary{
		StartDate:            start,
		EndDate:              end,
		Months:               months,
		InitialBalance:       initialBalance,
		FinalBalance:         finalBalance,
		FinalBalanceReal:     finalBalance.Div(totalFactor),
		TotalDeposits:        deposits,
		TotalWithdrawals:     withdrawals,
		TotalReturns:         returns,
		TotalReturnsReal:     returnsReal,
		TotalFees:            fees,
		TotalChildExpenses:   childExpenses,
		TotalInflationFactor: totalFactor,
	}

	if initialBalance.GreaterThan(decimalZero) {
		summary.EffectiveReturnRate = returns.Div(initialBalance)
		summary.EffectiveReturnRateReal = returnsReal.Div(initialBalance)
	}
	return summary
}
