package calculation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
	"github.com/nestplan/nestplan/pkg/dateutil"
)

// analyzeGoals post-processes a completed timeline against the household's
// goals. asOf is "today" for the required-contribution horizon, which runs
// from today to the target date rather than from the simulation start.
func analyzeGoals(household *domain.Household, timeline []domain.TimelinePoint, asOf time.Time) []domain.GoalAnalysis {
	if len(household.Goals) == 0 || len(timeline) == 0 {
		return nil
	}

	final := timeline[len(timeline)-1]

	analyses := make([]domain.GoalAnalysis, 0, len(household.Goals))
	for _, goal := range household.Goals {
		targetDate := resolveGoalDate(&goal, household)
		point := pointAt(timeline, targetDate)

		projected := decimalZero
		if goal.AccountID != "" {
			projected = point.AccountBalances[goal.AccountID]
		} else {
			projected = apportionProjected(goal.TargetAmount, point.TotalAssets, final.TotalAssets)
		}

		analysis := domain.GoalAnalysis{
			GoalID:          goal.ID,
			GoalName:        goal.Name,
			TargetAmount:    goal.TargetAmount,
			TargetDate:      targetDate,
			AccountID:       goal.AccountID,
			ProjectedAmount: projected,
			Achievable:      projected.GreaterThanOrEqual(goal.TargetAmount),
			Shortfall:       decimalZero,
		}

		if !analysis.Achievable {
			analysis.Shortfall = goal.TargetAmount.Sub(projected)
			if targetDate != nil {
				months := dateutil.MonthsBetween(asOf, *targetDate)
				if months < 1 {
					months = 1
				}
				analysis.RequiredMonthlyContribution = analysis.Shortfall.Div(decimal.NewFromInt(int64(months)))
			}
		}

		analyses = append(analyses, analysis)
	}
	return analyses
}

// resolveGoalDate returns the goal's evaluation date: the explicit target
// date, else the target age resolved against the self member's birth date.
// Nil means the goal is evaluated at the horizon end.
func resolveGoalDate(goal *domain.Goal, household *domain.Household) *time.Time {
	if goal.TargetDate != nil {
		return goal.TargetDate
	}
	if goal.TargetAge != nil {
		if self := household.SelfDependent(); self != nil && self.BirthDate != nil {
			d := self.BirthDate.AddDate(*goal.TargetAge, 0, 0)
			return &d
		}
	}
	return nil
}

// pointAt returns the first timeline point at or after the target date, or
// the final point when the date is nil or past the horizon.
func pointAt(timeline []domain.TimelinePoint, target *time.Time) *domain.TimelinePoint {
	if target != nil {
		for i := range timeline {
			if !timeline[i].Date.Before(*target) {
				return &timeline[i]
			}
		}
	}
	return &timeline[len(timeline)-1]
}

// apportionProjected is the allocation heuristic for goals not linked to a
// specific account: the total projected balance scaled by the ratio of the
// goal's target to the final overall balance. The scaling is dimensionally
// odd but matches the forecasts users have seen; swap the policy here if
// product intent ever firms up.
func apportionProjected(target, totalAtDate, finalTotal decimal.Decimal) decimal.Decimal {
	if finalTotal.LessThanOrEqual(decimalZero) {
		return decimalZero
	}
	return totalAtDate.Mul(target).Div(finalTotal)
}
