package calculation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
	"github.com/nestplan/nestplan/pkg/dateutil"
)

// ruleState carries the per-(dependent, rule) firing history across the
// simulated timeline. eligibleMonths counts months the trigger window was
// active, which is what once and quarterly recurrences key off.
type ruleState struct {
	eligibleMonths int
}

// triggerActive reports whether the rule's trigger window covers the given
// month. The recurrence dimension is handled separately in evaluateRule.
func triggerActive(rule *domain.ExpenseRule, birth time.Time, current time.Time, ageMonths, ageYears int) bool {
	switch rule.Trigger {
	case domain.TriggerAgeInMonths:
		if rule.TriggerValueEnd != nil {
			return ageMonths >= rule.TriggerValue && ageMonths <= *rule.TriggerValueEnd
		}
		return ageMonths == rule.TriggerValue
	case domain.TriggerAgeInYears:
		if rule.TriggerValueEnd != nil {
			return ageYears >= rule.TriggerValue && ageYears <= *rule.TriggerValueEnd
		}
		return ageYears == rule.TriggerValue
	case domain.TriggerLifeEvent:
		// Fires in the birth month of the year the dependent turns value.
		return ageYears == rule.TriggerValue && current.Month() == birth.Month()
	}
	return false
}

// evaluateRule decides whether the rule fires for the dependent in the given
// month and returns the inflation-adjusted amount to withdraw. The state is
// advanced on every eligible month whether or not the recurrence lets the
// rule fire.
func evaluateRule(rule *domain.ExpenseRule, dep *domain.Dependent, current time.Time, factor decimal.Decimal, st *ruleState) (decimal.Decimal, bool) {
	birth := dep.ReferenceBirthDate()
	if birth == nil {
		return decimal.Zero, false
	}

	ageMonths := dateutil.AgeInMonths(*birth, current)
	if ageMonths < 0 {
		return decimal.Zero, false
	}
	ageYears := ageMonths / 12

	if !triggerActive(rule, *birth, current, ageMonths, ageYears) {
		return decimal.Zero, false
	}

	eligible := st.eligibleMonths
	st.eligibleMonths++

	fires := false
	switch rule.Recurrence {
	case domain.RecurrenceOnce:
		fires = eligible == 0
	case domain.RecurrenceMonthly:
		fires = true
	case domain.RecurrenceQuarterly:
		fires = eligible%3 == 0
	case domain.RecurrenceYearly:
		fires = current.Month() == birth.Month()
	}
	if !fires {
		return decimal.Zero, false
	}

	return rule.Amount.Mul(factor), true
}
