package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/nestplan/nestplan/internal/domain"
)

// Rate bounds accepted at the input boundary. The engine itself never
// re-validates; garbage that slips past here produces degenerate forecasts,
// not crashes.
var (
	minRatePercent      = decimal.NewFromInt(-50)
	maxRatePercent      = decimal.NewFromInt(50)
	minInflationPercent = decimal.NewFromInt(-10)
	maxInflationPercent = decimal.NewFromInt(20)
)

const maxEndAge = 120

// InputParser handles loading and validating plan input files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML file and validates it.
func (ip *InputParser) LoadFromFile(filename string) (*domain.PlanInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.LoadFromBytes(data)
}

// LoadFromBytes parses a YAML plan document and validates it.
func (ip *InputParser) LoadFromBytes(data []byte) (*domain.PlanInput, error) {
	var plan domain.PlanInput
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	return &plan, nil
}

// ValidatePlan checks the constraints the engine assumes hold.
func (ip *InputParser) ValidatePlan(plan *domain.PlanInput) error {
	if plan == nil {
		return fmt.Errorf("plan is required")
	}
	if err := ip.validateParameters(&plan.Parameters, &plan.Household); err != nil {
		return err
	}
	return ip.validateHousehold(&plan.Household)
}

func (ip *InputParser) validateParameters(params *domain.SimulationParameters, h *domain.Household) error {
	if params.StartDate.IsZero() {
		return fmt.Errorf("parameters: start_date is required")
	}
	if params.EndAge != nil && (*params.EndAge <= 0 || *params.EndAge > maxEndAge) {
		return fmt.Errorf("parameters: end_age must be between 1 and %d, got %d", maxEndAge, *params.EndAge)
	}
	if params.InflationRatePercent != nil {
		if err := checkInflation("parameters: inflation_rate_percent", *params.InflationRatePercent); err != nil {
			return err
		}
	}
	if params.ExtraMonthlyDeposit.IsNegative() {
		return fmt.Errorf("parameters: extra_monthly_deposit must not be negative")
	}
	switch params.WithdrawalPolicy {
	case "", domain.WithdrawalPolicySkip, domain.WithdrawalPolicyAllowNegative, domain.WithdrawalPolicyCascade:
	default:
		return fmt.Errorf("parameters: unknown withdrawal_policy %q", params.WithdrawalPolicy)
	}
	for i, dep := range params.ExtraDeposits {
		if dep.Amount.IsNegative() {
			return fmt.Errorf("extra_deposits[%d]: amount must not be negative", i)
		}
		if dep.Date.IsZero() {
			return fmt.Errorf("extra_deposits[%d]: date is required", i)
		}
		if dep.AccountID != "" && h.AccountByID(dep.AccountID) == nil {
			return fmt.Errorf("extra_deposits[%d]: unknown account_id %q", i, dep.AccountID)
		}
	}
	for i, wd := range params.WithdrawalEvents {
		if wd.Amount.IsNegative() {
			return fmt.Errorf("withdrawal_events[%d]: amount must not be negative", i)
		}
		if wd.Date.IsZero() {
			return fmt.Errorf("withdrawal_events[%d]: date is required", i)
		}
		if wd.AccountID != "" && h.AccountByID(wd.AccountID) == nil {
			return fmt.Errorf("withdrawal_events[%d]: unknown account_id %q", i, wd.AccountID)
		}
	}
	for i, exp := range params.YearlyExpenses {
		if exp.Month < 1 || exp.Month > 12 {
			return fmt.Errorf("yearly_expenses[%d]: month must be between 1 and 12, got %d", i, exp.Month)
		}
		if exp.Amount.IsNegative() {
			return fmt.Errorf("yearly_expenses[%d]: amount must not be negative", i)
		}
	}
	return nil
}

func (ip *InputParser) validateHousehold(h *domain.Household) error {
	if err := checkInflation("household: inflation_rate_percent", h.InflationRatePercent); err != nil {
		return err
	}

	seen := map[string]bool{}
	for i, acct := range h.Accounts {
		if acct.ID == "" {
			return fmt.Errorf("accounts[%d]: id is required", i)
		}
		if seen[acct.ID] {
			return fmt.Errorf("accounts[%d]: duplicate id %q", i, acct.ID)
		}
		seen[acct.ID] = true
		if acct.Balance.IsNegative() {
			return fmt.Errorf("account %s: balance must not be negative", acct.ID)
		}
		if acct.AnnualReturnPercent.LessThan(minRatePercent) || acct.AnnualReturnPercent.GreaterThan(maxRatePercent) {
			return fmt.Errorf("account %s: annual_return_percent must be between %s and %s, got %s",
				acct.ID, minRatePercent, maxRatePercent, acct.AnnualReturnPercent)
		}
		if acct.AnnualFeePercent.IsNegative() || acct.DepositFeePercent.IsNegative() {
			return fmt.Errorf("account %s: fees must not be negative", acct.ID)
		}
		if acct.MonthlyDeposit.IsNegative() || acct.EmployerDeposit.IsNegative() {
			return fmt.Errorf("account %s: deposits must not be negative", acct.ID)
		}
	}

	for i, dep := range h.Dependents {
		if dep.ID == "" {
			return fmt.Errorf("dependents[%d]: id is required", i)
		}
		if !dep.Role.Valid() {
			return fmt.Errorf("dependent %s: unknown role %q", dep.ID, dep.Role)
		}
		if dep.ExpenseCatalogID != "" && h.CatalogByID(dep.ExpenseCatalogID) == nil {
			return fmt.Errorf("dependent %s: unknown expense_catalog_id %q", dep.ID, dep.ExpenseCatalogID)
		}
	}

	if h.DefaultCatalogID != "" && h.CatalogByID(h.DefaultCatalogID) == nil {
		return fmt.Errorf("household: unknown default_catalog_id %q", h.DefaultCatalogID)
	}

	for _, cat := range h.ExpenseCatalogs {
		if cat.ID == "" {
			return fmt.Errorf("expense catalogs: id is required")
		}
		for i, rule := range cat.Rules {
			if !rule.Trigger.Valid() {
				return fmt.Errorf("catalog %s rules[%d]: unknown trigger %q", cat.ID, i, rule.Trigger)
			}
			if !rule.Recurrence.Valid() {
				return fmt.Errorf("catalog %s rules[%d]: unknown recurrence %q", cat.ID, i, rule.Recurrence)
			}
			if rule.TriggerValue < 0 {
				return fmt.Errorf("catalog %s rules[%d]: trigger_value must not be negative", cat.ID, i)
			}
			if rule.TriggerValueEnd != nil && *rule.TriggerValueEnd < rule.TriggerValue {
				return fmt.Errorf("catalog %s rules[%d]: trigger_value_end precedes trigger_value", cat.ID, i)
			}
			if rule.Amount.IsNegative() {
				return fmt.Errorf("catalog %s rules[%d]: amount must not be negative", cat.ID, i)
			}
		}
	}

	for i, rec := range h.IncomeHistory {
		if rec.Amount.IsNegative() {
			return fmt.Errorf("income_history[%d]: amount must not be negative", i)
		}
		if h.DependentByID(rec.DependentID) == nil {
			return fmt.Errorf("income_history[%d]: unknown dependent_id %q", i, rec.DependentID)
		}
	}

	for i, goal := range h.Goals {
		if goal.TargetAmount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("goals[%d]: target_amount must be positive", i)
		}
		if goal.TargetAge != nil && (*goal.TargetAge <= 0 || *goal.TargetAge > maxEndAge) {
			return fmt.Errorf("goals[%d]: target_age must be between 1 and %d", i, maxEndAge)
		}
		if goal.AccountID != "" && h.AccountByID(goal.AccountID) == nil {
			return fmt.Errorf("goals[%d]: unknown account_id %q", i, goal.AccountID)
		}
		if goal.MonthlyContribution.IsNegative() {
			return fmt.Errorf("goals[%d]: monthly_contribution must not be negative", i)
		}
	}

	return nil
}

func checkInflation(field string, rate decimal.Decimal) error {
	if rate.LessThan(minInflationPercent) || rate.GreaterThan(maxInflationPercent) {
		return fmt.Errorf("%s must be between %s%% and %s%%, got %s%%",
			field, minInflationPercent, maxInflationPercent, rate)
	}
	return nil
}
