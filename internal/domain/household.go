package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies a household member for the projection: self and spouse
// contribute income, child and planned_child are subjects for expense
// catalogs.
type Role string

const (
	RoleSelf         Role = "self"
	RoleSpouse       Role = "spouse"
	RoleChild        Role = "child"
	RolePlannedChild Role = "planned_child"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSelf, RoleSpouse, RoleChild, RolePlannedChild:
		return true
	}
	return false
}

// IsChild reports whether the member is a trigger subject for expense rules.
func (r Role) IsChild() bool {
	return r == RoleChild || r == RolePlannedChild
}

// Account is a savings or investment vehicle. The engine copies the balance
// into its own working state; the snapshot handed in is never written back.
type Account struct {
	ID                  string          `yaml:"id" json:"id"`
	Name                string          `yaml:"name" json:"name"`
	Balance             decimal.Decimal `yaml:"balance" json:"balance"`
	AnnualReturnPercent decimal.Decimal `yaml:"annual_return_percent" json:"annual_return_percent"` // may be negative
	AnnualFeePercent    decimal.Decimal `yaml:"annual_fee_percent" json:"annual_fee_percent"`       // on balance
	DepositFeePercent   decimal.Decimal `yaml:"deposit_fee_percent" json:"deposit_fee_percent"`     // on deposits
	MonthlyDeposit      decimal.Decimal `yaml:"monthly_deposit" json:"monthly_deposit"`
	EmployerDeposit     decimal.Decimal `yaml:"employer_deposit" json:"employer_deposit"`
}

// Dependent is a family member. Exactly one of BirthDate or
// ExpectedBirthDate is set for members that participate in age-based logic;
// a dependent with neither contributes nothing to it.
type Dependent struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	Role              Role       `yaml:"role" json:"role"`
	BirthDate         *time.Time `yaml:"birth_date,omitempty" json:"birth_date,omitempty"`
	ExpectedBirthDate *time.Time `yaml:"expected_birth_date,omitempty" json:"expected_birth_date,omitempty"`
	ExpenseCatalogID  string     `yaml:"expense_catalog_id,omitempty" json:"expense_catalog_id,omitempty"`
}

// ReferenceBirthDate returns the date age math is anchored to: the birth
// date if known, the expected birth date for a planned child, else nil.
func (d *Dependent) ReferenceBirthDate() *time.Time {
	if d.BirthDate != nil {
		return d.BirthDate
	}
	return d.ExpectedBirthDate
}

// IncomeRecord is one entry in a dependent's append-only income history.
// The record is effective from EffectiveDate until superseded by a later one.
type IncomeRecord struct {
	DependentID   string          `yaml:"dependent_id" json:"dependent_id"`
	Amount        decimal.Decimal `yaml:"amount" json:"amount"` // monthly
	EffectiveDate time.Time       `yaml:"effective_date" json:"effective_date"`
}

// TriggerKind selects what an expense rule keys off.
type TriggerKind string

const (
	TriggerAgeInMonths TriggerKind = "age_in_months"
	TriggerAgeInYears  TriggerKind = "age_in_years"
	TriggerLifeEvent   TriggerKind = "life_event"
)

// Valid reports whether the trigger kind is one of the known values.
func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerAgeInMonths, TriggerAgeInYears, TriggerLifeEvent:
		return true
	}
	return false
}

// Recurrence modulates how often a rule fires within its trigger window.
type Recurrence string

const (
	RecurrenceOnce      Recurrence = "once"
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
	RecurrenceYearly    Recurrence = "yearly"
)

// Valid reports whether the recurrence is one of the known values.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceOnce, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return true
	}
	return false
}

// ExpenseRule is one age- or event-triggered cost in a catalog. Amounts are
// in today's money and are inflated forward when the rule fires.
type ExpenseRule struct {
	Label           string          `yaml:"label" json:"label"`
	Trigger         TriggerKind     `yaml:"trigger" json:"trigger"`
	TriggerValue    int             `yaml:"trigger_value" json:"trigger_value"`
	TriggerValueEnd *int            `yaml:"trigger_value_end,omitempty" json:"trigger_value_end,omitempty"` // inclusive
	Amount          decimal.Decimal `yaml:"amount" json:"amount"`
	Recurrence      Recurrence      `yaml:"recurrence" json:"recurrence"`
	SortOrder       int             `yaml:"sort_order" json:"sort_order"`
}

// ExpenseCatalog is a reusable set of expense rules assignable to child
// dependents.
type ExpenseCatalog struct {
	ID    string        `yaml:"id" json:"id"`
	Name  string        `yaml:"name" json:"name"`
	Rules []ExpenseRule `yaml:"rules" json:"rules"`
}

// Goal is a savings target evaluated against the completed timeline. The
// engine never mutates goals.
type Goal struct {
	ID                  string          `yaml:"id" json:"id"`
	Name                string          `yaml:"name" json:"name"`
	TargetAmount        decimal.Decimal `yaml:"target_amount" json:"target_amount"`
	TargetDate          *time.Time      `yaml:"target_date,omitempty" json:"target_date,omitempty"`
	TargetAge           *int            `yaml:"target_age,omitempty" json:"target_age,omitempty"`
	AccountID           string          `yaml:"account_id,omitempty" json:"account_id,omitempty"`
	MonthlyContribution decimal.Decimal `yaml:"monthly_contribution" json:"monthly_contribution"`
	Priority            int             `yaml:"priority" json:"priority"`
}

// Household is the complete snapshot the engine consumes: account order is
// significant (it is the withdrawal tie-break order).
type Household struct {
	Name                 string           `yaml:"name" json:"name"`
	InflationRatePercent decimal.Decimal  `yaml:"inflation_rate_percent" json:"inflation_rate_percent"`
	Accounts             []Account        `yaml:"accounts" json:"accounts"`
	Dependents           []Dependent      `yaml:"dependents" json:"dependents"`
	IncomeHistory        []IncomeRecord   `yaml:"income_history,omitempty" json:"income_history,omitempty"`
	ExpenseCatalogs      []ExpenseCatalog `yaml:"expense_catalogs,omitempty" json:"expense_catalogs,omitempty"`
	DefaultCatalogID     string           `yaml:"default_catalog_id,omitempty" json:"default_catalog_id,omitempty"`
	Goals                []Goal           `yaml:"goals,omitempty" json:"goals,omitempty"`
}

// CatalogByID returns the catalog with the given id, or nil.
func (h *Household) CatalogByID(id string) *ExpenseCatalog {
	for i := range h.ExpenseCatalogs {
		if h.ExpenseCatalogs[i].ID == id {
			return &h.ExpenseCatalogs[i]
		}
	}
	return nil
}

// CatalogFor resolves the expense catalog for a child dependent: its
// explicit assignment first, then the household default.
func (h *Household) CatalogFor(d *Dependent) *ExpenseCatalog {
	if d.ExpenseCatalogID != "" {
		if c := h.CatalogByID(d.ExpenseCatalogID); c != nil {
			return c
		}
	}
	if h.DefaultCatalogID != "" {
		return h.CatalogByID(h.DefaultCatalogID)
	}
	return nil
}

// AccountByID returns the account with the given id, or nil.
func (h *Household) AccountByID(id string) *Account {
	for i := range h.Accounts {
		if h.Accounts[i].ID == id {
			return &h.Accounts[i]
		}
	}
	return nil
}

// SelfDependent returns the household's "self" member, or nil.
func (h *Household) SelfDependent() *Dependent {
	for i := range h.Dependents {
		if h.Dependents[i].Role == RoleSelf {
			return &h.Dependents[i]
		}
	}
	return nil
}

// DependentByID returns the dependent with the given id, or nil.
func (h *Household) DependentByID(id string) *Dependent {
	for i := range h.Dependents {
		if h.Dependents[i].ID == id {
			return &h.Dependents[i]
		}
	}
	return nil
}

// IncomeAt returns the dependent's monthly income in effect at the given
// date: the most recent history record with an effective date at or before
// it, zero when none exists.
func (h *Household) IncomeAt(dependentID string, at time.Time) decimal.Decimal {
	current := decimal.Zero
	var currentDate time.Time
	found := false
	for _, rec := range h.IncomeHistory {
		if rec.DependentID != dependentID || rec.EffectiveDate.After(at) {
			continue
		}
		if !found || rec.EffectiveDate.After(currentDate) {
			current = rec.Amount
			currentDate = rec.EffectiveDate
			found = true
		}
	}
	return current
}
