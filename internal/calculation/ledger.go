package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
)

var (
	decimalZero    = decimal.Zero
	decimalOne     = decimal.NewFromInt(1)
	decimalTwelve  = decimal.NewFromInt(12)
	decimalHundred = decimal.NewFromInt(100)
)

func onePlus(value decimal.Decimal) decimal.Decimal {
	return decimalOne.Add(value)
}

// ledgerDelta is the outcome of one account's month: the new balance and the
// amounts that flowed, for the cumulative totals.
type ledgerDelta struct {
	balance   decimal.Decimal
	deposited decimal.Decimal
	returned  decimal.Decimal
	feePaid   decimal.Decimal
}

// stepAccount applies one month of activity to a single account balance, in
// fixed order: recurring deposits (inflated forward), the account's share of
// the flat extra monthly deposit, compounding, then the balance fee. Order
// matters; returns and fees compound on the post-deposit balance.
func stepAccount(acct *domain.Account, balance, factor, extraShare decimal.Decimal) ledgerDelta {
	deposit := acct.MonthlyDeposit.Add(acct.EmployerDeposit).Mul(factor)
	depositFee := deposit.Mul(acct.DepositFeePercent.Div(decimalHundred))

	balance = balance.Add(deposit).Add(extraShare).Sub(depositFee)

	growth := balance.Mul(acct.AnnualReturnPercent.Div(decimalHundred).Div(decimalTwelve))
	balance = balance.Add(growth)

	fee := balance.Mul(acct.AnnualFeePercent.Div(decimalHundred).Div(decimalTwelve))
	balance = balance.Sub(fee)

	return ledgerDelta{
		balance:   balance,
		deposited: deposit.Add(extraShare),
		returned:  growth,
		feePaid:   depositFee.Add(fee),
	}
}
