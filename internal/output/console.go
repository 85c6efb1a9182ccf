package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nestplan/nestplan/internal/domain"
)

// ConsoleFormatter renders a human-readable report: the run summary, the
// goal verdicts, and a year-by-year sample of the timeline.
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (ConsoleFormatter) Format(result *domain.SimulationResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	s := result.Summary

	fmt.Fprintln(buf, strings.Repeat("=", 72))
	fmt.Fprintln(buf, "HOUSEHOLD NET WORTH PROJECTION")
	fmt.Fprintln(buf, strings.Repeat("=", 72))
	fmt.Fprintf(buf, "Horizon:              %s to %s (%d months)\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.Months)
	fmt.Fprintf(buf, "Starting balance:     %s\n", FormatCurrency(s.InitialBalance))
	fmt.Fprintf(buf, "Final balance:        %s nominal / %s real\n",
		FormatCurrency(s.FinalBalance), FormatCurrency(s.FinalBalanceReal))
	fmt.Fprintf(buf, "Total deposits:       %s\n", FormatCurrency(s.TotalDeposits))
	fmt.Fprintf(buf, "Total withdrawals:    %s\n", FormatCurrency(s.TotalWithdrawals))
	fmt.Fprintf(buf, "Total returns:        %s nominal / %s real\n",
		FormatCurrency(s.TotalReturns), FormatCurrency(s.TotalReturnsReal))
	fmt.Fprintf(buf, "Total fees:           %s\n", FormatCurrency(s.TotalFees))
	fmt.Fprintf(buf, "Child expenses:       %s\n", FormatCurrency(s.TotalChildExpenses))
	fmt.Fprintf(buf, "Effective return:     %s%% nominal / %s%% real\n",
		s.EffectiveReturnRate.Mul(hundred).StringFixed(2),
		s.EffectiveReturnRateReal.Mul(hundred).StringFixed(2))
	fmt.Fprintf(buf, "Inflation factor:     %s over the full horizon\n", s.TotalInflationFactor.StringFixed(4))
	fmt.Fprintln(buf)

	if len(result.Goals) > 0 {
		fmt.Fprintln(buf, "GOALS")
		fmt.Fprintln(buf, strings.Repeat("-", 72))
		for _, g := range result.Goals {
			status := "achievable"
			if !g.Achievable {
				status = fmt.Sprintf("short by %s", FormatCurrency(g.Shortfall))
			}
			when := "horizon end"
			if g.TargetDate != nil {
				when = g.TargetDate.Format("2006-01-02")
			}
			fmt.Fprintf(buf, "%-24s target %s by %s: projected %s (%s)\n",
				g.GoalName, FormatCurrency(g.TargetAmount), when, FormatCurrency(g.ProjectedAmount), status)
			if g.RequiredMonthlyContribution.GreaterThan(zero) {
				fmt.Fprintf(buf, "%-24s needs an extra %s per month\n", "", FormatCurrency(g.RequiredMonthlyContribution))
			}
		}
		fmt.Fprintln(buf)
	}

	fmt.Fprintln(buf, "TIMELINE (yearly)")
	fmt.Fprintln(buf, strings.Repeat("-", 72))
	fmt.Fprintf(buf, "%-12s %18s %18s\n", "Date", "Nominal", "Real")
	for i, point := range result.Timeline {
		if i%12 != 0 && i != len(result.Timeline)-1 {
			continue
		}
		fmt.Fprintf(buf, "%-12s %18s %18s\n",
			point.Date.Format("2006-01-02"),
			FormatCurrency(point.TotalAssets),
			FormatCurrency(point.TotalAssetsReal))
	}

	return buf.Bytes(), nil
}
