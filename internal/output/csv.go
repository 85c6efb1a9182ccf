package output

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/nestplan/nestplan/internal/domain"
)

// CSVFormatter emits the timeline, one row per monthly point.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) Format(result *domain.SimulationResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{
		"Date", "TotalAssets", "TotalAssetsReal",
		"TotalDeposits", "TotalWithdrawals", "TotalReturns", "TotalFees", "TotalChildExpenses",
		"MonthlyIncome", "MonthlyIncomeReal", "InflationFactor", "Events",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, p := range result.Timeline {
		row := []string{
			p.Date.Format("2006-01-02"),
			p.TotalAssets.StringFixed(2),
			p.TotalAssetsReal.StringFixed(2),
			p.TotalDeposits.StringFixed(2),
			p.TotalWithdrawals.StringFixed(2),
			p.TotalReturns.StringFixed(2),
			p.TotalFees.StringFixed(2),
			p.TotalChildExpenses.StringFixed(2),
			p.MonthlyIncome.StringFixed(2),
			p.MonthlyIncomeReal.StringFixed(2),
			p.InflationFactor.StringFixed(6),
			strings.Join(p.Events, "; "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
