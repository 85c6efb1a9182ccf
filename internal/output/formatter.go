// Package output renders simulation results for humans and machines.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nestplan/nestplan/internal/domain"
)

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// Formatter renders a simulation result into one output format.
type Formatter interface {
	Name() string
	Format(result *domain.SimulationResult) ([]byte, error)
}

// NewFormatter resolves a formatter by name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "console", "":
		return ConsoleFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Write renders the result and writes it to path, or stdout when path is
// empty.
func Write(result *domain.SimulationResult, format, path string) error {
	formatter, err := NewFormatter(format)
	if err != nil {
		return err
	}
	data, err := formatter.Format(result)
	if err != nil {
		return fmt.Errorf("formatting %s output: %w", formatter.Name(), err)
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// FormatCurrency renders a monetary amount with thousands separators and
// two decimal places.
func FormatCurrency(d decimal.Decimal) string {
	s := d.StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + frac
	if negative {
		out = "-" + out
	}
	return out
}
