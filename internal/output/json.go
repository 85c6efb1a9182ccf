package output

import (
	json "github.com/goccy/go-json"

	"github.com/nestplan/nestplan/internal/domain"
)

// JSONFormatter emits the complete result for machine consumption.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) Format(result *domain.SimulationResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
