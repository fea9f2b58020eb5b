package scenario

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/selivandex/finsights/internal/adapters/ai"
)

// ErrInvalidScenarioSet marks a generated batch that failed domain
// validation. The batch is rejected in full; nothing is persisted.
var ErrInvalidScenarioSet = errors.New("invalid scenario set")

// Impact values must be signed percentage strings, e.g. "+3.2%" or
// "-1.5%"; the sign drives the positive/negative display indicator
var signedPercentRe = regexp.MustCompile(`^[+-][0-9]+(\.[0-9]+)?%$`)

// validateDrafts checks every scenario in a generated batch.
// Probabilities are independent estimates: each must lie in [0,1] but
// the set does not need to sum to 1.
func validateDrafts(drafts []ai.ScenarioDraft) error {
	for i, d := range drafts {
		if d.Probability < 0 || d.Probability > 1 {
			return fmt.Errorf("%w: scenario %d probability %v outside [0,1]",
				ErrInvalidScenarioSet, i, d.Probability)
		}

		for _, impacts := range []map[string]string{
			d.ImpactAnalysis.Sectors,
			d.ImpactAnalysis.Indices,
			d.ImpactAnalysis.Stocks,
		} {
			for name, value := range impacts {
				if err := validateImpact(value); err != nil {
					return fmt.Errorf("%w: scenario %d impact %q: %v",
						ErrInvalidScenarioSet, i, name, err)
				}
			}
		}
	}

	return nil
}

func validateImpact(value string) error {
	if !signedPercentRe.MatchString(value) {
		return fmt.Errorf("value %q is not a signed percentage", value)
	}

	magnitude := strings.TrimSuffix(value, "%")
	if _, err := decimal.NewFromString(magnitude); err != nil {
		return fmt.Errorf("value %q is not numeric: %v", value, err)
	}

	return nil
}
