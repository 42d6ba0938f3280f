package contract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRiskLevel is returned when a risk level is not recognized.
var ErrInvalidRiskLevel = errors.New("invalid risk level")

// Allocation is the quantity of resources assigned for a risk level.
type Allocation struct {
	Resources int
	RiskLevel string
}

// allocations maps a normalized risk level to its allocation.
var allocations = map[string]Allocation{
	"low":      {Resources: 100, RiskLevel: "Low"},
	"medium":   {Resources: 200, RiskLevel: "Medium"},
	"high":     {Resources: 300, RiskLevel: "High"},
	"veryhigh": {Resources: 400, RiskLevel: "Very High"},
}

// ParseRiskLevel maps a case insensitive risk level to its allocation.
// Spaces, dashes and underscores are ignored so "Very High" and "veryHigh"
// are the same level.
func ParseRiskLevel(level string) (Allocation, error) {
	key := strings.ToLower(level)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)

	alloc, exists := allocations[key]
	if !exists {
		return Allocation{}, fmt.Errorf("%w: %q", ErrInvalidRiskLevel, level)
	}

	return alloc, nil
}
