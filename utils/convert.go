package utils

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount reads a positive decimal amount. Underscores may separate digit groups.
func ParseAmount(s string) (*uint256.Int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if clean == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(clean, "-") {
		return nil, fmt.Errorf("amount must be positive: %s", s)
	}
	amount, err := uint256.FromDecimal(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("amount must be positive: %s", s)
	}
	return amount, nil
}

// Uint256ToString renders nil as "0".
func Uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}
