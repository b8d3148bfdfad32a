package common

import (
	"strconv"
	"strings"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// ParseOptionalInt64 returns nil for an empty value.
func ParseOptionalInt64(field, value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an integer")
	}
	return &parsed, nil
}

// ParseOptionalFloat returns nil for an empty value.
func ParseOptionalFloat(field, value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a number")
	}
	return &parsed, nil
}

// SplitList accepts repeated query params as well as comma separated ones.
func SplitList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
