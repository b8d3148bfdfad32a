package domain

import (
	"fmt"
	"strings"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// MaxBulkTargets caps the ids accepted by one bulk mutation.
const MaxBulkTargets = 200

// ListingIDs is a de-duplicated, non-empty list of listing ids preserving
// input order.
type ListingIDs []string

func NewListingIDs(values []string) (ListingIDs, error) {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{})
	for _, raw := range values {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	if len(result) == 0 {
		return nil, domain.NewValidationError("ids", "at least one listing id is required")
	}
	if len(result) > MaxBulkTargets {
		return nil, domain.NewValidationError("ids", fmt.Sprintf("must be <= %d", MaxBulkTargets))
	}
	return ListingIDs(result), nil
}
