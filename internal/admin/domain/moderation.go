package domain

import (
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// Change is an admin write to the moderation fields of one listing. Nil
// fields are left untouched.
type Change struct {
	Status     *domain.ListingStatus
	Badge      *domain.Badge
	ReviewedAt time.Time
}

// NewChange parses the raw status and badge. At least one must be set.
func NewChange(status, badge string, reviewedAt time.Time) (Change, error) {
	change := Change{ReviewedAt: reviewedAt.UTC()}
	if status != "" {
		s, err := domain.ParseListingStatus(status)
		if err != nil {
			return Change{}, err
		}
		change.Status = &s
	}
	if badge != "" {
		b, err := domain.ParseBadge(badge)
		if err != nil {
			return Change{}, err
		}
		change.Badge = &b
	}
	if change.Status == nil && change.Badge == nil {
		return Change{}, domain.NewValidationError("status", "status or badge is required")
	}
	return change, nil
}
