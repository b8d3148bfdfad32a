package application

import (
	"context"

	admindomain "github.com/landlink-ke/land-market/api/internal/admin/domain"
	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ModerationRepository exposes the single-document admin writes.
type ModerationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	ApplyChange(ctx context.Context, id string, change admindomain.Change) (*domain.Listing, error)
}

// Revalidator invalidates cached read paths after a write.
type Revalidator interface {
	Revalidate(paths ...string)
}

// ModerationService describes admin moderation use-cases.
type ModerationService interface {
	BulkSetStatus(ctx context.Context, principal domain.Principal, ids []string, status string) (int, error)
	SetStatusAndBadge(ctx context.Context, principal domain.Principal, id, status, badge string) (*domain.Listing, error)
	AcceptBadgeSuggestion(ctx context.Context, principal domain.Principal, id string) (*domain.Listing, error)
}
