package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	admindomain "github.com/landlink-ke/land-market/api/internal/admin/domain"
	"github.com/landlink-ke/land-market/api/internal/domain"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

const DefaultBulkConcurrency = 8

// moderationService implements ModerationService.
//
// Each listing is written on its own. A bulk call can partially succeed;
// writes that landed are kept and the failures come back as a
// *domain.BulkError.
type moderationService struct {
	repo        ModerationRepository
	revalidator Revalidator
	concurrency int
	now         func() time.Time
}

func NewModerationService(repo ModerationRepository, revalidator Revalidator, concurrency int) ModerationService {
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	return &moderationService{repo: repo, revalidator: revalidator, concurrency: concurrency, now: time.Now}
}

func (s *moderationService) BulkSetStatus(ctx context.Context, principal domain.Principal, ids []string, status string) (int, error) {
	if !principal.IsAdmin() {
		return 0, domain.ErrPermissionDenied
	}
	targets, err := admindomain.NewListingIDs(ids)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(status) == "" {
		return 0, domain.NewValidationError("status", "is required")
	}
	change, err := admindomain.NewChange(status, "", s.now())
	if err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		updated []string
		failed  = map[string]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range targets {
		id := id
		g.Go(func() error {
			_, err := s.repo.ApplyChange(gctx, id, change)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = err
			} else {
				updated = append(updated, id)
			}
			// A failed target must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range updated {
		s.revalidate(id)
	}
	if len(failed) > 0 {
		return len(updated), &domain.BulkError{Updated: len(updated), Failed: failed}
	}
	return len(updated), nil
}

func (s *moderationService) SetStatusAndBadge(ctx context.Context, principal domain.Principal, id, status, badge string) (*domain.Listing, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	change, err := admindomain.NewChange(status, badge, s.now())
	if err != nil {
		return nil, err
	}
	listing, err := s.repo.ApplyChange(ctx, strings.TrimSpace(id), change)
	if err != nil {
		return nil, err
	}
	s.revalidate(listing.ID)
	return listing, nil
}

func (s *moderationService) AcceptBadgeSuggestion(ctx context.Context, principal domain.Principal, id string) (*domain.Listing, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	listing, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if listing.BadgeSuggestion == nil {
		return nil, domain.NewValidationError("badgeSuggestion", "listing has no badge suggestion")
	}
	change, err := admindomain.NewChange("", listing.BadgeSuggestion.Badge.String(), s.now())
	if err != nil {
		return nil, errors.Join(domain.ErrMalformedRecord, err)
	}
	updated, err := s.repo.ApplyChange(ctx, listing.ID, change)
	if err != nil {
		return nil, err
	}
	s.revalidate(updated.ID)
	return updated, nil
}

func (s *moderationService) revalidate(id string) {
	if s.revalidator != nil {
		s.revalidator.Revalidate(publicapp.ListingPaths(id)...)
	}
}
