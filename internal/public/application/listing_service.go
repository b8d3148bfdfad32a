package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

const (
	maxListingImages   = 20
	maxListingEvidence = 20
	maxTitleRunes      = 140
)

// listingService implements ListingService.
type listingService struct {
	listings    ListingRepository
	evidence    EvidenceRepository
	revalidator Revalidator
	now         func() time.Time
}

func NewListingService(listings ListingRepository, evidence EvidenceRepository, revalidator Revalidator) ListingService {
	return &listingService{
		listings:    listings,
		evidence:    evidence,
		revalidator: revalidator,
		now:         time.Now,
	}
}

func (s *listingService) Detail(ctx context.Context, principal domain.Principal, id string) (*domain.Listing, error) {
	var (
		listing  *domain.Listing
		evidence []domain.Evidence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing, err = s.listings.FindByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		evidence, err = s.evidence.FindByListing(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !listing.VisibleTo(principal) {
		return nil, domain.ErrNotFound
	}
	listing.Evidence = evidence
	listing.RedactFor(principal)
	return listing, nil
}

func (s *listingService) ForOwner(ctx context.Context, principal domain.Principal, ownerID string) ([]domain.Listing, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.NewValidationError("ownerId", "is required")
	}
	if principal.UID != ownerID && !principal.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	return s.listings.FindByOwner(ctx, ownerID)
}

func (s *listingService) Create(ctx context.Context, principal domain.Principal, cmd CreateListingCommand) (*domain.Listing, error) {
	if !principal.CanSell() {
		return nil, domain.ErrPermissionDenied
	}

	images, err := buildImages(cmd.Images)
	if err != nil {
		return nil, err
	}
	evidence, err := buildEvidence(cmd.Evidence, principal.UID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	listing := &domain.Listing{
		OwnerID:     principal.UID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Location:    strings.TrimSpace(cmd.Location),
		County:      strings.TrimSpace(cmd.County),
		Price:       cmd.Price,
		Area:        cmd.Area,
		Size:        strings.TrimSpace(cmd.Size),
		LandType:    strings.TrimSpace(cmd.LandType),
		Images:      images,
		Status:      domain.StatusPending,
		Badge:       domain.BadgeNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyCoordinates(listing, cmd.Latitude, cmd.Longitude); err != nil {
		return nil, err
	}
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	suggestion := domain.SuggestBadge(evidence, len(images))
	listing.BadgeSuggestion = &suggestion

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	if len(evidence) > 0 {
		for i := range evidence {
			evidence[i].ListingID = listing.ID
			evidence[i].UploadedAt = now
		}
		if err := s.evidence.CreateMany(ctx, evidence); err != nil {
			return nil, fmt.Errorf("store evidence for listing %s: %w", listing.ID, err)
		}
	}
	listing.Evidence = evidence

	s.revalidate(listing.ID)
	return listing, nil
}

func (s *listingService) Update(ctx context.Context, principal domain.Principal, id string, cmd UpdateListingCommand) (*domain.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.CanManage(principal) {
		if !listing.VisibleTo(principal) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrPermissionDenied
	}

	newEvidence, err := buildEvidence(cmd.Evidence, listing.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(listing, cmd); err != nil {
		return nil, err
	}
	if err := validateListing(listing); err != nil {
		return nil, err
	}

	existing, err := s.evidence.FindByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for i := range newEvidence {
		newEvidence[i].ListingID = listing.ID
		newEvidence[i].UploadedAt = now
	}
	all := append(existing, newEvidence...)
	suggestion := domain.SuggestBadge(all, len(listing.Images))
	listing.BadgeSuggestion = &suggestion

	listing.UpdatedAt = now

	// Any owner edit needs a fresh review.
	stored, err := s.listings.UpdateDetails(ctx, listing, listing.IsOwnedBy(principal.UID))
	if err != nil {
		return nil, err
	}
	if len(newEvidence) > 0 {
		if err := s.evidence.CreateMany(ctx, newEvidence); err != nil {
			return nil, fmt.Errorf("store evidence for listing %s: %w", stored.ID, err)
		}
	}
	stored.Evidence = all

	s.revalidate(stored.ID)
	return stored, nil
}

func (s *listingService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !listing.CanManage(principal) {
		if !listing.VisibleTo(principal) {
			return domain.ErrNotFound
		}
		return domain.ErrPermissionDenied
	}
	if err := s.evidence.DeleteByListing(ctx, listing.ID); err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, listing.ID); err != nil {
		return err
	}
	s.revalidate(listing.ID)
	return nil
}

func (s *listingService) revalidate(id string) {
	if s.revalidator != nil {
		s.revalidator.Revalidate(ListingPaths(id)...)
	}
}

func applyPatch(listing *domain.Listing, cmd UpdateListingCommand) error {
	if cmd.Title != nil {
		listing.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Description != nil {
		listing.Description = strings.TrimSpace(*cmd.Description)
	}
	locationChanged := false
	if cmd.Location != nil {
		next := strings.TrimSpace(*cmd.Location)
		locationChanged = next != listing.Location
		listing.Location = next
	}
	if cmd.County != nil {
		listing.County = strings.TrimSpace(*cmd.County)
	}
	if cmd.Price != nil {
		listing.Price = *cmd.Price
	}
	if cmd.Area != nil {
		listing.Area = *cmd.Area
	}
	if cmd.Size != nil {
		listing.Size = strings.TrimSpace(*cmd.Size)
	}
	if cmd.LandType != nil {
		listing.LandType = strings.TrimSpace(*cmd.LandType)
	}
	if cmd.Images != nil {
		images, err := buildImages(*cmd.Images)
		if err != nil {
			return err
		}
		listing.Images = images
	}

	switch {
	case cmd.Latitude != nil || cmd.Longitude != nil:
		return applyCoordinates(listing, cmd.Latitude, cmd.Longitude)
	case locationChanged && listing.IsApproximateLocation:
		return applyCoordinates(listing, nil, nil)
	}
	return nil
}

// applyCoordinates stores a real geocode when both parts are given and
// falls back to an approximate position derived from the location.
func applyCoordinates(listing *domain.Listing, lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return domain.NewValidationError("latitude", "latitude and longitude must be given together")
	}
	if lat != nil {
		if *lat < -90 || *lat > 90 {
			return domain.NewValidationError("latitude", "out of range")
		}
		if *lon < -180 || *lon > 180 {
			return domain.NewValidationError("longitude", "out of range")
		}
		listing.Latitude = *lat
		listing.Longitude = *lon
		listing.IsApproximateLocation = false
		return nil
	}
	coords := domain.GenerateCoordsFromLocation(listing.Location)
	listing.Latitude = coords.Latitude
	listing.Longitude = coords.Longitude
	listing.IsApproximateLocation = true
	return nil
}

func validateListing(listing *domain.Listing) error {
	var errs []error
	if listing.Title == "" {
		errs = append(errs, domain.NewValidationError("title", "is required"))
	} else if len([]rune(listing.Title)) > maxTitleRunes {
		errs = append(errs, domain.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleRunes)))
	}
	if listing.Location == "" {
		errs = append(errs, domain.NewValidationError("location", "is required"))
	}
	if listing.County == "" {
		errs = append(errs, domain.NewValidationError("county", "is required"))
	}
	if listing.Price <= 0 {
		errs = append(errs, domain.NewValidationError("price", "must be positive"))
	}
	if listing.Area <= 0 {
		errs = append(errs, domain.NewValidationError("area", "must be positive"))
	}
	if listing.LandType == "" {
		errs = append(errs, domain.NewValidationError("landType", "is required"))
	}
	return errors.Join(errs...)
}

func buildImages(inputs []ImageCommand) ([]domain.Image, error) {
	if len(inputs) > maxListingImages {
		return nil, domain.NewValidationError("images", fmt.Sprintf("must be <= %d", maxListingImages))
	}
	images := make([]domain.Image, 0, len(inputs))
	for _, input := range inputs {
		raw := strings.TrimSpace(input.URL)
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, domain.NewValidationError("images", fmt.Sprintf("invalid image URL: %s", raw))
		}
		images = append(images, domain.Image{URL: raw, Hint: strings.TrimSpace(input.Hint)})
	}
	return images, nil
}

func buildEvidence(inputs []EvidenceCommand, ownerID string) ([]domain.Evidence, error) {
	if len(inputs) > maxListingEvidence {
		return nil, domain.NewValidationError("evidence", fmt.Sprintf("must be <= %d", maxListingEvidence))
	}
	evidence := make([]domain.Evidence, 0, len(inputs))
	for _, input := range inputs {
		path := strings.TrimSpace(input.StoragePath)
		if path == "" {
			return nil, domain.NewValidationError("evidence", "storagePath is required")
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			name = path[strings.LastIndex(path, "/")+1:]
		}
		evidence = append(evidence, domain.Evidence{
			OwnerID:     ownerID,
			Type:        domain.CanonicalEvidenceType(input.Type),
			Name:        name,
			StoragePath: path,
			Content:     strings.TrimSpace(input.Content),
		})
	}
	return evidence, nil
}
