package application

import (
	"context"
	"strings"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	statusAll       = "all"
)

// searchService implements SearchService.
//
// The store can combine equality filters with a single range filter, so
// price is pushed down and area plus the free-text query are applied in
// memory to each fetched page. A page may therefore hold fewer than
// pageSize items while NextCursor is still set.
type searchService struct {
	repo            ListingRepository
	defaultPageSize int
	maxPageSize     int
}

func NewSearchService(repo ListingRepository, defaultPageSize, maxPageSize int) SearchService {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = min(DefaultPageSize, maxPageSize)
	}
	return &searchService{repo: repo, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

func (s *searchService) Search(ctx context.Context, principal domain.Principal, filter SearchFilter, pageSize int, cursor string) (SearchPage, error) {
	query, err := s.buildQuery(principal, filter, pageSize, cursor)
	if err != nil {
		return SearchPage{}, err
	}

	result, err := s.repo.Scan(ctx, query)
	if err != nil {
		return SearchPage{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(filter.Query))
	items := make([]domain.Listing, 0, len(result.Items))
	for _, listing := range result.Items {
		if !listing.VisibleTo(principal) {
			continue
		}
		if !withinArea(listing.Area, filter.MinArea, filter.MaxArea) {
			continue
		}
		if needle != "" && !matchesText(listing, needle) {
			continue
		}
		listing.RedactFor(principal)
		items = append(items, listing)
	}

	page := SearchPage{Items: items}
	if result.Fetched >= query.Limit && result.LastID != "" {
		page.NextCursor = result.LastID
	}
	return page, nil
}

func (s *searchService) buildQuery(principal domain.Principal, filter SearchFilter, pageSize int, cursor string) (ListingQuery, error) {
	if err := validateRanges(filter); err != nil {
		return ListingQuery{}, err
	}

	badges, err := domain.NewBadgeList(filter.Badges)
	if err != nil {
		return ListingQuery{}, err
	}

	status, err := resolveStatus(principal, filter.Status)
	if err != nil {
		return ListingQuery{}, err
	}

	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	return ListingQuery{
		Status:      status,
		LandType:    strings.TrimSpace(filter.LandType),
		Badges:      badges,
		MinPrice:    filter.MinPrice,
		MaxPrice:    filter.MaxPrice,
		SortByPrice: filter.MinPrice != nil || filter.MaxPrice != nil,
		After:       strings.TrimSpace(cursor),
		Limit:       pageSize,
	}, nil
}

// resolveStatus pins callers other than admins to approved listings.
func resolveStatus(principal domain.Principal, raw string) (*domain.ListingStatus, error) {
	approved := domain.StatusApproved
	if !principal.IsAdmin() {
		return &approved, nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &approved, nil
	}
	if strings.EqualFold(raw, statusAll) {
		return nil, nil
	}
	status, err := domain.ParseListingStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func validateRanges(filter SearchFilter) error {
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return domain.NewValidationError("minPrice", "must not be negative")
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return domain.NewValidationError("maxPrice", "must not be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return domain.NewValidationError("minPrice", "must not exceed maxPrice")
	}
	if filter.MinArea != nil && *filter.MinArea < 0 {
		return domain.NewValidationError("minArea", "must not be negative")
	}
	if filter.MaxArea != nil && *filter.MaxArea < 0 {
		return domain.NewValidationError("maxArea", "must not be negative")
	}
	if filter.MinArea != nil && filter.MaxArea != nil && *filter.MinArea > *filter.MaxArea {
		return domain.NewValidationError("minArea", "must not exceed maxArea")
	}
	return nil
}

func withinArea(area float64, minArea, maxArea *float64) bool {
	if minArea != nil && area < *minArea {
		return false
	}
	if maxArea != nil && area > *maxArea {
		return false
	}
	return true
}

func matchesText(listing domain.Listing, needle string) bool {
	for _, field := range []string{listing.Title, listing.Location, listing.County} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
