package common

import (
	"net/http"
	"strings"

	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

// SearchRequest is a parsed search query string.
type SearchRequest struct {
	Filter   publicapp.SearchFilter
	PageSize int
	Cursor   string
}

// ParseSearchRequest reads the search filter from query parameters. An
// absent or non-positive limit leaves PageSize at zero so the engine
// default applies.
func ParseSearchRequest(r *http.Request) (SearchRequest, error) {
	query := r.URL.Query()

	minPrice, err := ParseOptionalInt64("minPrice", query.Get("minPrice"))
	if err != nil {
		return SearchRequest{}, err
	}
	maxPrice, err := ParseOptionalInt64("maxPrice", query.Get("maxPrice"))
	if err != nil {
		return SearchRequest{}, err
	}
	minArea, err := ParseOptionalFloat("minArea", query.Get("minArea"))
	if err != nil {
		return SearchRequest{}, err
	}
	maxArea, err := ParseOptionalFloat("maxArea", query.Get("maxArea"))
	if err != nil {
		return SearchRequest{}, err
	}

	badges := SplitList(query["badge"])
	badges = append(badges, SplitList(query["badges"])...)
	pageSize, _ := ParsePositiveInt(query.Get("limit"), 0)

	return SearchRequest{
		Filter: publicapp.SearchFilter{
			Status:   strings.TrimSpace(query.Get("status")),
			Query:    strings.TrimSpace(query.Get("q")),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
			MinArea:  minArea,
			MaxArea:  maxArea,
			LandType: CanonicalLandType(query.Get("landType")),
			Badges:   badges,
		},
		PageSize: pageSize,
		Cursor:   strings.TrimSpace(query.Get("cursor")),
	}, nil
}
