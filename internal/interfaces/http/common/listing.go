package common

import (
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ListingResponse is the JSON shape of a listing on every surface. Fields
// removed by domain.Listing.RedactFor are omitted.
type ListingResponse struct {
	ID                    string                   `json:"id"`
	OwnerID               string                   `json:"ownerId"`
	Title                 string                   `json:"title"`
	Description           string                   `json:"description,omitempty"`
	Location              string                   `json:"location"`
	County                string                   `json:"county"`
	Price                 int64                    `json:"price"`
	Area                  float64                  `json:"area"`
	Size                  string                   `json:"size,omitempty"`
	LandType              string                   `json:"landType"`
	Latitude              float64                  `json:"latitude"`
	Longitude             float64                  `json:"longitude"`
	IsApproximateLocation bool                     `json:"isApproximateLocation"`
	Images                []ImageResponse          `json:"images"`
	Thumbnail             string                   `json:"thumbnail,omitempty"`
	Status                string                   `json:"status"`
	Badge                 string                   `json:"badge"`
	BadgeSuggestion       *BadgeSuggestionResponse `json:"badgeSuggestion,omitempty"`
	ImageAnalysis         *ImageAnalysisResponse   `json:"imageAnalysis,omitempty"`
	Evidence              []EvidenceResponse       `json:"evidence,omitempty"`
	Views                 int                      `json:"views"`
	CreatedAt             time.Time                `json:"createdAt"`
	UpdatedAt             time.Time                `json:"updatedAt"`
	AdminReviewedAt       *time.Time               `json:"adminReviewedAt,omitempty"`
}

type ImageResponse struct {
	URL  string `json:"url"`
	Hint string `json:"hint,omitempty"`
}

type BadgeSuggestionResponse struct {
	Badge  string `json:"badge"`
	Reason string `json:"reason"`
}

type ImageAnalysisResponse struct {
	IsSuspicious bool   `json:"isSuspicious"`
	Reason       string `json:"reason"`
}

type EvidenceResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	StoragePath string    `json:"storagePath,omitempty"`
	Content     string    `json:"content,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Verified    bool      `json:"verified"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func NewListingResponse(l domain.Listing) ListingResponse {
	res := ListingResponse{
		ID:                    l.ID,
		OwnerID:               l.OwnerID,
		Title:                 l.Title,
		Description:           l.Description,
		Location:              l.Location,
		County:                l.County,
		Price:                 l.Price,
		Area:                  l.Area,
		Size:                  l.Size,
		LandType:              l.LandType,
		Latitude:              l.Latitude,
		Longitude:             l.Longitude,
		IsApproximateLocation: l.IsApproximateLocation,
		Images:                make([]ImageResponse, 0, len(l.Images)),
		Status:                l.Status.String(),
		Badge:                 l.Badge.String(),
		Views:                 l.Views(),
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
		AdminReviewedAt:       l.AdminReviewedAt,
	}
	for _, img := range l.Images {
		res.Images = append(res.Images, ImageResponse{URL: img.URL, Hint: img.Hint})
	}
	if thumb, ok := l.Thumbnail(); ok {
		res.Thumbnail = thumb.URL
	}
	if l.BadgeSuggestion != nil {
		res.BadgeSuggestion = &BadgeSuggestionResponse{Badge: l.BadgeSuggestion.Badge.String(), Reason: l.BadgeSuggestion.Reason}
	}
	if l.ImageAnalysis != nil {
		res.ImageAnalysis = &ImageAnalysisResponse{IsSuspicious: l.ImageAnalysis.IsSuspicious, Reason: l.ImageAnalysis.Reason}
	}
	for _, e := range l.Evidence {
		res.Evidence = append(res.Evidence, NewEvidenceResponse(e))
	}
	return res
}

func NewListingResponses(listings []domain.Listing) []ListingResponse {
	items := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		items = append(items, NewListingResponse(l))
	}
	return items
}

func NewEvidenceResponse(e domain.Evidence) EvidenceResponse {
	return EvidenceResponse{
		ID:          e.ID,
		Type:        e.Type.String(),
		Name:        e.Name,
		StoragePath: e.StoragePath,
		Content:     e.Content,
		Summary:     e.Summary,
		Verified:    e.Verified,
		UploadedAt:  e.UploadedAt,
	}
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Items      []ListingResponse `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}
