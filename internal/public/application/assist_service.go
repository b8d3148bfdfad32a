package application

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

const (
	maxBullets          = 20
	maxDocumentExcerpt  = 600
	minSummarizableText = 20
)

// assistService implements AssistService. Model failures are returned to
// the caller as-is; nothing here retries.
type assistService struct {
	assistant   Assistant
	listings    ListingRepository
	evidence    EvidenceRepository
	revalidator Revalidator
}

func NewAssistService(assistant Assistant, listings ListingRepository, evidence EvidenceRepository, revalidator Revalidator) AssistService {
	return &assistService{assistant: assistant, listings: listings, evidence: evidence, revalidator: revalidator}
}

func (s *assistService) DraftDescription(ctx context.Context, principal domain.Principal, bullets []string) (string, error) {
	if !principal.CanSell() {
		return "", domain.ErrPermissionDenied
	}
	cleaned := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return "", domain.NewValidationError("bullets", "at least one bullet point is required")
	}
	if len(cleaned) > maxBullets {
		return "", domain.NewValidationError("bullets", fmt.Sprintf("must be <= %d", maxBullets))
	}
	return s.assistant.DraftDescription(ctx, cleaned)
}

func (s *assistService) SummarizeEvidence(ctx context.Context, principal domain.Principal, listingID, evidenceID string) (*domain.Evidence, error) {
	listing, err := s.manageable(ctx, principal, listingID)
	if err != nil {
		return nil, err
	}
	evidence, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if evidence.ListingID != listing.ID {
		return nil, domain.ErrNotFound
	}
	if utf8.RuneCountInString(strings.TrimSpace(evidence.Content)) < minSummarizableText {
		return nil, domain.NewValidationError("content", "evidence has no text to summarise")
	}

	summary, err := s.assistant.SummarizeDocument(ctx, evidence.Content)
	if err != nil {
		return nil, err
	}
	if err := s.evidence.SetSummary(ctx, evidence.ID, summary); err != nil {
		return nil, err
	}
	evidence.Summary = summary
	s.revalidate(listing.ID)
	return evidence, nil
}

func (s *assistService) AnalyzeListing(ctx context.Context, principal domain.Principal, listingID string) (*domain.ImageAnalysis, error) {
	listing, err := s.manageable(ctx, principal, listingID)
	if err != nil {
		return nil, err
	}
	evidence, err := s.evidence.FindByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	descriptions := describeDocuments(listing, evidence)
	if len(descriptions) == 0 {
		return nil, domain.NewValidationError("evidence", "listing has no documents or images to analyse")
	}

	analysis, err := s.assistant.AssessDocuments(ctx, descriptions)
	if err != nil {
		return nil, err
	}
	if err := s.listings.SetImageAnalysis(ctx, listing.ID, analysis); err != nil {
		return nil, err
	}
	s.revalidate(listing.ID)
	return &analysis, nil
}

func (s *assistService) manageable(ctx context.Context, principal domain.Principal, listingID string) (*domain.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.CanManage(principal) {
		if !listing.VisibleTo(principal) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrPermissionDenied
	}
	return listing, nil
}

func (s *assistService) revalidate(id string) {
	if s.revalidator != nil {
		s.revalidator.Revalidate(ListingPaths(id)...)
	}
}

func describeDocuments(listing *domain.Listing, evidence []domain.Evidence) []string {
	out := make([]string, 0, len(evidence)+len(listing.Images))
	for _, e := range evidence {
		text := e.Summary
		if text == "" {
			text = excerpt(e.Content, maxDocumentExcerpt)
		}
		line := fmt.Sprintf("%s document %q", e.Type, e.Name)
		if text != "" {
			line += ": " + text
		}
		out = append(out, line)
	}
	for i, img := range listing.Images {
		line := fmt.Sprintf("photo %d of a %s parcel in %s, %s", i+1, listing.LandType, listing.Location, listing.County)
		if img.Hint != "" {
			line += " (" + img.Hint + ")"
		}
		out = append(out, line)
	}
	return out
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
