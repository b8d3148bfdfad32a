package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/landlink-ke/land-market/api/internal/domain"
	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
)

func (h *Handler) draftDescriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req draftDescriptionRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "draft description", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.AssistTimeout)
		defer cancel()

		description, err := h.assist.DraftDescription(ctx, common.PrincipalFromContext(r.Context()), req.Bullets)
		if err != nil {
			common.WriteError(h.logger, w, r, "draft description", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"description": description})
	}
}

func (h *Handler) evidenceSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := strings.TrimSpace(chi.URLParam(r, "id"))
		evidenceID := strings.TrimSpace(chi.URLParam(r, "evidenceId"))

		ctx, cancel := context.WithTimeout(r.Context(), common.AssistTimeout)
		defer cancel()

		evidence, err := h.assist.SummarizeEvidence(ctx, common.PrincipalFromContext(r.Context()), listingID, evidenceID)
		if err != nil {
			common.WriteError(h.logger, w, r, "evidence summary id="+evidenceID, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewEvidenceResponse(*evidence))
	}
}

func (h *Handler) listingAnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.AssistTimeout)
		defer cancel()

		analysis, err := h.assist.AnalyzeListing(ctx, common.PrincipalFromContext(r.Context()), listingID)
		if err != nil {
			common.WriteError(h.logger, w, r, "listing analysis id="+listingID, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.ImageAnalysisResponse{
			IsSuspicious: analysis.IsSuspicious,
			Reason:       analysis.Reason,
		})
	}
}

// badgeSuggestHandler previews the badge a set of documents would earn.
func (h *Handler) badgeSuggestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestBadgeRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "badge suggest", err)
			return
		}
		if req.PhotoCount < 0 {
			common.WriteError(h.logger, w, r, "badge suggest", domain.NewValidationError("photoCount", "must be >= 0"))
			return
		}

		evidence := make([]domain.Evidence, 0, len(req.Evidence))
		for _, e := range req.Evidence {
			evidence = append(evidence, domain.Evidence{Type: domain.CanonicalEvidenceType(e.Type)})
		}
		suggestion := domain.SuggestBadge(evidence, req.PhotoCount)
		common.WriteJSON(h.logger, w, http.StatusOK, common.BadgeSuggestionResponse{
			Badge:  suggestion.Badge.String(),
			Reason: suggestion.Reason,
		})
	}
}
