package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

// listingSearchHandler serves the moderation table. Without a status
// parameter it lists every status.
func (h *Handler) listingSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := common.ParseSearchRequest(r)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin listing search", err)
			return
		}
		if req.Filter.Status == "" {
			req.Filter.Status = "all"
		}
		if h.revisions.NotModified(w, r, publicapp.PathAdminListing) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page, err := h.search.Search(ctx, common.PrincipalFromContext(r.Context()), req.Filter, req.PageSize, req.Cursor)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin listing search", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.SearchResponse{
			Items:      common.NewListingResponses(page.Items),
			NextCursor: page.NextCursor,
		})
	}
}

func (h *Handler) listingDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if h.revisions.NotModified(w, r, publicapp.PathAdminListing+"/"+id) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.listings.Detail(ctx, common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin listing detail id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewListingResponse(*listing))
	}
}

func (h *Handler) bulkStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkStatusRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "admin bulk status", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 4*common.RequestTimeout)
		defer cancel()

		updated, err := h.moderation.BulkSetStatus(ctx, common.PrincipalFromContext(r.Context()), req.IDs, req.Status)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin bulk status", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, bulkStatusResponse{Updated: updated})
	}
}

func (h *Handler) listingModerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req moderateRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "admin moderate", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.moderation.SetStatusAndBadge(ctx, common.PrincipalFromContext(r.Context()), id, req.Status, req.Badge)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin moderate id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewListingResponse(*listing))
	}
}

func (h *Handler) badgeAcceptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.moderation.AcceptBadgeSuggestion(ctx, common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "admin badge accept id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewListingResponse(*listing))
	}
}
