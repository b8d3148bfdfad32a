package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

func (h *Handler) listingSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := common.ParseSearchRequest(r)
		if err != nil {
			common.WriteError(h.logger, w, r, "listing search", err)
			return
		}
		if h.revisions.NotModified(w, r, publicapp.PathListingFeed) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		principal := common.PrincipalFromContext(r.Context())
		page, err := h.search.Search(ctx, principal, req.Filter, req.PageSize, req.Cursor)
		if err != nil {
			common.WriteError(h.logger, w, r, "listing search", err)
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
		if h.revisions.NotModified(w, r, publicapp.PathListingFeed+"/"+id) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.listings.Detail(ctx, common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "listing detail id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewListingResponse(*listing))
	}
}

func (h *Handler) listingCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListingRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "listing create", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.listings.Create(ctx, common.PrincipalFromContext(r.Context()), req.command())
		if err != nil {
			common.WriteError(h.logger, w, r, "listing create", err)
			return
		}
		w.Header().Set("Location", publicapp.PathListingFeed+"/"+listing.ID)
		common.WriteJSON(h.logger, w, http.StatusCreated, common.NewListingResponse(*listing))
	}
}

func (h *Handler) listingUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req updateListingRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "listing update", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listing, err := h.listings.Update(ctx, common.PrincipalFromContext(r.Context()), id, req.command())
		if err != nil {
			common.WriteError(h.logger, w, r, "listing update id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewListingResponse(*listing))
	}
}

func (h *Handler) listingDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := h.listings.Delete(ctx, common.PrincipalFromContext(r.Context()), id); err != nil {
			common.WriteError(h.logger, w, r, "listing delete id="+id, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) ownerListingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(chi.URLParam(r, "ownerId"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		listings, err := h.listings.ForOwner(ctx, common.PrincipalFromContext(r.Context()), ownerID)
		if err != nil {
			common.WriteError(h.logger, w, r, "owner listings owner="+ownerID, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, ownerListingsResponse{Items: common.NewListingResponses(listings)})
	}
}
