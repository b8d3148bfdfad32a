package admin

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/landlink-ke/land-market/api/internal/admin/application"
	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger     *log.Logger
	search     publicapp.SearchService
	listings   publicapp.ListingService
	moderation adminapp.ModerationService
	revisions  *common.Revisions
}

// Config provides dependencies for Handler.
type Config struct {
	Logger     *log.Logger
	Search     publicapp.SearchService
	Listings   publicapp.ListingService
	Moderation adminapp.ModerationService
	Revisions  *common.Revisions
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:     cfg.Logger,
		search:     cfg.Search,
		listings:   cfg.Listings,
		moderation: cfg.Moderation,
		revisions:  cfg.Revisions,
	}
}

// Register mounts admin routes onto router. Callers mount it behind an
// admin-only middleware; the services check the role again.
func (h *Handler) Register(r chi.Router) {
	r.Get("/listings", h.listingSearchHandler())
	r.Get("/listings/{id}", h.listingDetailHandler())
	r.Post("/listings/status", h.bulkStatusHandler())
	r.Patch("/listings/{id}", h.listingModerateHandler())
	r.Post("/listings/{id}/badge/accept", h.badgeAcceptHandler())
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := common.PrincipalFromContext(r.Context())
			if principal.IsAnonymous() {
				common.WriteMessage(logger, w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !principal.IsAdmin() {
				common.WriteMessage(logger, w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
