package public

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

const defaultHeartbeat = 20 * time.Second

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger        *log.Logger
	search        publicapp.SearchService
	listings      publicapp.ListingService
	conversations publicapp.ConversationService
	assist        publicapp.AssistService
	revisions     *common.Revisions
	heartbeat     time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger        *log.Logger
	Search        publicapp.SearchService
	Listings      publicapp.ListingService
	Conversations publicapp.ConversationService
	Assist        publicapp.AssistService
	Revisions     *common.Revisions
	// Heartbeat is the comment interval on event streams.
	Heartbeat time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{
		logger:        cfg.Logger,
		search:        cfg.Search,
		listings:      cfg.Listings,
		conversations: cfg.Conversations,
		assist:        cfg.Assist,
		revisions:     cfg.Revisions,
		heartbeat:     heartbeat,
	}
}

// Register mounts all public routes onto the router. requireAuth rejects
// anonymous callers; limit throttles the write paths that fan out to
// other users or to the model gateway.
func (h *Handler) Register(r chi.Router, requireAuth, limit func(http.Handler) http.Handler) {
	r.Get("/listings", h.listingSearchHandler())
	r.Get("/listings/{id}", h.listingDetailHandler())
	r.Get("/auth/verify", h.authVerifyHandler())

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/listings", h.listingCreateHandler())
		r.Patch("/listings/{id}", h.listingUpdateHandler())
		r.Delete("/listings/{id}", h.listingDeleteHandler())
		r.Get("/owners/{ownerId}/listings", h.ownerListingsHandler())
		r.Post("/badges/suggest", h.badgeSuggestHandler())

		r.Get("/conversations", h.conversationListHandler())
		r.Get("/conversations/{id}/messages", h.messageListHandler())
		r.Post("/conversations/{id}/close", h.conversationCloseHandler())
		r.Post("/conversations/{id}/reopen", h.conversationReopenHandler())
		r.Get("/conversations/{id}/events", h.conversationEventsHandler())

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/listings/{id}/conversations", h.conversationStartHandler())
			r.Post("/conversations/{id}/messages", h.messageSendHandler())
			r.Post("/assist/description", h.draftDescriptionHandler())
			r.Post("/listings/{id}/evidence/{evidenceId}/summary", h.evidenceSummaryHandler())
			r.Post("/listings/{id}/analysis", h.listingAnalysisHandler())
		})
	})
}
