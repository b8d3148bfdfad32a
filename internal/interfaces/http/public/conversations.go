package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/landlink-ke/land-market/api/internal/domain"
	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
)

func (h *Handler) conversationStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := strings.TrimSpace(chi.URLParam(r, "id"))
		var req startConversationRequest
		if r.ContentLength != 0 {
			if err := common.DecodeJSON(r, &req); err != nil {
				common.WriteError(h.logger, w, r, "conversation start", err)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		conv, err := h.conversations.Start(ctx, common.PrincipalFromContext(r.Context()), listingID, req.Text)
		if err != nil {
			common.WriteError(h.logger, w, r, "conversation start listing="+listingID, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newConversationResponse(*conv))
	}
}

func (h *Handler) conversationListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		convs, err := h.conversations.List(ctx, common.PrincipalFromContext(r.Context()))
		if err != nil {
			common.WriteError(h.logger, w, r, "conversation list", err)
			return
		}
		items := make([]conversationResponse, 0, len(convs))
		for _, c := range convs {
			items = append(items, newConversationResponse(c))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *Handler) messageListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		msgs, err := h.conversations.Messages(ctx, common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "message list conversation="+id, err)
			return
		}
		items := make([]messageResponse, 0, len(msgs))
		for _, m := range msgs {
			items = append(items, newMessageResponse(m))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *Handler) messageSendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req sendMessageRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, r, "message send", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		msg, err := h.conversations.Send(ctx, common.PrincipalFromContext(r.Context()), id, req.ClientID, req.Text)
		if err != nil {
			common.WriteError(h.logger, w, r, "message send conversation="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, newMessageResponse(*msg))
	}
}

func (h *Handler) conversationCloseHandler() http.HandlerFunc {
	return h.conversationTransition("close", func(ctx context.Context, p domain.Principal, id string) (*domain.Conversation, error) {
		return h.conversations.Close(ctx, p, id)
	})
}

func (h *Handler) conversationReopenHandler() http.HandlerFunc {
	return h.conversationTransition("reopen", func(ctx context.Context, p domain.Principal, id string) (*domain.Conversation, error) {
		return h.conversations.Reopen(ctx, p, id)
	})
}

func (h *Handler) conversationTransition(op string, apply func(context.Context, domain.Principal, string) (*domain.Conversation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		conv, err := apply(ctx, common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "conversation "+op+" id="+id, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newConversationResponse(*conv))
	}
}

// conversationEventsHandler streams conversation events as Server-Sent
// Events until the client goes away or the subscription ends.
func (h *Handler) conversationEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		sub, err := h.conversations.Subscribe(r.Context(), common.PrincipalFromContext(r.Context()), id)
		if err != nil {
			common.WriteError(h.logger, w, r, "conversation events id="+id, err)
			return
		}
		defer sub.Close()

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			h.logger.Printf("conversation events flush unsupported id=%s err=%v", id, err)
			return
		}

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			case event, ok := <-sub.C:
				if !ok {
					return
				}
				payload, err := json.Marshal(newEventResponse(event))
				if err != nil {
					h.logger.Printf("conversation event encode failed id=%s err=%v", id, err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
