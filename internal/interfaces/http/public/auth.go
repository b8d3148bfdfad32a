package public

import (
	"net/http"

	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
)

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := common.PrincipalFromContext(r.Context())
		if principal.IsAnonymous() {
			common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"status": "anonymous"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   common.NewPrincipalResponse(principal),
		})
	}
}
