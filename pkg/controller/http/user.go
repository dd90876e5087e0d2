package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/usecase"
)

func (s *Server) setWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req struct {
		WebhookURL string `json:"webhook_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid request body", goerr.V("cause", err)))
		return
	}

	updated, err := s.uc.Identity.SetWebhookURL(ctx, user.ID, req.WebhookURL)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toUserResponse(updated))
}
