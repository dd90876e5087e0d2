package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/usecase"
)

func currentUser(r *http.Request) (*model.User, error) {
	user, err := model.UserFromContext(r.Context())
	if err != nil {
		return nil, goerr.Wrap(usecase.ErrUnauthorized, "no authenticated user in context")
	}
	return user, nil
}

func (s *Server) requestBot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req struct {
		Platform        string `json:"platform"`
		NativeMeetingID string `json:"native_meeting_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid request body", goerr.V("cause", err)))
		return
	}

	meeting, err := s.uc.Bots.RequestBot(ctx, user, types.Platform(req.Platform), req.NativeMeetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toMeetingResponse(meeting, s.platforms))
}

func (s *Server) stopBot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	platform := types.Platform(chi.URLParam(r, "platform"))
	nativeID := chi.URLParam(r, "native_id")

	ack, err := s.uc.Bots.StopBot(ctx, user, platform, nativeID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, ack)
}

func (s *Server) botsStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := currentUser(r); err != nil {
		handleError(ctx, w, err)
		return
	}

	bots, err := s.uc.Bots.RunningBots(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if bots == nil {
		bots = []infra.BotStatus{}
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"running_bots": bots})
}
