package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/usecase"
)

func (s *Server) meetingFinished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Platform        string `json:"platform"`
		NativeMeetingID string `json:"native_meeting_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid webhook payload", goerr.V("cause", err)))
		return
	}
	if payload.Platform == "" || payload.NativeMeetingID == "" {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "platform and native_meeting_id are required"))
		return
	}

	if err := s.uc.Webhook.Finalize(ctx, types.Platform(payload.Platform), payload.NativeMeetingID); err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "webhook processed"})
}
