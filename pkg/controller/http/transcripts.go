package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recapd/relay/pkg/domain/types"
)

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	meetings, err := s.uc.Transcripts.ListMeetings(ctx, user)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toMeetingResponses(meetings, s.platforms))
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	platform := types.Platform(chi.URLParam(r, "platform"))
	nativeID := chi.URLParam(r, "native_id")

	result, err := s.uc.Transcripts.GetTranscript(ctx, user, platform, nativeID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toTranscriptResponse(result, s.platforms))
}
