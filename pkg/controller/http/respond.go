package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/usecase"
	"github.com/recapd/relay/pkg/utils/errutil"
	"github.com/recapd/relay/pkg/utils/logging"
)

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err.Error())
	}
}

// handleError maps usecase sentinels onto HTTP status codes
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
	case errors.Is(err, usecase.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, usecase.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, usecase.ErrConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, usecase.ErrBadRequest):
		statusCode = http.StatusBadRequest
	case errors.Is(err, usecase.ErrUpstream):
		statusCode = http.StatusBadGateway
	}

	errutil.HandleHTTP(ctx, w, err, statusCode)
}

type meetingResponse struct {
	ID               int64          `json:"id"`
	Platform         string         `json:"platform"`
	NativeMeetingID  string         `json:"native_meeting_id"`
	Status           string         `json:"status"`
	StartTime        *time.Time     `json:"start_time"`
	EndTime          *time.Time     `json:"end_time"`
	IsLive           bool           `json:"is_live"`
	TranscriptCached bool           `json:"transcript_cached"`
	MeetingURL       string         `json:"meeting_url,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toMeetingResponse(m *model.Meeting, platforms *model.PlatformRegistry) meetingResponse {
	resp := meetingResponse{
		ID:               m.ID.Int64(),
		Platform:         m.Platform.String(),
		NativeMeetingID:  m.NativeID,
		Status:           m.Status.String(),
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		IsLive:           m.IsLive,
		TranscriptCached: m.TranscriptCached,
		Extra:            m.Extra,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if entry, err := platforms.Get(m.Platform); err == nil {
		resp.MeetingURL = entry.MeetingURL(m.NativeID)
	}
	return resp
}

func toMeetingResponses(meetings []*model.Meeting, platforms *model.PlatformRegistry) []meetingResponse {
	out := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, toMeetingResponse(m, platforms))
	}
	return out
}

type segmentResponse struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Speaker   *string `json:"speaker"`
	Language  *string `json:"language"`
}

type transcriptResponse struct {
	meetingResponse
	Segments []segmentResponse `json:"segments"`
}

func toTranscriptResponse(result *usecase.TranscriptResult, platforms *model.PlatformRegistry) transcriptResponse {
	resp := transcriptResponse{
		meetingResponse: toMeetingResponse(result.Meeting, platforms),
		Segments:        make([]segmentResponse, 0, len(result.Segments)),
	}
	for _, s := range result.Segments {
		resp.Segments = append(resp.Segments, segmentResponse{
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Text:      s.Text,
			Speaker:   s.Speaker,
			Language:  s.Language,
		})
	}
	return resp
}

type userResponse struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	ImageURL          string    `json:"image_url"`
	MaxConcurrentBots int       `json:"max_concurrent_bots"`
	WebhookURL        string    `json:"webhook_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                u.ID.Int64(),
		Email:             u.Email,
		Name:              u.Name,
		ImageURL:          u.ImageURL,
		MaxConcurrentBots: u.MaxConcurrentBots,
		WebhookURL:        u.WebhookURL,
		CreatedAt:         u.CreatedAt,
	}
}

type tokenResponse struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toTokenResponse(t *model.APIToken) tokenResponse {
	return tokenResponse{
		ID:        t.ID.Int64(),
		Token:     t.Token,
		UserID:    t.UserID.Int64(),
		CreatedAt: t.CreatedAt,
	}
}
