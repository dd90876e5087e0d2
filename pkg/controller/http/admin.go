package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/usecase"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(usecase.ErrBadRequest, "invalid ID", goerr.V("param", name), goerr.V("value", raw))
	}
	return id, nil
}

func parsePagination(r *http.Request) (offset, limit int, err error) {
	query := r.URL.Query()
	if raw := query.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, goerr.Wrap(usecase.ErrBadRequest, "invalid offset", goerr.V("value", raw))
		}
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, goerr.Wrap(usecase.ErrBadRequest, "invalid limit", goerr.V("value", raw))
		}
	}
	return offset, limit, nil
}

func (s *Server) findOrCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email             string `json:"email"`
		Name              string `json:"name"`
		ImageURL          string `json:"image_url"`
		MaxConcurrentBots *int   `json:"max_concurrent_bots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid request body", goerr.V("cause", err)))
		return
	}

	user, created, err := s.uc.Identity.FindOrCreateUser(ctx, usecase.FindOrCreateUserInput{
		Email:             req.Email,
		Name:              req.Name,
		ImageURL:          req.ImageURL,
		MaxConcurrentBots: req.MaxConcurrentBots,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	}
	writeJSON(ctx, w, statusCode, toUserResponse(user))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, limit, err := parsePagination(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	users, err := s.uc.Identity.ListUsers(ctx, offset, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

func (s *Server) getUserByEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.uc.Identity.GetUserByEmail(ctx, chi.URLParam(r, "email"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toUserResponse(user))
}

func (s *Server) getUserDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	detail, err := s.uc.Identity.GetUserDetail(ctx, types.UserID(id))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	tokens := make([]tokenResponse, 0, len(detail.Tokens))
	for _, t := range detail.Tokens {
		tokens = append(tokens, toTokenResponse(t))
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"user":   toUserResponse(detail.User),
		"tokens": tokens,
	})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req struct {
		Name              *string `json:"name"`
		ImageURL          *string `json:"image_url"`
		MaxConcurrentBots *int    `json:"max_concurrent_bots"`
		WebhookURL        *string `json:"webhook_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid request body", goerr.V("cause", err)))
		return
	}

	updated, err := s.uc.Identity.UpdateUser(ctx, types.UserID(id), &model.UserUpdate{
		Name:              req.Name,
		ImageURL:          req.ImageURL,
		MaxConcurrentBots: req.MaxConcurrentBots,
		WebhookURL:        req.WebhookURL,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toUserResponse(updated))
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	token, err := s.uc.Identity.IssueToken(ctx, types.UserID(id))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toTokenResponse(token))
}

func (s *Server) revokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	if err := s.uc.Identity.RevokeToken(ctx, types.TokenID(id)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) meetingUsersStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, limit, err := parsePagination(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	page, err := s.uc.Stats.MeetingUsers(ctx, offset, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	type item struct {
		Meeting meetingResponse `json:"meeting"`
		UserIDs []int64         `json:"user_ids"`
	}
	items := make([]item, 0, len(page.Items))
	for _, it := range page.Items {
		ids := make([]int64, 0, len(it.UserIDs))
		for _, uid := range it.UserIDs {
			ids = append(ids, uid.Int64())
		}
		items = append(items, item{
			Meeting: toMeetingResponse(it.Meeting, s.platforms),
			UserIDs: ids,
		})
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"total":  page.Total,
		"offset": page.Offset,
		"limit":  page.Limit,
		"items":  items,
	})
}
