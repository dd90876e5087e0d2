package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	controller "github.com/recapd/relay/pkg/controller/http"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/repository/memory"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/usecase"
)

const testAdminToken = "admin-secret"

// mockInfraService is a function-field mock of infra.Service
type mockInfraService struct {
	requestBot    func(ctx context.Context, platform types.Platform, nativeID string) (*infra.BotInfo, error)
	getTranscript func(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error)
}

func (m *mockInfraService) RequestBot(ctx context.Context, platform types.Platform, nativeID string) (*infra.BotInfo, error) {
	if m.requestBot == nil {
		return &infra.BotInfo{ID: "infra-1"}, nil
	}
	return m.requestBot(ctx, platform, nativeID)
}

func (m *mockInfraService) StopBot(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error) {
	return map[string]any{"message": "accepted"}, nil
}

func (m *mockInfraService) RunningBots(ctx context.Context) ([]infra.BotStatus, error) {
	return []infra.BotStatus{{"platform": "google_meet"}}, nil
}

func (m *mockInfraService) GetTranscript(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error) {
	if m.getTranscript == nil {
		return &infra.Transcript{}, nil
	}
	return m.getTranscript(ctx, platform, nativeID)
}

func (m *mockInfraService) DeleteMeeting(ctx context.Context, platform types.Platform, nativeID string) error {
	return nil
}

type testEnv struct {
	server *controller.Server
	repo   *memory.Memory
	uc     *usecase.UseCases
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.New()
	uc := usecase.New(repo, usecase.WithInfra(&mockInfraService{}))
	server := controller.New(uc, controller.WithAdminToken(testAdminToken))

	return &testEnv{server: server, repo: repo, uc: uc}
}

func (e *testEnv) issueUserToken(t *testing.T, prefix string) string {
	t.Helper()
	ctx := context.Background()

	user, _, err := e.uc.Identity.FindOrCreateUser(ctx, usecase.FindOrCreateUserInput{
		Email: fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano()),
	})
	gt.NoError(t, err).Required()

	token, err := e.uc.Identity.IssueToken(ctx, user.ID)
	gt.NoError(t, err).Required()
	return token.Token
}

func (e *testEnv) do(method, path, apiKey string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doAdmin(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("X-Admin-API-Key", testAdminToken)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing key is 401", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/meetings", "", nil)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("unknown key is 403", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/meetings", "bogus-token", nil)
		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})
}

func TestRequestBotEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiKey := env.issueUserToken(t, "bots")

	body := map[string]string{
		"platform":          "google_meet",
		"native_meeting_id": "abc-defg-hij",
	}

	rec := env.do(http.MethodPost, "/bots", apiKey, body)
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	var meeting struct {
		ID              int64  `json:"id"`
		Platform        string `json:"platform"`
		NativeMeetingID string `json:"native_meeting_id"`
		IsLive          bool   `json:"is_live"`
		MeetingURL      string `json:"meeting_url"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meeting))
	gt.Value(t, meeting.Platform).Equal("google_meet")
	gt.Value(t, meeting.NativeMeetingID).Equal("abc-defg-hij")
	gt.Bool(t, meeting.IsLive).True()
	gt.Value(t, meeting.MeetingURL).Equal("https://meet.google.com/abc-defg-hij")

	t.Run("repeat request returns same meeting", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/bots", apiKey, body)
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var again struct {
			ID int64 `json:"id"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		gt.Value(t, again.ID).Equal(meeting.ID)
	})

	t.Run("unknown platform is 400", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/bots", apiKey, map[string]string{
			"platform":          "teams",
			"native_meeting_id": "xyz",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestStopBotEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiKey := env.issueUserToken(t, "stop")

	rec := env.do(http.MethodDelete, "/bots/google_meet/abc-defg-hij", apiKey, nil)
	gt.Number(t, rec.Code).Equal(http.StatusAccepted)

	var ack map[string]any
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	gt.Value(t, ack["message"]).Equal("accepted")
}

func TestTranscriptEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := env.issueUserToken(t, "owner")
	outsider := env.issueUserToken(t, "outsider")

	rec := env.do(http.MethodPost, "/bots", owner, map[string]string{
		"platform":          "google_meet",
		"native_meeting_id": "abc-defg-hij",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	t.Run("linked user reads transcript", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/transcripts/google_meet/abc-defg-hij", owner, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			NativeMeetingID string `json:"native_meeting_id"`
			Segments        []any  `json:"segments"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.Value(t, resp.NativeMeetingID).Equal("abc-defg-hij")
	})

	t.Run("unlinked user gets 404", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/transcripts/google_meet/abc-defg-hij", outsider, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("missing meeting gets 404", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/transcripts/google_meet/zzz-zzzz-zzz", owner, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiKey := env.issueUserToken(t, "webhook")

	rec := env.do(http.MethodPost, "/bots", apiKey, map[string]string{
		"platform":          "google_meet",
		"native_meeting_id": "abc-defg-hij",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	t.Run("finalizes known meeting", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/webhooks/meeting-finished", "", map[string]string{
			"platform":          "google_meet",
			"native_meeting_id": "abc-defg-hij",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("unknown meeting is 404", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/webhooks/meeting-finished", "", map[string]string{
			"platform":          "google_meet",
			"native_meeting_id": "zzz-zzzz-zzz",
		})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("missing fields is 400", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/webhooks/meeting-finished", "", map[string]string{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestSetWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiKey := env.issueUserToken(t, "hooks")

	rec := env.do(http.MethodPut, "/user/webhook", apiKey, map[string]string{
		"webhook_url": "https://hooks.example.com/mtg",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var user struct {
		WebhookURL string `json:"webhook_url"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	gt.Value(t, user.WebhookURL).Equal("https://hooks.example.com/mtg")

	t.Run("invalid URL is 400", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/user/webhook", apiKey, map[string]string{
			"webhook_url": "not a url",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestAdminAuth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing admin key is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("wrong admin key is 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("X-Admin-API-Key", "wrong")
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})
}

func TestAdminUserLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doAdmin(http.MethodPost, "/admin/users", map[string]string{
		"email": "lifecycle@example.com",
		"name":  "Life Cycle",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	var created struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	t.Run("second create finds existing", func(t *testing.T) {
		rec := env.doAdmin(http.MethodPost, "/admin/users", map[string]string{
			"email": "lifecycle@example.com",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("lookup by email", func(t *testing.T) {
		rec := env.doAdmin(http.MethodGet, "/admin/users/email/lifecycle@example.com", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("patch user", func(t *testing.T) {
		rec := env.doAdmin(http.MethodPatch, fmt.Sprintf("/admin/users/%d", created.ID), map[string]any{
			"max_concurrent_bots": 5,
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var updated struct {
			MaxConcurrentBots int `json:"max_concurrent_bots"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		gt.Number(t, updated.MaxConcurrentBots).Equal(5)
	})

	t.Run("issue and revoke token", func(t *testing.T) {
		rec := env.doAdmin(http.MethodPost, fmt.Sprintf("/admin/users/%d/tokens", created.ID), nil)
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var token struct {
			ID    int64  `json:"id"`
			Token string `json:"token"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
		gt.Number(t, len(token.Token)).Equal(40)

		detail := env.doAdmin(http.MethodGet, fmt.Sprintf("/admin/users/%d", created.ID), nil)
		gt.Number(t, detail.Code).Equal(http.StatusOK)

		revoke := env.doAdmin(http.MethodDelete, fmt.Sprintf("/admin/tokens/%d", token.ID), nil)
		gt.Number(t, revoke.Code).Equal(http.StatusNoContent)

		again := env.doAdmin(http.MethodDelete, fmt.Sprintf("/admin/tokens/%d", token.ID), nil)
		gt.Number(t, again.Code).Equal(http.StatusNotFound)
	})
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	apiKey := env.issueUserToken(t, "stats")

	rec := env.do(http.MethodPost, "/bots", apiKey, map[string]string{
		"platform":          "google_meet",
		"native_meeting_id": "abc-defg-hij",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	stats := env.doAdmin(http.MethodGet, "/admin/stats/meetings-users", nil)
	gt.Number(t, stats.Code).Equal(http.StatusOK)

	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			UserIDs []int64 `json:"user_ids"`
		} `json:"items"`
	}
	gt.NoError(t, json.Unmarshal(stats.Body.Bytes(), &page))
	gt.Number(t, page.Total).Equal(1)
	gt.Array(t, page.Items).Length(1)
	gt.Array(t, page.Items[0].UserIDs).Length(1)
}
