package infra_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/service/infra"
)

func TestRequestBot(t *testing.T) {
	var gotPath, gotKey, gotReqID string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		gotReqID = r.Header.Get("X-Request-ID")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "status": "requested"}`))
	}))
	defer srv.Close()

	svc, err := infra.New(srv.URL, "test-key")
	gt.NoError(t, err).Required()

	info, err := svc.RequestBot(context.Background(), types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	gt.Value(t, gotPath).Equal("POST /bots")
	gt.Value(t, gotKey).Equal("test-key")
	gt.Value(t, gotBody["platform"]).Equal("google_meet")
	gt.Value(t, gotBody["native_meeting_id"]).Equal("abc-defg-hij")
	gt.True(t, gotReqID != "")

	gt.Value(t, info.ID).Equal("42")
	gt.Value(t, info.Extra["status"]).Equal("requested")
}

func TestRequestBotUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "bot limit reached"}`, http.StatusConflict)
	}))
	defer srv.Close()

	svc, err := infra.New(srv.URL, "test-key")
	gt.NoError(t, err).Required()

	_, err = svc.RequestBot(context.Background(), types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, infra.ErrRequestFailed))
}

func TestGetTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/transcripts/zoom/123456789")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"segments": [
				{"start_time": 0.0, "end_time": 3.5, "text": "hello", "speaker": "Alice"},
				{"start_time": 3.5, "end_time": 6.0, "text": "hi there", "language": "en"}
			]
		}`))
	}))
	defer srv.Close()

	svc, err := infra.New(srv.URL, "test-key")
	gt.NoError(t, err).Required()

	transcript, err := svc.GetTranscript(context.Background(), types.PlatformZoom, "123456789")
	gt.NoError(t, err).Required()

	gt.Array(t, transcript.Segments).Length(2)
	gt.Value(t, transcript.Segments[0].Text).Equal("hello")
	gt.Value(t, *transcript.Segments[0].Speaker).Equal("Alice")
	gt.Value(t, transcript.Segments[1].Text).Equal("hi there")
	gt.Value(t, *transcript.Segments[1].Language).Equal("en")
}

func TestStopBotAndDeleteMeeting(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "accepted"}`))
	}))
	defer srv.Close()

	svc, err := infra.New(srv.URL, "test-key")
	gt.NoError(t, err).Required()

	ack, err := svc.StopBot(context.Background(), types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()
	gt.Value(t, ack["message"]).Equal("accepted")

	gt.NoError(t, svc.DeleteMeeting(context.Background(), types.PlatformGoogleMeet, "abc-defg-hij"))

	gt.Array(t, paths).Length(2)
	gt.Value(t, paths[0]).Equal("DELETE /bots/google_meet/abc-defg-hij")
	gt.Value(t, paths[1]).Equal("DELETE /meetings/google_meet/abc-defg-hij")
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := infra.New("", "key")
	gt.Error(t, err)
}
