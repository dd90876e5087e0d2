package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/utils/safe"
)

// ErrRequestFailed is returned when the upstream answers with a non-2xx
// status. The wrapped error carries the status code and response body.
var ErrRequestFailed = goerr.New("upstream request failed")

const defaultTimeout = 30 * time.Second

// client implements Service over the upstream HTTP API
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the upstream client
type Option func(*client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates an upstream client for the given base URL and API key
func New(baseURL, apiKey string, opts ...Option) (Service, error) {
	if baseURL == "" {
		return nil, goerr.New("upstream base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, goerr.Wrap(err, "invalid upstream base URL", goerr.V("baseURL", baseURL))
	}

	c := &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("method", method), goerr.V("path", path))
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call upstream", goerr.V("method", method), goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.Wrap(ErrRequestFailed, "unexpected upstream status",
			goerr.V("method", method),
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode upstream response", goerr.V("method", method), goerr.V("path", path))
	}
	return nil
}

func meetingPath(prefix string, platform types.Platform, nativeID string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, url.PathEscape(platform.String()), url.PathEscape(nativeID))
}

func (c *client) RequestBot(ctx context.Context, platform types.Platform, nativeID string) (*BotInfo, error) {
	payload := map[string]string{
		"platform":          platform.String(),
		"native_meeting_id": nativeID,
	}

	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, "/bots", payload, &raw); err != nil {
		return nil, err
	}

	info := &BotInfo{Extra: raw}
	// The upstream reports its meeting identifier as either a string or a number
	switch v := raw["id"].(type) {
	case string:
		info.ID = v
	case float64:
		info.ID = strconv.FormatInt(int64(v), 10)
	}
	return info, nil
}

func (c *client) StopBot(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error) {
	var ack map[string]any
	if err := c.do(ctx, http.MethodDelete, meetingPath("/bots", platform, nativeID), nil, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (c *client) RunningBots(ctx context.Context) ([]BotStatus, error) {
	var resp struct {
		RunningBots []BotStatus `json:"running_bots"`
	}
	if err := c.do(ctx, http.MethodGet, "/bots/status", nil, &resp); err != nil {
		return nil, err
	}
	return resp.RunningBots, nil
}

func (c *client) GetTranscript(ctx context.Context, platform types.Platform, nativeID string) (*Transcript, error) {
	var transcript Transcript
	if err := c.do(ctx, http.MethodGet, meetingPath("/transcripts", platform, nativeID), nil, &transcript); err != nil {
		return nil, err
	}
	return &transcript, nil
}

func (c *client) DeleteMeeting(ctx context.Context, platform types.Platform, nativeID string) error {
	return c.do(ctx, http.MethodDelete, meetingPath("/meetings", platform, nativeID), nil, nil)
}
