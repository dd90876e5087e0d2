package infra

import (
	"context"

	"github.com/recapd/relay/pkg/domain/types"
)

// Service is the upstream bot-management API. RequestBot is not assumed to be
// idempotent; callers must dedupe before calling it.
type Service interface {
	// RequestBot dispatches a bot to the meeting
	RequestBot(ctx context.Context, platform types.Platform, nativeID string) (*BotInfo, error)

	// StopBot asks the upstream to remove its bot. The ack payload is
	// returned verbatim.
	StopBot(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error)

	// RunningBots lists the bots the upstream currently operates
	RunningBots(ctx context.Context) ([]BotStatus, error)

	// GetTranscript fetches the current transcript of a meeting
	GetTranscript(ctx context.Context, platform types.Platform, nativeID string) (*Transcript, error)

	// DeleteMeeting removes the meeting and its transcript from the upstream
	DeleteMeeting(ctx context.Context, platform types.Platform, nativeID string) error
}
