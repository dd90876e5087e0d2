package usecase_test

import (
	"context"
	"sync"

	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/service/infra"
)

// mockInfraService is a function-field mock of infra.Service
type mockInfraService struct {
	mu sync.Mutex

	requestBot    func(ctx context.Context, platform types.Platform, nativeID string) (*infra.BotInfo, error)
	stopBot       func(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error)
	runningBots   func(ctx context.Context) ([]infra.BotStatus, error)
	getTranscript func(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error)
	deleteMeeting func(ctx context.Context, platform types.Platform, nativeID string) error

	requestBotCalls    int
	deleteMeetingCalls int
}

func (m *mockInfraService) RequestBot(ctx context.Context, platform types.Platform, nativeID string) (*infra.BotInfo, error) {
	m.mu.Lock()
	m.requestBotCalls++
	m.mu.Unlock()

	if m.requestBot == nil {
		return &infra.BotInfo{ID: "infra-1"}, nil
	}
	return m.requestBot(ctx, platform, nativeID)
}

func (m *mockInfraService) StopBot(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error) {
	if m.stopBot == nil {
		return map[string]any{"message": "accepted"}, nil
	}
	return m.stopBot(ctx, platform, nativeID)
}

func (m *mockInfraService) RunningBots(ctx context.Context) ([]infra.BotStatus, error) {
	if m.runningBots == nil {
		return nil, nil
	}
	return m.runningBots(ctx)
}

func (m *mockInfraService) GetTranscript(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error) {
	if m.getTranscript == nil {
		return &infra.Transcript{}, nil
	}
	return m.getTranscript(ctx, platform, nativeID)
}

func (m *mockInfraService) DeleteMeeting(ctx context.Context, platform types.Platform, nativeID string) error {
	m.mu.Lock()
	m.deleteMeetingCalls++
	m.mu.Unlock()

	if m.deleteMeeting == nil {
		return nil
	}
	return m.deleteMeeting(ctx, platform, nativeID)
}

func (m *mockInfraService) requestBotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestBotCalls
}
