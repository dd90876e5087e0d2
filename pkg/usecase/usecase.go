package usecase

import (
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/service/infra"
)

type UseCases struct {
	repo      interfaces.Repository
	infra     infra.Service
	platforms *model.PlatformRegistry

	Identity    *IdentityUseCase
	Bots        *BotsUseCase
	Transcripts *TranscriptsUseCase
	Webhook     *WebhookUseCase
	Stats       *StatsUseCase
}

type Option func(*UseCases)

func WithInfra(svc infra.Service) Option {
	return func(uc *UseCases) {
		uc.infra = svc
	}
}

func WithPlatforms(registry *model.PlatformRegistry) Option {
	return func(uc *UseCases) {
		uc.platforms = registry
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.platforms == nil {
		uc.platforms = model.NewPlatformRegistry()
	}

	uc.Identity = NewIdentityUseCase(repo)
	uc.Bots = NewBotsUseCase(repo, uc.infra, uc.platforms)
	uc.Transcripts = NewTranscriptsUseCase(repo, uc.infra, uc.platforms)
	uc.Webhook = NewWebhookUseCase(repo, uc.infra)
	uc.Stats = NewStatsUseCase(repo)

	return uc
}
