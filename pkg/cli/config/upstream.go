package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Upstream holds CLI flags for the bot infrastructure API client
type Upstream struct {
	baseURL string
	apiKey  string
}

// Flags returns CLI flags for upstream configuration
func (u *Upstream) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "infra-base-url",
			Usage:       "Base URL of the bot infrastructure API (required)",
			Sources:     cli.EnvVars("RELAY_INFRA_BASE_URL"),
			Destination: &u.baseURL,
		},
		&cli.StringFlag{
			Name:        "infra-api-key",
			Usage:       "API key for the bot infrastructure API",
			Sources:     cli.EnvVars("RELAY_INFRA_API_KEY"),
			Destination: &u.apiKey,
		},
	}
}

// Configure builds the upstream service client
func (u *Upstream) Configure() (infra.Service, error) {
	if u.baseURL == "" {
		return nil, goerr.New("infra-base-url is required")
	}

	svc, err := infra.New(u.baseURL, u.apiKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize upstream client")
	}
	logging.Default().Info("Upstream bot infrastructure configured", "base_url", u.baseURL)

	return svc, nil
}
