package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Platforms holds CLI flags for the platform registry configuration
type Platforms struct {
	path string
}

// PlatformConfig is the TOML document shape for platform definitions
type PlatformConfig struct {
	Platforms []PlatformDef `toml:"platform"`
}

// PlatformDef represents one platform definition
type PlatformDef struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	URLTemplate string `toml:"url_template"`
}

// Validate checks if the PlatformDef is valid
func (p *PlatformDef) Validate() error {
	if p.ID == "" {
		return goerr.New("platform id is required")
	}
	if p.Name == "" {
		return goerr.New("platform name is required", goerr.V("id", p.ID))
	}
	return nil
}

// Flags returns CLI flags for platform configuration
func (p *Platforms) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "platforms-file",
			Usage:       "TOML file with additional platform definitions",
			Sources:     cli.EnvVars("RELAY_PLATFORMS_FILE"),
			Destination: &p.path,
		},
	}
}

// Configure builds the platform registry, extending the built-in platforms
// with the definitions from the configured TOML file if one is given.
func (p *Platforms) Configure() (*model.PlatformRegistry, error) {
	registry := model.NewPlatformRegistry()
	if p.path == "" {
		return registry, nil
	}

	cfg, err := LoadPlatformConfiguration(p.path)
	if err != nil {
		return nil, err
	}
	for _, def := range cfg.Platforms {
		registry.Register(&model.PlatformEntry{
			ID:          types.Platform(def.ID),
			Name:        def.Name,
			URLTemplate: def.URLTemplate,
		})
	}

	return registry, nil
}

// LoadPlatformConfiguration loads platform definitions from a TOML file
func LoadPlatformConfiguration(path string) (*PlatformConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read platforms file", goerr.V("path", path))
	}

	var cfg PlatformConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML platforms file", goerr.V("path", path))
	}

	seen := make(map[string]bool)
	for _, def := range cfg.Platforms {
		if err := def.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid platform definition", goerr.V("path", path))
		}
		if seen[def.ID] {
			return nil, goerr.New("duplicate platform ID", goerr.V("id", def.ID))
		}
		seen[def.ID] = true
	}

	return &cfg, nil
}
