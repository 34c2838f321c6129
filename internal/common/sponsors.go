package common

import (
	"fmt"
	"os"
	"path/filepath"

	"stars-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

type SponsorsConfig struct {
	Sponsors []models.Sponsor `yaml:"sponsors"`
}

// LoadSponsorConfig reads the sponsor channel list from a YAML file.
func LoadSponsorConfig(sponsorsFile string) ([]models.Sponsor, error) {
	var sponsorsPath string
	if filepath.IsAbs(sponsorsFile) {
		sponsorsPath = sponsorsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		sponsorsPath = filepath.Join(wd, sponsorsFile)
	}

	data, err := os.ReadFile(sponsorsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", sponsorsFile, err)
	}

	var config SponsorsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", sponsorsFile, err)
	}

	seen := make(map[int64]bool, len(config.Sponsors))
	for i, sponsor := range config.Sponsors {
		if sponsor.Id <= 0 {
			return nil, fmt.Errorf("sponsor at index %d missing positive id", i)
		}
		if seen[sponsor.Id] {
			return nil, fmt.Errorf("duplicate sponsor id %d", sponsor.Id)
		}
		seen[sponsor.Id] = true
		if sponsor.ChannelUsername == "" {
			return nil, fmt.Errorf("sponsor %d missing channel_username", sponsor.Id)
		}
		if sponsor.ChannelUrl == "" {
			return nil, fmt.Errorf("sponsor %d missing channel_url", sponsor.Id)
		}
	}

	return config.Sponsors, nil
}
