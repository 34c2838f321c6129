package common

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSponsorsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sponsors.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write sponsors file: %v", err)
	}
	return path
}

func TestLoadSponsorConfig(t *testing.T) {
	path := writeSponsorsFile(t, `sponsors:
  - id: 100
    channel_username: sponsor_one
    channel_url: https://t.me/sponsor_one
  - id: 101
    channel_username: sponsor_two
    channel_url: https://t.me/sponsor_two
`)

	sponsors, err := LoadSponsorConfig(path)
	if err != nil {
		t.Fatalf("LoadSponsorConfig failed: %v", err)
	}
	if len(sponsors) != 2 {
		t.Fatalf("Expected 2 sponsors, got %d", len(sponsors))
	}
	if sponsors[0].Id != 100 || sponsors[0].ChannelUsername != "sponsor_one" {
		t.Errorf("Unexpected first sponsor: %+v", sponsors[0])
	}
}

func TestLoadSponsorConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "sponsors:\n  - channel_username: a\n    channel_url: b\n"},
		{"duplicate id", "sponsors:\n  - id: 1\n    channel_username: a\n    channel_url: b\n  - id: 1\n    channel_username: c\n    channel_url: d\n"},
		{"missing username", "sponsors:\n  - id: 1\n    channel_url: b\n"},
		{"missing url", "sponsors:\n  - id: 1\n    channel_username: a\n"},
		{"malformed yaml", "sponsors: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSponsorsFile(t, tt.content)
			if _, err := LoadSponsorConfig(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadSponsorConfig_MissingFile(t *testing.T) {
	if _, err := LoadSponsorConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
