package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IMGPRESS_CAPTION_API_KEY", "")
	t.Setenv("IMGPRESS_CAPTION_ENDPOINT", "")
	t.Setenv("IMGPRESS_CAPTION_TIMEOUT", "")

	cfg := Load()
	if cfg.CaptionAPIKey != "" {
		t.Errorf("api key: got %q, want empty", cfg.CaptionAPIKey)
	}
	if cfg.CaptionTimeout != 10*time.Second {
		t.Errorf("timeout: got %v, want 10s", cfg.CaptionTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IMGPRESS_CAPTION_API_KEY", "sk-test")
	t.Setenv("IMGPRESS_CAPTION_ENDPOINT", "https://captions.example/v1")
	t.Setenv("IMGPRESS_CAPTION_TIMEOUT", "3s")

	cfg := Load()
	if cfg.CaptionAPIKey != "sk-test" {
		t.Errorf("api key: got %q", cfg.CaptionAPIKey)
	}
	if cfg.CaptionEndpoint != "https://captions.example/v1" {
		t.Errorf("endpoint: got %q", cfg.CaptionEndpoint)
	}
	if cfg.CaptionTimeout != 3*time.Second {
		t.Errorf("timeout: got %v, want 3s", cfg.CaptionTimeout)
	}
}

func TestTimeoutAcceptsBareSeconds(t *testing.T) {
	t.Setenv("IMGPRESS_CAPTION_TIMEOUT", "7")
	cfg := Load()
	if cfg.CaptionTimeout != 7*time.Second {
		t.Errorf("timeout: got %v, want 7s", cfg.CaptionTimeout)
	}
}
