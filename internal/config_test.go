package internal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Cache.FreshnessSeconds != 90 {
		t.Errorf("freshness = %d, want 90", cfg.Cache.FreshnessSeconds)
	}
	if cfg.Cache.Window() != 90*time.Second {
		t.Errorf("window = %v, want 90s", cfg.Cache.Window())
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should default to disabled")
	}
}

func TestRemoteConfig_RequiresKey(t *testing.T) {
	cfg := RemoteConfig{BaseURL: "https://workflowy.com/api/v1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing api key should fail validation")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid remote config failed: %v", err)
	}
}

func TestRemoteConfig_RequiresBaseURL(t *testing.T) {
	cfg := RemoteConfig{APIKey: "k"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing base url should fail validation")
	}
}

func TestCacheConfig_RejectsZeroWindow(t *testing.T) {
	cfg := CacheConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero freshness should fail validation")
	}
	cfg.FreshnessSeconds = 90
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid cache config failed: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Remote.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with key should pass: %v", err)
	}

	cfg.Cache.FreshnessSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch cache error")
	}
}
