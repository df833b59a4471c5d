package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
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

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
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
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestBridgeConfig_EmptyModeDefaultsLocal(t *testing.T) {
	cfg := BridgeConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != BridgeModeLocal {
		t.Errorf("mode = %q", cfg.Mode)
	}
}

func TestBridgeConfig_RemoteRequiresURL(t *testing.T) {
	cfg := BridgeConfig{Mode: BridgeModeRemote}
	if err := cfg.Validate(); err == nil {
		t.Fatal("remote mode without url should fail")
	}
	cfg.URL = "http://localhost:8080"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("remote mode with url: %v", err)
	}
}

func TestBridgeConfig_InvalidMode(t *testing.T) {
	cfg := BridgeConfig{Mode: "carrier-pigeon"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail")
	}
}

func TestSpeechConfig_SampleRateBounds(t *testing.T) {
	cfg := NewDefaultConfig().Speech
	cfg.SampleRate = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("sample rate 100 should fail")
	}
}

func TestSpeechConfig_BadURL(t *testing.T) {
	cfg := NewDefaultConfig().Speech
	cfg.TranscribeURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad transcribe url should fail")
	}
}

func TestDataConfig_Dirs(t *testing.T) {
	cfg := DataConfig{Dir: "/tmp/m"}
	if cfg.NotesDir() != "/tmp/m/notes" || cfg.RecordingsDir() != "/tmp/m/recordings" || cfg.ModelsDir() != "/tmp/m/models" {
		t.Errorf("dirs = %s %s %s", cfg.NotesDir(), cfg.RecordingsDir(), cfg.ModelsDir())
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("MURMUR_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  log_level: debug
  http:
    port: 9090
bridge:
  mode: remote
  url: http://host:9090
  token: ${MURMUR_TEST_TOKEN}
speech:
  tick_interval: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Bridge.Mode != BridgeModeRemote || cfg.Bridge.Token != "s3cret" {
		t.Errorf("bridge = %+v", cfg.Bridge)
	}
	if cfg.Speech.TickInterval != 250*time.Millisecond || cfg.Speech.SampleRate != 16000 {
		t.Errorf("speech = %+v", cfg.Speech)
	}
}
