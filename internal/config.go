package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/murmur/internal/speech"
	"github.com/starford/murmur/pkg/config"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Bridge modes.
const (
	BridgeModeLocal  = "local"
	BridgeModeRemote = "remote"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Data   DataConfig        `yaml:"data"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Bridge BridgeConfig      `yaml:"bridge"`
	Speech SpeechConfig      `yaml:"speech"`
	UI     UIConfig          `yaml:"ui"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Data, &c.SQLite, &c.Auth, &c.Bridge, &c.Speech, &c.UI} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig is the root directory notes, recordings and models live under.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

func (c *DataConfig) NotesDir() string      { return filepath.Join(c.Dir, "notes") }
func (c *DataConfig) RecordingsDir() string { return filepath.Join(c.Dir, "recordings") }
func (c *DataConfig) ModelsDir() string     { return filepath.Join(c.Dir, "models") }

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the host HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// BridgeConfig selects how client commands reach the host.
//
//   - "local" (default): the host runs inside the client process.
//   - "remote": commands go to a running `murmur serve` at URL.
type BridgeConfig struct {
	Mode  string `yaml:"mode"`
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Validate validates the bridge configuration.
func (c *BridgeConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = BridgeModeLocal
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(BridgeModeLocal, BridgeModeRemote)),
		validation.Field(&c.URL,
			validation.When(c.Mode == BridgeModeRemote, validation.Required),
			is.URL,
		),
	)
}

// SpeechConfig configures the model download and the transcription endpoint.
type SpeechConfig struct {
	ModelURL      string        `yaml:"model_url"`
	ModelFile     string        `yaml:"model_file"`
	TranscribeURL string        `yaml:"transcribe_url"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Language      string        `yaml:"language"`
	SampleRate    int           `yaml:"sample_rate"`
	TickInterval  time.Duration `yaml:"tick_interval"`
}

// Validate validates the speech configuration.
func (c *SpeechConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ModelURL, is.URL),
		validation.Field(&c.ModelFile, validation.Required),
		validation.Field(&c.TranscribeURL, is.URL),
		validation.Field(&c.SampleRate, validation.Required, validation.Min(8000), validation.Max(48000)),
		validation.Field(&c.TickInterval, validation.Min(10*time.Millisecond)),
	)
}

// UIConfig holds client preference settings.
type UIConfig struct {
	// PrefsFile is relative to the data dir.
	PrefsFile string `yaml:"prefs_file"`
}

// Validate validates the UI configuration.
func (c *UIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PrefsFile, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Dir: "./murmur-data",
		},
		SQLite: SQLiteConfig{
			Path: "./murmur-data/murmur.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Bridge: BridgeConfig{
			Mode: BridgeModeLocal,
			URL:  "http://localhost:8080",
		},
		Speech: SpeechConfig{
			ModelURL:      speech.DefaultModelURL,
			ModelFile:     "ggml-base.bin",
			TranscribeURL: "http://localhost:8000/v1",
			Model:         "whisper-1",
			SampleRate:    16000,
			TickInterval:  time.Second,
		},
		UI: UIConfig{
			PrefsFile: "prefs.yaml",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := config.LoadIfExists(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
