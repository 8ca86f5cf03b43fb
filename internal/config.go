package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled     = "disabled"
	AuthModeSharedSecret = "shared_secret"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Mirror    MirrorConfig      `yaml:"mirror" toml:"mirror"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
	Sheets    SheetsConfig      `yaml:"sheets" toml:"sheets"`
	Materials MaterialsConfig   `yaml:"materials" toml:"materials"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Sheets.Validate(); err != nil {
		return err
	}
	return c.Materials.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
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

// SQLiteConfig holds the path of the session and settings database.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MirrorConfig holds the snapshot directory. An empty path disables mirroring.
type MirrorConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no login required, suitable for local dev.
//   - "shared_secret": agents log in with one shared password, taken from
//     Secret or from the first cell of the sheet at SecretURL.
type AuthConfig struct {
	Mode            string `yaml:"mode" toml:"mode"`
	Secret          string `yaml:"secret" toml:"secret"`
	SecretURL       string `yaml:"secret_url" toml:"secret_url"`
	SessionTTLHours int    `yaml:"session_ttl_hours" toml:"session_ttl_hours"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeSharedSecret)),
		validation.Field(&c.SessionTTLHours, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeSharedSecret && c.Secret == "" && c.SecretURL == "" {
		return fmt.Errorf("auth: mode is %q but neither secret nor secret_url is set", AuthModeSharedSecret)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeSharedSecret
}

// Options converts the section for the console service.
func (c *AuthConfig) Options() console.AuthOptions {
	return console.AuthOptions{
		Enabled:   c.AuthEnabled(),
		Secret:    c.Secret,
		SecretURL: c.SecretURL,
		TTL:       time.Duration(c.SessionTTLHours) * time.Hour,
	}
}

// SheetsConfig seeds the data source settings on first launch and tunes the
// fetcher. After the first launch the settings saved from the console win.
type SheetsConfig struct {
	UseGoogleSheets    bool   `yaml:"use_google_sheets" toml:"use_google_sheets"`
	FlowSheetURL       string `yaml:"flow_sheet_url" toml:"flow_sheet_url"`
	FlowConfigSheetURL string `yaml:"flow_config_sheet_url" toml:"flow_config_sheet_url"`
	PhoneSheetURL      string `yaml:"phone_sheet_url" toml:"phone_sheet_url"`
	TimeoutSeconds     int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	// Watch re-syncs when a local-file source changes.
	Watch bool `yaml:"watch" toml:"watch"`
}

// Validate validates the sheets configuration.
func (c *SheetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// Timeout returns the HTTP fetch timeout.
func (c *SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Seed returns the settings used when nothing has been saved yet.
func (c *SheetsConfig) Seed() models.AppConfig {
	return models.AppConfig{
		UseGoogleSheets:    c.UseGoogleSheets,
		FlowSheetURL:       c.FlowSheetURL,
		FlowConfigSheetURL: c.FlowConfigSheetURL,
		PhoneSheetURL:      c.PhoneSheetURL,
	}
}

// MaterialsConfig is the document catalog offered to agents.
type MaterialsConfig struct {
	Header string            `yaml:"header" toml:"header"`
	Footer string            `yaml:"footer" toml:"footer"`
	Items  []models.Material `yaml:"items" toml:"items"`
}

// Validate requires every item to have a unique id, a name and a URL.
func (c *MaterialsConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for i := range c.Items {
		m := &c.Items[i]
		if err := validation.ValidateStruct(m,
			validation.Field(&m.ID, validation.Required),
			validation.Field(&m.Name, validation.Required),
			validation.Field(&m.URL, validation.Required),
		); err != nil {
			return fmt.Errorf("materials[%d]: %w", i, err)
		}
		if _, dup := seen[m.ID]; dup {
			return errors.New("materials: duplicate id " + m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// Catalog converts the section for the console service.
func (c *MaterialsConfig) Catalog() console.Materials {
	return console.Materials{Header: c.Header, Footer: c.Footer, Items: c.Items}
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
		SQLite: SQLiteConfig{
			Path: "./supporton.db",
		},
		Auth: AuthConfig{
			Mode:            AuthModeDisabled,
			SessionTTLHours: 12,
		},
		Sheets: SheetsConfig{
			TimeoutSeconds: 15,
		},
	}
}
