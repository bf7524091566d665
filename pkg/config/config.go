/*
Package config manages the TOML config for addrcomplete.

The provider API key is never read from the TOML file. The file names the
environment variable that holds it (api_key_env), and ResolveAPIKey reads that
variable after loading any .env files.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/bastiangx/addrcomplete/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultAPIKeyEnv is the variable holding the provider key unless overridden.
const DefaultAPIKeyEnv = "ADDRCOMPLETE_API_KEY"

// ErrMissingAPIKey is returned when the configured variable is unset or empty.
var ErrMissingAPIKey = errors.New("provider API key not set")

// Config holds the entire config structure
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Widget   WidgetConfig   `toml:"widget"`
	Cache    CacheConfig    `toml:"cache"`
	Page     PageConfig     `toml:"page"`
}

// ProviderConfig has suggestion provider options.
type ProviderConfig struct {
	Endpoint      string  `toml:"endpoint" validate:"required,url"`
	APIKeyEnv     string  `toml:"api_key_env" validate:"required"`
	TimeoutMs     int     `toml:"timeout_ms" validate:"gt=0"`
	MaxResults    int     `toml:"max_results" validate:"gte=0,lte=100"`
	RatePerSecond float64 `toml:"rate_per_second" validate:"gte=0"`
	Burst         int     `toml:"burst" validate:"gte=0"`
}

// WidgetConfig holds debounce and layout options.
type WidgetConfig struct {
	DebounceMs        int `toml:"debounce_ms" validate:"gt=0"`
	ViewportThreshold int `toml:"viewport_threshold" validate:"gt=0"`
	BackgroundOffset  int `toml:"background_offset" validate:"gt=0"`
	// CellWidth converts terminal columns to logical pixels.
	CellWidth int `toml:"cell_width" validate:"gt=0"`
}

// CacheConfig holds the lookup cache options.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	MaxEntries int    `toml:"max_entries" validate:"gte=0"`
	File       string `toml:"file" validate:"required_if=Enabled true"`
}

// PageConfig holds the static text shown around the field.
type PageConfig struct {
	Heading     string `toml:"heading"`
	Description string `toml:"description"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Endpoint:      "https://autocomplete.geocoder.ls.hereapi.com/6.2/suggest.json",
			APIKeyEnv:     DefaultAPIKeyEnv,
			TimeoutMs:     5000,
			MaxResults:    0,
			RatePerSecond: 5,
			Burst:         5,
		},
		Widget: WidgetConfig{
			DebounceMs:        500,
			ViewportThreshold: 900,
			BackgroundOffset:  150,
			CellWidth:         8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 512,
			File:       "cache.msgpack",
		},
		Page: PageConfig{
			Heading:     "Find transit near you",
			Description: "Start typing a street address and pick a suggestion.",
		},
	}
}

// Timeout is the provider request timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Debounce is the quiet period before a lookup.
func (w WidgetConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() string {
	return utils.NewPathResolver().GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/addrcomplete/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath := GetDefaultConfigPath()
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, falling back to a partial parse when
// the file does not decode into the typed structure.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, config.Validate()
}

// tryPartialParse keeps whatever sections and keys could be read.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "provider"); ok {
		extractProviderConfig(section, &config.Provider)
	}
	if section, ok := utils.ExtractSection(tempConfig, "widget"); ok {
		extractWidgetConfig(section, &config.Widget)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cache"); ok {
		extractCacheConfig(section, &config.Cache)
	}
	if section, ok := utils.ExtractSection(tempConfig, "page"); ok {
		extractPageConfig(section, &config.Page)
	}
	return config, config.Validate()
}

func extractProviderConfig(data map[string]any, p *ProviderConfig) {
	if val, ok := utils.ExtractString(data, "endpoint"); ok {
		p.Endpoint = val
	}
	if val, ok := utils.ExtractString(data, "api_key_env"); ok {
		p.APIKeyEnv = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		p.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		p.MaxResults = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_per_second"); ok {
		p.RatePerSecond = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		p.Burst = val
	}
}

func extractWidgetConfig(data map[string]any, w *WidgetConfig) {
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		w.DebounceMs = val
	}
	if val, ok := utils.ExtractInt64(data, "viewport_threshold"); ok {
		w.ViewportThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "background_offset"); ok {
		w.BackgroundOffset = val
	}
	if val, ok := utils.ExtractInt64(data, "cell_width"); ok {
		w.CellWidth = val
	}
}

func extractCacheConfig(data map[string]any, c *CacheConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		c.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "max_entries"); ok {
		c.MaxEntries = val
	}
	if val, ok := utils.ExtractString(data, "file"); ok {
		c.File = val
	}
}

func extractPageConfig(data map[string]any, p *PageConfig) {
	if val, ok := utils.ExtractString(data, "heading"); ok {
		p.Heading = val
	}
	if val, ok := utils.ExtractString(data, "description"); ok {
		p.Description = val
	}
}

var validate = newValidator()

// newValidator reports fields by their TOML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate rejects values the widget cannot run with.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// drop the root type name: "Config.widget.debounce_ms"
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += " " + fe.Param()
		}
		problems = append(problems, fmt.Sprintf("%s must satisfy %s", field, rule))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

// ResolveAPIKey loads the given .env files (missing ones are skipped) and
// reads the provider key from the configured variable. Variables already
// present in the environment win over .env values.
func (c *Config) ResolveAPIKey(envFiles ...string) (string, error) {
	for _, f := range envFiles {
		if !utils.FileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warnf("Failed to load env file %s: %v", f, err)
		}
	}

	key := strings.TrimSpace(os.Getenv(c.Provider.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, c.Provider.APIKeyEnv)
	}
	return key, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return GetDefaultConfigPath()
	}
	return utils.GetAbsolutePath(configPath)
}
