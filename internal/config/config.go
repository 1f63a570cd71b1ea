package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/publish"
)

// Global configuration structure.
type Global struct {
	APIKey              string  `mapstructure:"api_key" yaml:"api_key"`
	Provider            string  `mapstructure:"provider" yaml:"provider"`
	Model               string  `mapstructure:"model" yaml:"model"`
	Temperature         float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens           int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	NarrativeTimeoutSec int     `mapstructure:"narrative_timeout_sec" yaml:"narrative_timeout_sec"`
	SampleRows          int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Other runtimes
	OllamaHost    string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`

	// Output and charts
	OutputDir          string   `mapstructure:"output_dir" yaml:"output_dir"`
	RenderScale        float64  `mapstructure:"render_scale" yaml:"render_scale"`
	WorldGeoJSONURL    string   `mapstructure:"world_geojson_url" yaml:"world_geojson_url"`
	RegionalGeoJSONURL string   `mapstructure:"regional_geojson_url" yaml:"regional_geojson_url"`
	TimeAliases        []string `mapstructure:"time_aliases" yaml:"time_aliases"`
	GeoAliases         []string `mapstructure:"geo_aliases" yaml:"geo_aliases"`
	WorldGeoAliases    []string `mapstructure:"world_geo_aliases" yaml:"world_geo_aliases"`
	UnidocLicenseKey   string   `mapstructure:"unidoc_license_key" yaml:"unidoc_license_key"`

	Storage publish.Config `mapstructure:"storage" yaml:"storage"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Aliases returns the chart column aliases from config.
func (c *Global) Aliases() charts.Aliases {
	return charts.Aliases{Time: c.TimeAliases, Geo: c.GeoAliases, WorldGeo: c.WorldGeoAliases}
}

// DefaultPath is ~/.reportloom/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".reportloom", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.reportloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("REPORTLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := charts.DefaultAliases()
	v.SetDefault("api_key", "")
	v.SetDefault("provider", "openrouter")
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0.4)
	v.SetDefault("max_tokens", 512)
	v.SetDefault("narrative_timeout_sec", 45)
	v.SetDefault("sample_rows", 5)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("gemini_api_key", "")
	// Output and chart defaults
	v.SetDefault("output_dir", filepath.Join(os.TempDir(), "reportloom"))
	v.SetDefault("render_scale", 2.0)
	v.SetDefault("world_geojson_url", charts.DefaultWorldGeoJSONURL)
	v.SetDefault("regional_geojson_url", charts.DefaultRegionalGeoJSONURL)
	v.SetDefault("time_aliases", aliases.Time)
	v.SetDefault("geo_aliases", aliases.Geo)
	v.SetDefault("world_geo_aliases", aliases.WorldGeo)
	v.SetDefault("unidoc_license_key", "")
	// Object storage is off unless an endpoint is set
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "reportloom")
	v.SetDefault("storage.secure", false)
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".reportloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return &c, nil
}
