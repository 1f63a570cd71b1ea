package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/reportloom/internal/ai"
	cfgpkg "github.com/KaramelBytes/reportloom/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set reportloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(out, "provider: %s\n", c.Provider)
		model := c.Model
		if model == "" {
			model = ai.DefaultModel(c.Provider) + " (default)"
		}
		fmt.Fprintf(out, "model: %s\n", model)
		fmt.Fprintf(out, "temperature: %.3f\n", c.Temperature)
		fmt.Fprintf(out, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(out, "narrative_timeout_sec: %d\n", c.NarrativeTimeoutSec)
		fmt.Fprintf(out, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(out, "ollama_host: %s\n", c.OllamaHost)
		if c.OpenAIBaseURL != "" {
			fmt.Fprintf(out, "openai_base_url: %s\n", c.OpenAIBaseURL)
		}
		if c.GeminiAPIKey != "" {
			fmt.Fprintf(out, "gemini_api_key: %s\n", mask(c.GeminiAPIKey))
		}
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "render_scale: %g\n", c.RenderScale)
		fmt.Fprintf(out, "time_aliases: %s\n", strings.Join(c.TimeAliases, ","))
		fmt.Fprintf(out, "geo_aliases: %s\n", strings.Join(c.GeoAliases, ","))
		fmt.Fprintf(out, "world_geo_aliases: %s\n", strings.Join(c.WorldGeoAliases, ","))
		if c.UnidocLicenseKey != "" {
			fmt.Fprintf(out, "unidoc_license_key: %s\n", mask(c.UnidocLicenseKey))
		}
		if c.Storage.Enabled() {
			fmt.Fprintf(out, "storage.endpoint: %s\n", c.Storage.Endpoint)
			fmt.Fprintf(out, "storage.bucket: %s\n", c.Storage.Bucket)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
	case "provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if p == "local" {
			p = ai.ProviderOllama
		}
		known := false
		for _, name := range ai.Providers() {
			if name == p {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), "|"))
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", val)
		}
		c.Temperature = f
	case "max_tokens", "narrative_timeout_sec", "sample_rows", "http_timeout_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "max_tokens":
			c.MaxTokens = i
		case "narrative_timeout_sec":
			c.NarrativeTimeoutSec = i
		case "sample_rows":
			c.SampleRows = i
		case "http_timeout_sec":
			c.HTTPTimeoutSec = i
		}
	case "render_scale":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for render_scale: %v", val)
		}
		c.RenderScale = f
	case "ollama_host":
		c.OllamaHost = val
	case "openai_base_url":
		c.OpenAIBaseURL = val
	case "gemini_api_key":
		c.GeminiAPIKey = val
	case "output_dir":
		c.OutputDir = val
	case "world_geojson_url":
		c.WorldGeoJSONURL = val
	case "regional_geojson_url":
		c.RegionalGeoJSONURL = val
	case "time_aliases":
		c.TimeAliases = splitList(val)
	case "geo_aliases":
		c.GeoAliases = splitList(val)
	case "world_geo_aliases":
		c.WorldGeoAliases = splitList(val)
	case "unidoc_license_key":
		c.UnidocLicenseKey = val
	case "storage.endpoint":
		c.Storage.Endpoint = val
	case "storage.access_key":
		c.Storage.AccessKey = val
	case "storage.secret_key":
		c.Storage.SecretKey = val
	case "storage.bucket":
		c.Storage.Bucket = val
	case "storage.prefix":
		c.Storage.Prefix = val
	case "storage.secure":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for storage.secure: %v", val)
		}
		c.Storage.Secure = b
	case "log_level":
		c.LogLevel = val
	case "log_format":
		if val != "text" && val != "json" {
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
		c.LogFormat = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
