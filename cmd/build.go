package cmd

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/reportloom/internal/ai"
	"github.com/KaramelBytes/reportloom/internal/charts"
	cfgpkg "github.com/KaramelBytes/reportloom/internal/config"
	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/narrative"
	"github.com/KaramelBytes/reportloom/internal/pipeline"
	"github.com/KaramelBytes/reportloom/internal/publish"
	"github.com/KaramelBytes/reportloom/internal/report"
)

// pipelineOptions are per-invocation overrides on top of config.
type pipelineOptions struct {
	Provider string
	Model    string
	OutDir   string
	Publish  bool
}

// unavailableRuntime reports why no runtime could be built. The run still
// proceeds and the narrative carries this error.
type unavailableRuntime struct{ err error }

func (u unavailableRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return nil, u.err
}

func runtimeConfig(c *cfgpkg.Global, provider string) ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	}
	switch provider {
	case ai.ProviderOpenAI:
		rc.BaseURL = c.OpenAIBaseURL
		if rc.APIKey == "" {
			rc.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case ai.ProviderGemini:
		if c.GeminiAPIKey != "" {
			rc.APIKey = c.GeminiAPIKey
		}
	}
	return rc
}

func newRuntime(c *cfgpkg.Global, provider string) ai.Runtime {
	rt, err := ai.GetRuntime(provider, runtimeConfig(c, provider))
	if err != nil {
		logger.WithError(err).WithField("provider", provider).Warn("runtime unavailable")
		return unavailableRuntime{err: err}
	}
	return rt
}

// newPipeline wires every collaborator from config.
func newPipeline(c *cfgpkg.Global, opt pipelineOptions) *pipeline.Pipeline {
	provider := strings.ToLower(strings.TrimSpace(opt.Provider))
	if provider == "" {
		provider = c.Provider
	}
	if provider == "" {
		provider = ai.ProviderOpenRouter
	}
	model := opt.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = ai.DefaultModel(provider)
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = c.OutputDir
	}

	httpClient := &http.Client{Timeout: time.Duration(c.HTTPTimeoutSec) * time.Second}
	loadOpt := dataset.DefaultOptions()
	if c.HTTPTimeoutSec > 0 {
		loadOpt.HTTPTimeout = time.Duration(c.HTTPTimeoutSec) * time.Second
	}

	req := narrative.NewRequester(newRuntime(c, provider), model)
	if c.Temperature >= 0 {
		req.Temperature = c.Temperature
	}
	req.MaxTokens = c.MaxTokens
	if c.NarrativeTimeoutSec > 0 {
		req.Timeout = time.Duration(c.NarrativeTimeoutSec) * time.Second
	}
	if c.SampleRows > 0 {
		req.SampleRows = c.SampleRows
	}
	req.Logger = logger

	sel := charts.NewSelector()
	sel.Aliases = c.Aliases()
	if c.WorldGeoJSONURL != "" {
		sel.WorldGeoJSONURL = c.WorldGeoJSONURL
	}
	if c.RegionalGeoJSONURL != "" {
		sel.RegionalGeoJSONURL = c.RegionalGeoJSONURL
	}

	renderer := charts.NewRenderer(httpClient)
	renderer.Logger = logger

	p := &pipeline.Pipeline{
		Loader:    &dataset.Loader{Options: loadOpt, Client: httpClient},
		Narrator:  req,
		Selector:  sel,
		Renderer:  renderer,
		Assembler: report.NewAssembler(outDir, c.UnidocLicenseKey),
		Logger:    logger,
		OutDir:    outDir,
		Scale:     c.RenderScale,
	}
	if opt.Publish && c.Storage.Enabled() {
		m, err := publish.NewMinIO(c.Storage)
		if err != nil {
			logger.WithError(err).Warn("object storage disabled")
		} else {
			p.Publisher = m
		}
	}
	return p
}
