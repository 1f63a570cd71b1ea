package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execCLI executes the root command with args and returns stdout.
func execCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset state that persists across invocations in one process
	cfg = nil
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of c and its subcommands to its default
// and clears the Changed bit, which pflag keeps across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// resultView is the part of a JSON run result the tests inspect. Errors are
// plain strings in JSON.
type resultView struct {
	Title     string            `json:"title"`
	Narrative string            `json:"narrative"`
	Primary   *charts.ChartSpec `json:"primary"`
	PDFPath   string            `json:"pdf_path"`
	DOCXPath  string            `json:"docx_path"`
	Errors    []string          `json:"errors"`
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestCLI_ChartsPrintsSelection(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "states.csv")
	if err := os.WriteFile(data, []byte("negeri,jumlah\nJohor,5\nKedah,3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execCLI(t, "charts", data)
	if err != nil {
		t.Fatalf("charts: %v", err)
	}
	var sel charts.Selection
	if err := json.Unmarshal([]byte(out), &sel); err != nil {
		t.Fatalf("output is not a selection: %v\n%s", err, out)
	}
	if sel.Primary.Kind != charts.Bar || len(sel.Panel) != 3 || sel.Map == nil || sel.Map.Geo.Scope != charts.Regional {
		t.Fatalf("selection = %+v", sel)
	}
}

func TestCLI_RunWithLocalRuntime(t *testing.T) {
	home := isolateHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "Sales rose in 2021, then fell."},
			"done":    true,
		})
	}))
	defer srv.Close()

	outDir := filepath.Join(home, "out")
	cfgPath := writeConfig(t, home, "provider: ollama\nollama_host: "+srv.URL+"\noutput_dir: "+outDir+"\nrender_scale: 1\n")
	data := filepath.Join(home, "sales.csv")
	if err := os.WriteFile(data, []byte("year,sales\n2020,100\n2021,150\n2022,90\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execCLI(t, "--config", cfgPath, "run", "--file", data, "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var res resultView
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a result: %v\n%s", err, out)
	}
	if res.Primary == nil || res.Primary.Kind != charts.Line || res.Primary.Title != "Trend of sales by year" {
		t.Fatalf("primary = %+v", res.Primary)
	}
	if !strings.HasPrefix(res.Narrative, "Sales rose in 2021, then fell.") {
		t.Fatalf("narrative = %q", res.Narrative)
	}
	if res.Title != pipeline.DefaultTitle {
		t.Fatalf("title = %q", res.Title)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	for _, p := range []string{res.PDFPath, res.DOCXPath} {
		if p == "" {
			t.Fatalf("both documents expected, got pdf=%q docx=%q", res.PDFPath, res.DOCXPath)
		}
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("%s not written: %v", p, err)
		}
	}
}

func TestCLI_RunWithoutSourceFails(t *testing.T) {
	home := isolateHome(t)
	cfgPath := writeConfig(t, home, "output_dir: "+filepath.Join(home, "out")+"\n")
	if _, err := execCLI(t, "--config", cfgPath, "run"); err == nil || !strings.Contains(err.Error(), "No data") {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestCLI_RunUnknownProviderStillCharts(t *testing.T) {
	home := isolateHome(t)
	cfgPath := writeConfig(t, home, "output_dir: "+filepath.Join(home, "out")+"\n")
	out, err := execCLI(t, "--config", cfgPath, "run", "--text", "k,v\na,1\nb,2\n", "--provider", "nope", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var res resultView
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(res.Narrative, "Narrative generation failed") || !strings.Contains(res.Narrative, "unknown provider") {
		t.Fatalf("narrative = %q", res.Narrative)
	}
	if res.Primary == nil || res.Primary.Kind != charts.Bar {
		t.Fatalf("primary = %+v", res.Primary)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)
	cfgPath := filepath.Join(home, "cfg", "config.yaml")
	if _, err := execCLI(t, "--config", cfgPath, "config", "set", "provider", "Gemini"); err != nil {
		t.Fatalf("set provider: %v", err)
	}
	if _, err := execCLI(t, "--config", cfgPath, "config", "set", "api_key", "sk-1234567890"); err != nil {
		t.Fatalf("set api_key: %v", err)
	}
	if _, err := execCLI(t, "--config", cfgPath, "config", "set", "time_aliases", "period, quarter"); err != nil {
		t.Fatalf("set aliases: %v", err)
	}
	out, err := execCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"provider: gemini", "api_key: sk-****890", "model: gemini-1.5-flash (default)", "time_aliases: period,quarter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if _, err := execCLI(t, "--config", cfgPath, "config", "set", "provider", "skynet"); err == nil {
		t.Fatalf("expected invalid provider error")
	}
	if _, err := execCLI(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_Providers(t *testing.T) {
	isolateHome(t)
	out, err := execCLI(t, "providers", "--json")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("json: %v", err)
	}
	if m["ollama"] != "llama3.2" || m["openrouter"] != "openai/gpt-4o-mini" || len(m) != 4 {
		t.Fatalf("providers = %v", m)
	}
}

func TestCLI_ProfileMarkdownAndJSON(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "sales.csv")
	if err := os.WriteFile(data, []byte("region,sales\nnorth,10\nsouth,\nnorth,14\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execCLI(t, "profile", data)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(out, "[SCHEMA]") || !strings.Contains(out, "- sales: numeric (non-null 2, missing 33.3%)") {
		t.Fatalf("unexpected markdown:\n%s", out)
	}

	dest := filepath.Join(home, "p.json")
	out, err = execCLI(t, "profile", data, "--json", "-o", dest)
	if err != nil {
		t.Fatalf("profile --json: %v", err)
	}
	if !strings.Contains(out, "✓ Wrote profile") {
		t.Fatalf("status line missing: %q", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var prof struct {
		Rows    int `json:"rows"`
		Columns []struct {
			Name string  `json:"name"`
			Mean float64 `json:"mean"`
		} `json:"columns"`
	}
	if err := json.Unmarshal(b, &prof); err != nil {
		t.Fatalf("json: %v\n%s", err, b)
	}
	if prof.Rows != 3 || len(prof.Columns) != 2 || prof.Columns[1].Mean != 12 {
		t.Fatalf("profile = %+v", prof)
	}

	// Flags from the previous call must not leak into this one.
	out, err = execCLI(t, "profile", data)
	if err != nil || !strings.HasPrefix(out, "[DATASET SUMMARY]") {
		t.Fatalf("expected markdown on stdout, got %q (%v)", out, err)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{"": "", "abc": "******", "sk-1234567890": "sk-****890"}
	for in, want := range cases {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}
