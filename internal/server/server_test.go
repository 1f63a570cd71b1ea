package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/pipeline"
)

type stubRunner struct {
	in     pipeline.Input
	upload string
	res    *pipeline.Result
}

func (s *stubRunner) Run(ctx context.Context, in pipeline.Input) *pipeline.Result {
	s.in = in
	if in.Source.File != "" {
		b, _ := os.ReadFile(in.Source.File)
		s.upload = string(b)
	}
	return s.res
}

func okResult(dir string) *pipeline.Result {
	primary := charts.ChartSpec{Kind: charts.Line, X: "year", Y: "sales", Title: "Trend of sales by year"}
	return &pipeline.Result{
		RunID:     "r1",
		Stage:     pipeline.StageDone,
		Primary:   &primary,
		Narrative: "Sales **rose**.\nThen fell.",
		Images:    []string{filepath.Join(dir, "chart_1.png")},
		PDFPath:   filepath.Join(dir, "report.pdf"),
		DOCXPath:  filepath.Join(dir, "report.docx"),
	}
}

func TestHealthz(t *testing.T) {
	s := &Server{Runner: &stubRunner{}}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAnalyzeMultipartUpload(t *testing.T) {
	dir := t.TempDir()
	run := &stubRunner{res: okResult(dir)}
	s := &Server{Runner: run, OutDir: dir}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "sales.csv")
	_, _ = fw.Write([]byte("year,sales\n2020,1\n"))
	_ = mw.WriteField("question", "What changed?")
	_ = mw.WriteField("title", "Q")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if run.upload != "year,sales\n2020,1\n" || filepath.Base(run.in.Source.File) != "sales.csv" {
		t.Fatalf("upload not passed through: %+v", run.in)
	}
	if _, err := os.Stat(run.in.Source.File); !os.IsNotExist(err) {
		t.Fatalf("temp upload not removed")
	}
	if run.in.Question != "What changed?" || run.in.Title != "Q" {
		t.Fatalf("input = %+v", run.in)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp["pdf_url"] != "/api/v1/files/report.pdf" || resp["docx_url"] != "/api/v1/files/report.docx" {
		t.Fatalf("urls = %v %v", resp["pdf_url"], resp["docx_url"])
	}
	html, _ := resp["narrative_html"].(string)
	if !strings.Contains(html, "<strong>rose</strong>") || !strings.Contains(html, "<br") {
		t.Fatalf("narrative html = %q", html)
	}
	if resp["run_id"] != "r1" {
		t.Fatalf("result fields not inlined: %v", resp)
	}
}

func TestAnalyzeFormText(t *testing.T) {
	run := &stubRunner{res: &pipeline.Result{
		Stage:   pipeline.StageLoad,
		Message: "⚠️ No data",
		Errors:  []*pipeline.StageError{{Stage: pipeline.StageLoad, Kind: pipeline.KindDataLoad, Err: os.ErrNotExist}},
	}}
	s := &Server{Runner: run}
	form := url.Values{"text": {"a,b\n1,2\n"}, "url": {"http://example.invalid/x.csv"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
	if run.in.Source.Text != "a,b\n1,2\n" || run.in.Source.URL != "http://example.invalid/x.csv" || run.in.Source.File != "" {
		t.Fatalf("source = %+v", run.in.Source)
	}
	if !strings.Contains(w.Body.String(), "No data") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestFilesServesOutputs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := &Server{Runner: &stubRunner{}, OutDir: dir}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/report.pdf", nil))
	if w.Code != http.StatusOK || w.Body.String() != "%PDF-1.3" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestFilesRejectsOtherNames(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(filepath.Dir(dir), "secret.txt")
	_ = os.WriteFile(secret, []byte("x"), 0o644)
	defer os.Remove(secret)

	s := &Server{Runner: &stubRunner{}, OutDir: dir}
	for _, p := range []string{
		"/api/v1/files/secret.txt",
		"/api/v1/files/..%2fsecret.txt",
		"/api/v1/files/chart_1.png",
		"/api/v1/files/report.pdf.bak",
	} {
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status=%d", p, w.Code)
		}
	}
}

func TestNarrativeHTMLEscapesRawHTML(t *testing.T) {
	out := NarrativeHTML("<script>alert(1)</script>\nok")
	if strings.Contains(out, "<script>") {
		t.Fatalf("raw html passed through: %q", out)
	}
}
