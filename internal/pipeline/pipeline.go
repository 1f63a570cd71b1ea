package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/logging"
	"github.com/KaramelBytes/reportloom/internal/narrative"
	"github.com/KaramelBytes/reportloom/internal/report"
)

// DefaultTitle is used when the caller gives no report title.
const DefaultTitle = "📊 Data Analyst Report"

// User-facing messages for runs that stop at LOAD.
const (
	MsgNoData     = "⚠️ No data"
	msgLoadFailed = "⚠️ Failed to read data: "
	msgExportFail = "\n⚠️ Export failed: "
)

// Loader reads a dataset from one of the sources.
type Loader interface {
	Load(ctx context.Context, src dataset.Source) (*dataset.Dataset, error)
}

// Narrator explains a dataset. It must always return usable text.
type Narrator interface {
	Explain(ctx context.Context, question string, ds *dataset.Dataset) narrative.Outcome
}

// Selector picks the charts for a dataset.
type Selector interface {
	Select(ds *dataset.Dataset) charts.Selection
}

// Exporter writes the report documents.
type Exporter interface {
	Export(ctx context.Context, r report.Report) (report.Paths, error)
}

// Publisher copies finished artifacts somewhere else and returns their URLs.
type Publisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// Input is one run request.
type Input struct {
	Source   dataset.Source
	Question string
	Title    string
}

// Result is everything a run produced. Document paths are empty when export
// failed; chart specs are present whenever the data loaded.
type Result struct {
	RunID     string             `json:"run_id"`
	Stage     Stage              `json:"stage"`
	Message   string             `json:"message,omitempty"`
	Title     string             `json:"title,omitempty"`
	Primary   *charts.ChartSpec  `json:"primary,omitempty"`
	Panel     []charts.ChartSpec `json:"panel,omitempty"`
	Map       *charts.ChartSpec  `json:"map,omitempty"`
	Narrative string             `json:"narrative,omitempty"`
	Images    []string           `json:"images,omitempty"`
	PDFPath   string             `json:"pdf_path,omitempty"`
	DOCXPath  string             `json:"docx_path,omitempty"`
	Outline   *report.Structure  `json:"outline,omitempty"`
	Published []string           `json:"published,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
	Errors    []*StageError      `json:"errors,omitempty"`
}

// Failed returns the first recorded error of the given kind.
func (r *Result) Failed(kind ErrorKind) *StageError {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return e
		}
	}
	return nil
}

// Pipeline runs LOAD, NARRATE, CHART, EXPORT and an optional PUBLISH step.
// Runs are serialized because every run writes the same output files.
type Pipeline struct {
	Loader    Loader
	Narrator  Narrator
	Selector  Selector
	Renderer  report.ChartRenderer
	Assembler Exporter
	Publisher Publisher
	Logger    logrus.FieldLogger
	OutDir    string
	Scale     float64

	mu sync.Mutex
}

// Run executes one request. It always returns a result; failures are
// reported in Message, Errors and Warnings.
func (p *Pipeline) Run(ctx context.Context, in Input) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := &Result{RunID: uuid.NewString(), Title: strings.TrimSpace(in.Title)}
	if res.Title == "" {
		res.Title = DefaultTitle
	}
	log := logging.ForRun(p.Logger, res.RunID)

	res.Stage = StageLoad
	loaded := p.load(ctx, in.Source)
	if !loaded.OK() {
		res.Errors = append(res.Errors, loaded.Err)
		if errors.Is(loaded.Err, dataset.ErrNoData) {
			res.Message = MsgNoData
		} else {
			res.Message = msgLoadFailed + loadCause(loaded.Err.Err)
		}
		logging.ForStage(log, string(StageLoad)).WithError(loaded.Err.Err).Warn("run stopped")
		return res
	}
	ds := loaded.Value
	logging.ForStage(log, string(StageLoad)).WithFields(logrus.Fields{
		"columns": len(ds.Columns), "rows": ds.Rows,
	}).Info("dataset loaded")

	res.Stage = StageNarrate
	told := p.narrate(ctx, in.Question, ds)
	res.Narrative = told.Value
	if !told.OK() {
		res.Errors = append(res.Errors, told.Err)
	}

	res.Stage = StageChart
	sel := p.Selector.Select(ds)
	res.Primary = &sel.Primary
	res.Panel = sel.Panel
	res.Map = sel.Map
	logging.ForStage(log, string(StageChart)).WithField("charts", len(sel.All())).Debug("charts selected")

	res.Stage = StageExport
	exported := p.export(ctx, ds, sel, res.Title, res.Narrative)
	if !exported.OK() {
		res.Errors = append(res.Errors, exported.Err)
		res.Narrative += msgExportFail + exported.Err.Err.Error()
		logging.ForStage(log, string(StageExport)).WithError(exported.Err.Err).Warn("export failed")
	} else {
		res.Images = exported.Value.images
		res.PDFPath = exported.Value.paths.PDF
		res.DOCXPath = exported.Value.paths.DOCX
		outline := report.Outline(exported.Value.report)
		res.Outline = &outline
	}

	if p.Publisher != nil && exported.OK() {
		res.Stage = StagePublish
		files := append([]string{res.PDFPath, res.DOCXPath}, res.Images...)
		urls, err := p.Publisher.Publish(ctx, res.RunID, files)
		if err != nil {
			se := &StageError{Stage: StagePublish, Kind: KindPublish, Err: err}
			res.Errors = append(res.Errors, se)
			res.Warnings = append(res.Warnings, "publish failed: "+err.Error())
			logging.ForStage(log, string(StagePublish)).WithError(err).Warn("publish failed")
		} else {
			res.Published = urls
		}
	}

	res.Stage = StageDone
	log.WithField("errors", len(res.Errors)).Info("run finished")
	return res
}

func (p *Pipeline) load(ctx context.Context, src dataset.Source) Outcome[*dataset.Dataset] {
	if src.Empty() {
		return failed[*dataset.Dataset](nil, StageLoad, KindDataLoad, dataset.ErrNoData)
	}
	ds, err := p.Loader.Load(ctx, src)
	if err != nil {
		return failed[*dataset.Dataset](nil, StageLoad, KindDataLoad, err)
	}
	return ok(ds)
}

func (p *Pipeline) narrate(ctx context.Context, question string, ds *dataset.Dataset) Outcome[string] {
	if p.Narrator == nil {
		err := errors.New("no narrator configured")
		return failed(narrative.Placeholder(err), StageNarrate, KindNarrative, err)
	}
	out := p.Narrator.Explain(ctx, question, ds)
	if out.Err != nil {
		return failed(out.Text, StageNarrate, KindNarrative, out.Err)
	}
	return ok(out.Text)
}

type exportValue struct {
	images []string
	paths  report.Paths
	report report.Report
}

func (p *Pipeline) export(ctx context.Context, ds *dataset.Dataset, sel charts.Selection, title, text string) Outcome[exportValue] {
	if p.Renderer == nil || p.Assembler == nil {
		return failed(exportValue{}, StageExport, KindExport, errors.New("no renderer or assembler configured"))
	}
	imgs, err := report.Rasterize(ctx, p.Renderer, ds, sel.All(), p.OutDir, p.Scale)
	if err != nil {
		return failed(exportValue{}, StageExport, KindExport, err)
	}
	r := report.Report{Title: title, Narrative: text, Images: imgs}
	paths, err := p.Assembler.Export(ctx, r)
	if err != nil {
		return failed(exportValue{}, StageExport, KindExport, err)
	}
	v := exportValue{paths: paths, report: r}
	for _, img := range imgs {
		v.images = append(v.images, img.Path)
	}
	return ok(v)
}

// loadCause strips the generic load prefix so messages do not repeat it.
func loadCause(err error) string {
	return strings.TrimPrefix(err.Error(), dataset.ErrLoad.Error()+": ")
}
