package server

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/logging"
	"github.com/KaramelBytes/reportloom/internal/pipeline"
)

const defaultMaxUpload = 50 << 20

// servable matches the only files the download route hands out.
var servable = regexp.MustCompile(`^(report\.(pdf|docx)|chart_[0-9]+\.png)$`)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) *pipeline.Result
}

// Server is the local HTTP front end.
type Server struct {
	Runner    Runner
	OutDir    string
	Logger    logrus.FieldLogger
	MaxUpload int64
}

// AnalyzeResponse is the JSON body returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	*pipeline.Result
	NarrativeHTML string   `json:"narrative_html,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty"`
	PDFURL        string   `json:"pdf_url,omitempty"`
	DOCXURL       string   `json:"docx_url,omitempty"`
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", s.analyze)
		v1.GET("/files/:name", s.file)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) analyze(c *gin.Context) {
	limit := s.MaxUpload
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	in := pipeline.Input{
		Source: dataset.Source{
			Text: c.PostForm("text"),
			URL:  c.PostForm("url"),
		},
		Question: c.PostForm("question"),
		Title:    c.PostForm("title"),
	}
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		dir, err := os.MkdirTemp("", "reportloom-upload-")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		defer os.RemoveAll(dir)
		dst := filepath.Join(dir, filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		in.Source.File = dst
	} else if err != http.ErrMissingFile && err != http.ErrNotMultipart {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form: " + err.Error()})
		return
	}

	res := s.Runner.Run(c.Request.Context(), in)
	resp := AnalyzeResponse{Result: res}
	if res.Narrative != "" {
		resp.NarrativeHTML = NarrativeHTML(res.Narrative)
	}
	for _, p := range res.Images {
		resp.ImageURLs = append(resp.ImageURLs, fileURL(p))
	}
	if res.PDFPath != "" {
		resp.PDFURL = fileURL(res.PDFPath)
	}
	if res.DOCXPath != "" {
		resp.DOCXURL = fileURL(res.DOCXPath)
	}
	status := http.StatusOK
	if res.Failed(pipeline.KindDataLoad) != nil {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func (s *Server) file(c *gin.Context) {
	name := c.Param("name")
	if !servable.MatchString(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	path := filepath.Join(s.OutDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

func fileURL(path string) string { return "/api/v1/files/" + filepath.Base(path) }

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// NarrativeHTML renders narrative text as HTML. Raw HTML in the text is not
// passed through.
func NarrativeHTML(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l := s.Logger
		if l == nil {
			l = logging.Discard()
		}
		l.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("http request")
	}
}
