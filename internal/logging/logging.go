package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Field names shared by every component.
const (
	FieldRunID = "run_id"
	FieldStage = "stage"
)

// Options controls the logger built at startup.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Debug  bool
	Output io.Writer
}

// New builds a logger. JSON output renames the standard keys so log shippers
// see timestamp/level/message.
func New(opt Options) *logrus.Logger {
	l := logrus.New()
	out := opt.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opt.Level)
	if err != nil || opt.Level == "" {
		level = logrus.WarnLevel
	}
	if opt.Debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything. Used as the default when a
// component is built without one.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ForRun tags entries with a run identifier.
func ForRun(l logrus.FieldLogger, runID string) *logrus.Entry {
	if l == nil {
		l = Discard()
	}
	return l.WithField(FieldRunID, runID)
}

// ForStage adds the pipeline stage to an entry.
func ForStage(e *logrus.Entry, stage string) *logrus.Entry {
	return e.WithField(FieldStage, stage)
}
