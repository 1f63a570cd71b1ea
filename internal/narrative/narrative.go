package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/reportloom/internal/ai"
	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/logging"
	"github.com/KaramelBytes/reportloom/internal/utils"
)

const (
	DefaultQuestion     = "Explain the main trend"
	DefaultTemperature  = 0.4
	DefaultSampleRows   = 5
	DefaultTimeout      = 45 * time.Second
	DefaultSampleTokens = 1500

	systemPrompt  = "You are a data analyst. Explain the data in 3 to 5 short, easy to understand sentences, written for a non-technical audience."
	failurePrefix = "⚠️ Narrative generation failed: "
)

// ErrEmptyAnswer is returned when the runtime answers with no text.
var ErrEmptyAnswer = errors.New("empty answer from model")

// Error marks a failed narrative request. The run continues with the
// placeholder text.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "narrative: " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Outcome is the narrative text plus the failure, if any. Text is always
// usable: on failure it holds the placeholder.
type Outcome struct {
	Text string
	Err  error
}

// Requester asks a text-generation runtime to explain a dataset sample.
type Requester struct {
	Runtime ai.Runtime
	Model   string
	// Temperature is sent as is, 0 included. NewRequester sets 0.4.
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SampleRows   int
	SampleTokens int
	Logger       logrus.FieldLogger
}

// NewRequester returns a requester with the default sampling settings.
func NewRequester(rt ai.Runtime, model string) *Requester {
	return &Requester{
		Runtime:      rt,
		Model:        model,
		Temperature:  DefaultTemperature,
		Timeout:      DefaultTimeout,
		SampleRows:   DefaultSampleRows,
		SampleTokens: DefaultSampleTokens,
	}
}

// Explain requests a short explanation of ds. It never fails outright: any
// error becomes the placeholder text with Err set.
func (r *Requester) Explain(ctx context.Context, question string, ds *dataset.Dataset) Outcome {
	log := r.logger()
	text, err := r.explain(ctx, question, ds)
	if err != nil {
		log.WithError(err).Warn("narrative request failed")
		return Outcome{Text: Placeholder(err), Err: &Error{Err: err}}
	}
	log.WithField("chars", len(text)).Debug("narrative received")
	return Outcome{Text: text}
}

func (r *Requester) explain(ctx context.Context, question string, ds *dataset.Dataset) (string, error) {
	if r.Runtime == nil {
		return "", errors.New("no text-generation runtime configured")
	}
	if ds == nil {
		return "", errors.New("no dataset")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       r.Model,
		Messages:    r.Messages(question, ds),
		MaxTokens:   r.MaxTokens,
		Temperature: ai.Temp(r.Temperature),
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}

// Messages builds the chat messages sent for a question and dataset.
func (r *Requester) Messages(question string, ds *dataset.Dataset) []ai.Message {
	q := strings.TrimSpace(question)
	if q == "" {
		q = DefaultQuestion
	}
	return []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Data sample:\n" + r.sample(ds)},
		{Role: "user", Content: "Question: " + q},
	}
}

// sample renders the first rows, cut to the token budget.
func (r *Requester) sample(ds *dataset.Dataset) string {
	n := r.SampleRows
	if n <= 0 {
		n = DefaultSampleRows
	}
	head := ds.Head(n)
	limit := r.SampleTokens
	if limit <= 0 {
		limit = DefaultSampleTokens
	}
	if utils.CountTokens(head) > limit {
		head = utils.TruncateToTokenLimit(head, limit)
	}
	return head
}

func (r *Requester) logger() *logrus.Entry {
	l := r.Logger
	if l == nil {
		l = logging.Discard()
	}
	return l.WithField(logging.FieldStage, "narrate")
}

// Placeholder is the narrative text used when generation fails.
func Placeholder(err error) string {
	return failurePrefix + err.Error()
}

// IsPlaceholder reports whether text is a failure placeholder.
func IsPlaceholder(text string) bool {
	return strings.HasPrefix(text, failurePrefix)
}
