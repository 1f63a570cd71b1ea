package pipeline

import "fmt"

// Stage names a step of a run. A run moves through them in order and may
// stop after StageLoad.
type Stage string

const (
	StageLoad    Stage = "load"
	StageNarrate Stage = "narrate"
	StageChart   Stage = "chart"
	StageExport  Stage = "export"
	StagePublish Stage = "publish"
	StageDone    Stage = "done"
)

// ErrorKind classifies stage failures by how the run recovers from them.
type ErrorKind string

const (
	// KindDataLoad ends the run.
	KindDataLoad ErrorKind = "data_load"
	// KindNarrative is replaced by placeholder text.
	KindNarrative ErrorKind = "narrative"
	// KindExport clears the document paths and annotates the narrative.
	KindExport ErrorKind = "export"
	// KindPublish is reported as a warning only.
	KindPublish ErrorKind = "publish"
)

// StageError is a failure recorded against a stage.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// MarshalText lets results carry errors as plain strings in JSON.
func (e *StageError) MarshalText() ([]byte, error) { return []byte(e.Error()), nil }

// Outcome is a stage value together with its failure, if any.
type Outcome[T any] struct {
	Value T
	Err   *StageError
}

// OK reports whether the stage succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

func ok[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func failed[T any](v T, stage Stage, kind ErrorKind, err error) Outcome[T] {
	return Outcome[T]{Value: v, Err: &StageError{Stage: stage, Kind: kind, Err: err}}
}
