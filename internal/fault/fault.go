// Package fault defines the failure taxonomy for the generation pipeline.
//
// Terminal failures abort a run and surface as a *Failure with exactly one
// Kind. Recoverable conditions are recorded as warnings on a Recorder and the
// pipeline continues with a degraded but valid result.
package fault

import (
	"errors"
	"fmt"
	"sync"
)

type Kind string

const (
	// Terminal kinds. A run that hits one of these produces no output file.
	LocationNotFound   Kind = "location_not_found"
	ServiceUnavailable Kind = "service_unavailable"
	ThemeLoadError     Kind = "theme_load_error"
	ExportError        Kind = "export_error"

	// Warning kinds. These never abort a run.
	DataFetchPartial Kind = "data_fetch_partial"
	AssetMissing     Kind = "asset_missing"
)

// Failure is a terminal pipeline error.
type Failure struct {
	Kind    Kind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func New(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the taxonomy kind of err, or "" if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Warning is a recoverable condition observed during a run.
type Warning struct {
	Kind    Kind
	Message string
}

// Recorder collects warnings across pipeline stages. Safe for concurrent use;
// per-category fetches may warn in parallel.
type Recorder struct {
	mu       sync.Mutex
	warnings []Warning
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Warn(kind Kind, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, Warning{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns a copy of the recorded warnings in record order.
func (r *Recorder) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Has reports whether any warning of the given kind was recorded.
func (r *Recorder) Has(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
