// Package status carries coarse run status and debug/error notices to observers.
package status

import (
	"sync"

	"github.com/rs/zerolog"
)

// Status is a coarse run state visible to observers.
type Status string

const (
	Initializing Status = "initializing"
	LoggingIn    Status = "logging_in"
	Running      Status = "running"
	RuntimeError Status = "runtime_error"
	Stopped      Status = "stopped"
)

// Reporter accepts fire-and-forget notices. Implementations must be safe for concurrent use.
type Reporter interface {
	SetStatus(s Status, message string)
	Debug(message string)
	Error(message string)
}

// LogReporter writes notices to a zerolog logger.
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter wraps log.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) SetStatus(s Status, message string) {
	r.log.Info().Str("status", string(s)).Msg(message)
}

func (r *LogReporter) Debug(message string) { r.log.Debug().Msg(message) }

func (r *LogReporter) Error(message string) { r.log.Error().Msg(message) }

// Update is one SetStatus call captured by a Recorder.
type Update struct {
	Status  Status
	Message string
}

// Recorder keeps every notice in memory and optionally forwards to another Reporter.
type Recorder struct {
	next Reporter

	mu       sync.Mutex
	statuses []Update
	debugs   []string
	errors   []string
}

// NewRecorder returns a Recorder forwarding to next, which may be nil.
func NewRecorder(next Reporter) *Recorder { return &Recorder{next: next} }

func (r *Recorder) SetStatus(s Status, message string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, Update{Status: s, Message: message})
	r.mu.Unlock()
	if r.next != nil {
		r.next.SetStatus(s, message)
	}
}

func (r *Recorder) Debug(message string) {
	r.mu.Lock()
	r.debugs = append(r.debugs, message)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Debug(message)
	}
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	r.errors = append(r.errors, message)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Error(message)
	}
}

// Statuses returns captured status updates in order.
func (r *Recorder) Statuses() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.statuses...)
}

// Debugs returns captured debug notices in order.
func (r *Recorder) Debugs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.debugs...)
}

// Errors returns captured error notices in order.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
