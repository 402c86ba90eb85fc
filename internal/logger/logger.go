package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(path string, level log.Level) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})

	cleanup := func() {
		f.Close()
	}

	return &Logger{Logger: l}, cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(writers ...io.Writer) *Logger {
	w := io.MultiWriter(writers...)
	return New(w)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel maps a config level name to a log level, defaulting to info
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// With returns a child logger carrying the given fields
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

// ConversionStarted logs the start of a document conversion
func (l *Logger) ConversionStarted(documentID, conversionID string, size int) {
	l.Debug("conversion started",
		"document_id", documentID,
		"conversion_id", conversionID,
		"bytes", size)
}

// ConversionCompleted logs the end of a document conversion
func (l *Logger) ConversionCompleted(documentID string, macros, failed, tables int, duration time.Duration) {
	l.Info("conversion completed",
		"document_id", documentID,
		"macros", macros,
		"macros_failed", failed,
		"tables", tables,
		"duration", duration.Round(time.Millisecond))
}

// MacroFailed logs a macro handler failure that was replaced by a placeholder
func (l *Logger) MacroFailed(documentID, macro string, err error) {
	l.Warn("macro failed",
		"document_id", documentID,
		"macro", macro,
		"error", err)
}

// MacroSummary logs the processed/failed counts of a macro pass
func (l *Logger) MacroSummary(documentID string, processed, failed int) {
	l.Info("macro processing complete",
		"document_id", documentID,
		"processed", processed,
		"failed", failed)
}

// ElementFailed logs a failure while rewriting a single element
func (l *Logger) ElementFailed(documentID, element string, err error) {
	l.Warn("element failed",
		"document_id", documentID,
		"element", element,
		"error", err)
}

// TableSkipped logs a table left untouched by the table transform
func (l *Logger) TableSkipped(documentID string, index int, reason string) {
	l.Warn("table skipped",
		"document_id", documentID,
		"table", index,
		"reason", reason)
}

// LookupFailed logs a failed collaborator lookup
func (l *Logger) LookupFailed(documentID, lookup string, err error) {
	l.Warn("lookup failed",
		"document_id", documentID,
		"lookup", lookup,
		"error", err)
}

// StageFailed logs a pipeline stage that was skipped after a failure
func (l *Logger) StageFailed(documentID, stage string, err error) {
	l.Error("stage failed",
		"document_id", documentID,
		"stage", stage,
		"error", err)
}

// FallbackUsed logs that a document went through fallback conversion
func (l *Logger) FallbackUsed(documentID string, err error) {
	l.Warn("fallback conversion used",
		"document_id", documentID,
		"error", err)
}

// FileConverted logs a successful file conversion
func (l *Logger) FileConverted(source, dest, reason string) {
	l.Info("file converted",
		"source", source,
		"dest", dest,
		"reason", reason)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// BatchStarted logs the start of a batch run
func (l *Logger) BatchStarted(inputDir, outputDir string, workers int) {
	l.Info("batch started",
		"input_dir", inputDir,
		"output_dir", outputDir,
		"workers", workers)
}

// BatchCompleted logs the completion of a batch run
func (l *Logger) BatchCompleted(converted, skipped, errors int, duration time.Duration) {
	l.Info("batch completed",
		"converted", converted,
		"skipped", skipped,
		"errors", errors,
		"duration", duration.Round(time.Millisecond))
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(inputDir, outputDir string, workers int) {
	l.Debug("config loaded",
		"input_dir", inputDir,
		"output_dir", outputDir,
		"workers", workers)
}

// Skipped logs when a file is skipped
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}
