// Package diag wires the pipeline's diagnostic output to
// github.com/sirupsen/logrus, formatted to match spec.md §6's fixed
// per-line shape: "[LEVEL][name] - message" on standard error.
package diag

import (
	"io"

	"github.com/sirupsen/logrus"
)

// lineFormatter renders exactly "[LEVEL][name] - message\n", ignoring
// logrus's usual timestamp/caller decorations: spec.md §6 pins the
// diagnostic line format and leaves no room for extra fields.
type lineFormatter struct{}

func (lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	name, _ := entry.Data["stage"].(string)
	level := "INFO"
	if entry.Level <= logrus.ErrorLevel {
		level = "ERROR"
	}
	line := "[" + level + "][" + name + "] - " + entry.Message + "\n"
	return []byte(line), nil
}

// Logger adapts a logrus.Logger to pipeline.Logger.
type Logger struct {
	entry *logrus.Logger
}

// New returns a Logger that writes formatted diagnostic lines to w
// (standard error in production).
func New(w io.Writer) *Logger {
	l := logrus.New()
	l.SetFormatter(lineFormatter{})
	l.SetOutput(w)
	return &Logger{entry: l}
}

// Info implements pipeline.Logger.
func (l *Logger) Info(stage, message string) {
	l.entry.WithField("stage", stage).Info(message)
}

// Error implements pipeline.Logger.
func (l *Logger) Error(stage, message string) {
	l.entry.WithField("stage", stage).Error(message)
}
