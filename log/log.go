// Package log wraps logrus with the prefixed formatter so every
// subsystem logs under its own component tag.
package log

import (
	"os"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

var root = logrus.New()

func init() {
	root.SetOutput(os.Stdout)
	root.SetLevel(logrus.InfoLevel)
	root.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetDebug enables or disables debug-level output globally.
func SetDebug(on bool) {
	if on {
		root.SetLevel(logrus.DebugLevel)
	} else {
		root.SetLevel(logrus.InfoLevel)
	}
}

// Logger is a leveled emitter bound to one component tag.
type Logger struct {
	e *logrus.Entry
}

// Tag returns the logger for a component, e.g. log.Tag("i2c").
func Tag(name string) *Logger {
	return &Logger{e: root.WithField("prefix", name)}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.e.Errorf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.e.Warnf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.e.Infof(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.e.Debugf(format, args...)
}

// Untagged helpers for top-level code.

func Errorf(format string, args ...interface{}) {
	root.Errorf(format, args...)
}

func Infof(format string, args ...interface{}) {
	root.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	root.Debugf(format, args...)
}

func Info(args ...interface{}) {
	root.Info(args...)
}

func Error(args ...interface{}) {
	root.Error(args...)
}
