// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to stdout. format is "json" or "text";
// an unparsable level falls back to info.
func New(level, format string) *logrus.Logger {
	return newWithOutput(level, format, os.Stdout)
}

func newWithOutput(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// LogError logs err with the module and operation it came from.
func LogError(logger logrus.FieldLogger, module, operation string, err error, fields logrus.Fields) {
	entry := logger.WithFields(logrus.Fields{
		"module":    module,
		"operation": operation,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.WithError(err).Error(operation + " failed")
}
