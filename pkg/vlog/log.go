// Package vlog provides the host's structured logger.
package vlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance used across the host.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level by name.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput sets the log output destination.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches to JSON-formatted log lines.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger entry carrying a single field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger entry carrying multiple fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice returns a logger entry tagged with a device UID.
func WithDevice(uid string) *logrus.Entry {
	return Logger.WithField("device", uid)
}

// WithSession returns a logger entry tagged with a session's remote address.
func WithSession(remoteAddr string) *logrus.Entry {
	return Logger.WithField("session", remoteAddr)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

// Warnf logs at warning level.
func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
