// Package log configures the relay's logrus logger and offers field helpers
// for the connection and room identifiers that show up in nearly every line.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Setup sets level and formatter on the standard logrus logger.
// level is one of debug, info, warn, error; format is text or json.
func Setup(level, format string) error {
	return configure(logrus.StandardLogger(), os.Stdout, level, format)
}

func configure(l *logrus.Logger, out io.Writer, level, format string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return errors.Wrap(err, "log level")
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "15:04:05.000",
			FullTimestamp:   true,
		})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}

	l.SetOutput(out)
	l.SetLevel(lvl)
	return nil
}

// WithConn returns an entry tagged with a connection id.
func WithConn(id string) *logrus.Entry {
	return logrus.WithField("conn", id)
}

// WithRoom returns an entry tagged with a connection id and a room id.
func WithRoom(id, room string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"conn": id, "room": room})
}

func Debugf(format string, args ...any) {
	logrus.Debugf(format, args...)
}

func Info(args ...any) {
	logrus.Info(args...)
}

func Infof(format string, args ...any) {
	logrus.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	logrus.Warnf(format, args...)
}

func Error(args ...any) {
	logrus.Error(args...)
}

func Errorf(format string, args ...any) {
	logrus.Errorf(format, args...)
}

func Fatal(args ...any) {
	logrus.Fatal(args...)
}
