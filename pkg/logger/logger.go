// Package logger builds the service's logrus instance. All tuning comes in
// through config; nothing here reads the environment.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a configured logger. An empty level means debug in development
// and info otherwise; an unparseable level falls back to info with a warning.
// Production output is JSON, development output is colored text.
func New(level string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if level == "" {
		if isDevelopment {
			level = "debug"
		} else {
			level = "info"
		}
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if isDevelopment {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
	}
	return log
}
