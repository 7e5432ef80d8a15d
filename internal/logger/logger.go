package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const service = "yoosocial"

// New builds the process logger. LOG_LEVEL picks the level (info when
// unset or unknown); LOG_FORMAT=text switches to the human-readable
// formatter for local runs.
func New() *logrus.Logger {
	return NewWithOutput(os.Stdout)
}

func NewWithOutput(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))
	if err != nil || level < logrus.ErrorLevel {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.AddHook(serviceHook{})
	return l
}

// serviceHook stamps every entry with the service name.
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = service
	}
	return nil
}
