package logger

import (
	"io"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/sirupsen/logrus"
)

// New builds the service logger. Output is JSON so entries can be shipped
// as-is.
func New(service string, out io.Writer) *logrus.Entry {
	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)

	return log.WithField("service", service)
}

// RollbarHook forwards error level entries to Rollbar.
type RollbarHook struct {
	client *rollbar.Client
}

func NewRollbarHook(token, env, version string) *RollbarHook {
	host, _ := os.Hostname()
	return &RollbarHook{client: rollbar.New(token, env, version, host, "")}
}

func (h *RollbarHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *RollbarHook) Fire(e *logrus.Entry) error {
	level := rollbar.ERR
	if e.Level <= logrus.FatalLevel {
		level = rollbar.CRIT
	}

	extras := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k == logrus.ErrorKey || k == "message" {
			continue
		}
		extras[k] = v
	}

	if err, ok := errorOf(e); ok {
		h.client.ErrorWithExtras(level, err, extras)
		return nil
	}
	h.client.MessageWithExtras(level, e.Message, extras)
	return nil
}

// Close flushes pending items.
func (h *RollbarHook) Close() {
	h.client.Close()
}

func errorOf(e *logrus.Entry) (error, bool) {
	for _, k := range []string{logrus.ErrorKey, "message"} {
		if err, ok := e.Data[k].(error); ok {
			return err, true
		}
	}
	return nil, false
}
