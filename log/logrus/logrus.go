// Package logrus adapts a *logrus.Entry to tiercache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/tiercache"
)

var _ tiercache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New wraps l; nil selects the logrus standard logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: logrus.NewEntry(l)}
}

func (l Logger) with(f tiercache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}

func (l Logger) Debug(msg string, f tiercache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f tiercache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f tiercache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f tiercache.Fields) { l.with(f).Error(msg) }
