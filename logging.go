package sftp

import "github.com/sirupsen/logrus"

// Logger is the leveled logging interface used throughout the client. It
// is satisfied directly by *logrus.Logger and *logrus.Entry, and is small
// enough to adapt to most other structured loggers.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// nopLogger discards everything; tests wire it in explicitly to keep
// output quiet.
type nopLogger struct{}

func (nopLogger) Tracef(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// defaultLogger returns logrus.StandardLogger(), the Logger a Client
// created without WithLogger reports through.
func defaultLogger() Logger {
	return logrus.StandardLogger()
}
