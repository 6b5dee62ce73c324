// Package log provides the module-scoped structured logger used across
// the Gatekeeper packages, in the same shape as klaytn's log.NewModuleLogger:
// every package grabs its own named Logger once and calls it with
// alternating key/value pairs.
package log

import (
	"go.uber.org/zap"
)

// Module names, one per package that logs. Kept as a closed set the way
// klaytn enumerates log.Common, log.ChainDataFetcher, etc.
type Module string

const (
	Gatekeeper Module = "gatekeeper"
	Tokenomic  Module = "tokenomic"
	Worker     Module = "workerstate"
	Randomness Module = "randomness"
	KeyShare   Module = "cryptoutil"
	Transport  Module = "transport"
	Store      Module = "sealedstore"
	Common     Module = "common"
)

// Logger is the leveled, structured logging surface every package codes
// against. Implementations must tolerate an odd number of keyvals by
// dropping the dangling key.
type Logger interface {
	Trace(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	// Crit logs at error level and then terminates the process. Reserved
	// for unrecoverable state-consistency faults that must halt the
	// process rather than continue on corrupted state.
	Crit(msg string, keyvals ...interface{})
}

var base = newZapLogger()

func newZapLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op logger rather than failing startup over
		// a logging misconfiguration.
		l = zap.NewNop()
	}
	return l.Sugar()
}

type moduleLogger struct {
	module Module
	sugar  *zap.SugaredLogger
}

// NewModuleLogger returns the Logger for the given module, mirroring
// klaytn's log.NewModuleLogger(log.Common) call convention.
func NewModuleLogger(module Module) Logger {
	return &moduleLogger{module: module, sugar: base.With("module", string(module))}
}

func (l *moduleLogger) Trace(msg string, keyvals ...interface{}) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *moduleLogger) Debug(msg string, keyvals ...interface{}) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *moduleLogger) Info(msg string, keyvals ...interface{}) {
	l.sugar.Infow(msg, keyvals...)
}

func (l *moduleLogger) Warn(msg string, keyvals ...interface{}) {
	l.sugar.Warnw(msg, keyvals...)
}

func (l *moduleLogger) Error(msg string, keyvals ...interface{}) {
	l.sugar.Errorw(msg, keyvals...)
}

func (l *moduleLogger) Crit(msg string, keyvals ...interface{}) {
	l.sugar.Errorw(msg, keyvals...)
	panic(msg)
}
