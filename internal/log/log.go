// Package log provides centralized logging for the CLI using zap.
// The analysis packages stay logger-free; the command layer logs
// around them.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init initializes the package-level logger. With debug set, output is
// the human-friendly development format at debug level.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.DisableCaller = true
		zapLogger, err = cfg.Build(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	log = zapLogger.Sugar()
	return nil
}

func logger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		base, _ := zap.NewProduction(zap.AddCallerSkip(1))
		log = base.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		log.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	logger().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	logger().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	logger().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	logger().Fatalf(template, args...)
}
