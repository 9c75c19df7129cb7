package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      *zap.Logger
	initOnce sync.Once
)

// Init builds the process logger once. Production output is JSON on stderr at
// warn level so it stays out of the way of command output.
func Init(development bool) error {
	var err error
	initOnce.Do(func() {
		var cfg zap.Config
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
		cfg.EncoderConfig.TimeKey = "time"
		log, err = cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
			return
		}
		log.Debug("logger initialized", zap.Bool("development", development))
	})
	return err
}

// L returns the process logger, or a no-op logger when Init was never called.
func L() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
