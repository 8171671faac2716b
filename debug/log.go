package debug

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.SugaredLogger
)

func level() zapcore.Level {
	lvl := os.Getenv("DR_LOG_LEVEL")
	if lvl == "" {
		return zapcore.DebugLevel
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return zapcore.DebugLevel
	}
	return l
}

// Logger returns the shared sugared logger, writing to stderr.
func Logger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.Lock(os.Stderr),
			level(),
		)
		logger = zap.New(core).Sugar()
	})
	return logger
}

func Logf(msg string, args ...any) {
	Logger().Debugf(msg, args...)
}
