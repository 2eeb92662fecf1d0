package obs

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// NewLogger builds a structured logger for the given level. Unknown levels
// fall back to info. Output goes to stderr so command output on stdout stays
// machine-readable.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Logger returns the shared fallback logger used when no explicit logger is
// configured.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		l, err := NewLogger("info")
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}
