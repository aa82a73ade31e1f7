package logsvc

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/etarip26/EduConnect/core"
)

// NewZapLogger returns a JSON logger in PROD and a colored console logger otherwise.
// `name` tags every entry (e.g. "API", "DB").
func NewZapLogger(conf *core.Config, name string) *zap.SugaredLogger {
	var zconf zap.Config
	if conf.IsProd() {
		zconf = zap.NewProductionConfig()
	} else {
		zconf = zap.NewDevelopmentConfig()
		zconf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zconf.OutputPaths = []string{"stdout"}
	if conf.TestMode {
		zconf.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := zconf.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger.Named(name).Sugar()
}
