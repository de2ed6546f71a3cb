package logging

import (
	"os"
	"strings"

	"LogDB/internal/platform/config"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// NewLogger builds the process logger: logfmt or JSON on stdout, stamped with
// time and caller, filtered by the configured level.
func NewLogger(cfg config.Config) log.Logger {
	var logger log.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))
	}
	logger = level.NewFilter(logger, levelOption(cfg.LogLevel))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func levelOption(name string) level.Option {
	switch strings.ToLower(name) {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
