package initializers

import (
	"superset-embed-gateway/fiberlog"

	log "github.com/sirupsen/logrus"
)

func newJSONFormatter() *log.JSONFormatter {
	return &log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime: "@timestamp",
			log.FieldKeyMsg:  "message",
		},
	}
}

// InitLogger configures the standard logger and returns the access log config.
// Unknown levels fall back to info.
func InitLogger(level string) *fiberlog.Config {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetFormatter(newJSONFormatter())
	log.SetLevel(logLevel)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
	}

	logger := log.New()
	logger.SetFormatter(newJSONFormatter())
	logger.SetLevel(logLevel)
	return &fiberlog.Config{
		Logger: logger,
		Tags: []string{
			fiberlog.TagMethod,
			fiberlog.TagPath,
			fiberlog.TagStatus,
			fiberlog.TagLatency,
			fiberlog.TagIP,
			fiberlog.RequestID,
		},
	}
}
