package fiberlog

import "github.com/sirupsen/logrus"

// Config is config for middleware
type Config struct {
	// Logger receives the access log; nil means the logrus standard logger.
	Logger *logrus.Logger
	Tags   []string
}

// ConfigDefault is the default config
var ConfigDefault Config = Config{
	Logger: nil,
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
		RequestID,
	},
}
