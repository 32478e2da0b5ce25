package config

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// Logger returns the shared application logger, initializing it on first use.
// Safe for concurrent first calls.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
			logger.SetLevel(lvl)
		}
	})
	return logger
}
