// Package logging configures the shared logrus logger.
package logging

import "github.com/sirupsen/logrus"

// New builds a logger at the given level. Unparseable levels fall back to
// info rather than failing startup.
func New(level string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return log
}
