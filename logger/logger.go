package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Init sets up the standard logrus logger. Production logs are json, anything
// else gets the human readable text formatter. An empty level means info.
func Init(prod bool, level string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	logrus.SetOutput(out)
	if prod {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		lvl, err = logrus.ParseLevel(level)
		if err != nil {
			return err
		}
	}
	logrus.SetLevel(lvl)

	logrus.WithField("level", lvl.String()).Debug("Logger initialized")
	return nil
}
