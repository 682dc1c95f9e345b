package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quantlake/quantlake/pkg/logging"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "quantlake",
		Short:         "Bulk market data acquisition into a partitioned local lake",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newMigrateStatusCommand())

	return root
}

// setupLogger builds the process logger from the environment.
func setupLogger() *logrus.Logger {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("Error loading .env file")
		}
	}

	log := logrus.New()

	if os.Getenv("LOG_FORMAT") == "console" {
		log.SetFormatter(logging.NewColoredJSONFormatter())
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		if logLevel != "" {
			log.WithFields(logrus.Fields{
				"attempted_level": logLevel,
				"default_level":   "INFO",
			}).Warn("Invalid log level specified, defaulting to INFO")
		}
	}

	return log
}
