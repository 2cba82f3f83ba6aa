package main

import (
	"fmt"
	"os"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gopin/machine"
	"gopin/pins"
)

var (
	loglevel string
	logger   *logrus.Entry

	rootCmd = &cobra.Command{
		Use:   "gopin",
		Short: "Inspect and exercise ESP32 pin configurations",
		Long: "gopin validates pin declarations against the ESP32 capability table, " +
			"brings up machine pin maps and drives pins interactively.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(loglevel)
			if err != nil {
				return err
			}
			logger = newLogger(level)
			pins.SetLogger(logger)
			machine.SetLogger(logger)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&loglevel, "loglevel", "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.AddCommand(capsCmd, checkCmd, shellCmd)
}

// newLogger builds a prefixed text logger at the given level.
func newLogger(level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"
	l := logrus.New()
	l.SetLevel(level)
	l.SetOutput(os.Stderr)

	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	f.PrefixPadding = 20
	f.SpacePadding = 50
	l.SetFormatter(f)
	return logrus.NewEntry(l)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
