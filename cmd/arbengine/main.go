// Command arbengine runs the multi-hop arbitrage engine, or queries a
// running instance's debug HTTP surface. Grounded on cmd/synnergy/main.go's
// cobra root-command wiring.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solarb/engine/pkg/config"
)

var (
	envFlag string
	log     = logrus.New()
	cmdOut  io.Writer = os.Stdout
)

func main() {
	root := &cobra.Command{
		Use:   "arbengine",
		Short: "multi-hop Solana arbitrage engine",
	}
	root.PersistentFlags().StringVar(&envFlag, "env", "", "environment name (e.g. prod, staging); also read from ARB_ENV")

	root.AddCommand(newRunCommand())
	root.AddCommand(newRoutesCommand())
	root.AddCommand(newCacheCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if envFlag != "" {
		return config.Load(envFlag)
	}
	return config.LoadFromEnv()
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.WithError(err).Warn("main: failed to open log file, logging to stderr only")
			return
		}
		log.SetOutput(f)
	}
}
