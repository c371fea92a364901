package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "riskframe"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "DeFi asset risk scoring engine and monitoring pipeline",
		Version: version,
		Long: `riskframe aggregates normalized on-chain and off-chain metrics for DeFi
assets and produces an auditable two-stage risk score: binary primary-check
gating followed by weighted multi-category scoring with circuit breakers and
an A-F grade.`,
	}

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newMonitorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
