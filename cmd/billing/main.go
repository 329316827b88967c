package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leadsyncpro/billing/internal/interfaces/cli/dunning"
	"github.com/leadsyncpro/billing/internal/interfaces/cli/migrate"
	"github.com/leadsyncpro/billing/internal/interfaces/cli/server"
	"github.com/leadsyncpro/billing/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "billing",
		Short:        "Seat-based subscription billing service",
		Long:         `billing runs the subscription API, the gateway webhook endpoint, the dunning worker and database migrations.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		dunning.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
