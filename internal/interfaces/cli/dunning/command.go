package dunning

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadsyncpro/billing/internal/infrastructure/database"
	"github.com/leadsyncpro/billing/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/leadsyncpro/billing/internal/interfaces/http"
)

var (
	env     string
	timeout time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dunning",
		Short: "Dunning maintenance commands",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	runOnce := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single dunning sweep and exit",
		Long:  `Process every past-due subscription once. Safe to run beside the worker; each subscription is locked.`,
		RunE:  runOnce,
	}
	runOnce.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Upper bound for the sweep")

	cmd.AddCommand(runOnce)
	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Init(bootstrap.ResolveEnv(env), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	container, err := httpRouter.NewContainer(database.Get(), rt.Config, rt.Logger, httpRouter.Options{})
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer container.Shutdown()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	count, err := container.Dunning().Execute(ctx)
	if err != nil {
		return fmt.Errorf("dunning sweep failed: %w", err)
	}

	rt.Logger.Infow("dunning sweep finished", "subscriptions", count)
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d subscription(s)\n", count)
	return nil
}
