package worker

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadsyncpro/billing/internal/infrastructure/database"
	"github.com/leadsyncpro/billing/internal/infrastructure/scheduler"
	"github.com/leadsyncpro/billing/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/leadsyncpro/billing/internal/interfaces/http"
)

var (
	env        string
	jobTimeout time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled dunning worker",
		Long:  `Run the dunning sweep on the configured cron schedule until interrupted.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().DurationVar(&jobTimeout, "job-timeout", 10*time.Minute, "Upper bound for a single dunning sweep")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Init(bootstrap.ResolveEnv(env), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.Logger.Named("worker")

	container, err := httpRouter.NewContainer(database.Get(), rt.Config, log, httpRouter.Options{})
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer container.Shutdown()

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterDunningJob(rt.Config.Worker.Cron, jobTimeout, container.Dunning()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager.Start()
	log.Infow("dunning worker started", "cron", rt.Config.Worker.Cron, "environment", rt.Env)

	<-ctx.Done()

	log.Infow("shutting down worker")
	return manager.Stop()
}
