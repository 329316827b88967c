// Package bootstrap prepares the process-wide state every command needs.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/leadsyncpro/billing/internal/infrastructure/config"
	"github.com/leadsyncpro/billing/internal/infrastructure/database"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/constants"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// Runtime is the initialized configuration, logger and database.
type Runtime struct {
	Env    string
	Config *config.Config
	Logger logger.Interface
}

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flagEnv string) string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return flagEnv
}

// Init loads configuration and initializes the logger, the business
// timezone and, when withDB is set, the database connection.
func Init(env string, withDB bool) (*Runtime, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = GinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Billing.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if withDB {
		if err := database.Init(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return &Runtime{Env: env, Config: cfg, Logger: logger.NewLogger()}, nil
}

// Close releases the database and flushes the logger.
func (r *Runtime) Close() {
	if err := database.Close(); err != nil {
		r.Logger.Warnw("failed to close database", "error", err)
	}
	_ = logger.Sync()
}

func GinMode(environment string) string {
	switch environment {
	case constants.EnvProduction, "prod", "release":
		return "release"
	case constants.EnvTest, "testing":
		return "test"
	default:
		return "debug"
	}
}
