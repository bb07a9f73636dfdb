package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"socialpost/app/repositories"
	"socialpost/app/routes"
	"socialpost/app/services"
	"socialpost/app/workers"
	"socialpost/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// App wires the store, the services, the HTTP API and the publisher.
type App struct {
	Config    *config.Configuration
	Log       logrus.FieldLogger
	Repo      *repositories.Repository
	Deps      routes.Dependencies
	Publisher *workers.Publisher
}

// NewApp opens the database and builds every component from cfg.
func NewApp(cfg *config.Configuration, log logrus.FieldLogger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	repo, err := openRepository(cfg, log)
	if err != nil {
		return nil, err
	}
	store := repo.Posts()

	ledger := services.NewCreditLedger(cfg.StartingCredits)
	catalog := repositories.NewProductCatalog(repositories.DefaultProducts()...)
	scheduling := services.NewSchedulingService(store, services.LogDispatcher{Log: log}, loc, log)
	generator := services.TemplateGenerator{Delay: cfg.GenerationDelay}

	deps := routes.Dependencies{
		Posts:      services.NewPostService(store, log),
		Scheduling: scheduling,
		Generation: services.NewGenerationService(catalog, store, ledger, generator, log),
		Ledger:     ledger,
		Products:   catalog,
		PageSize:   cfg.PageSize,
		Log:        log,
	}
	return &App{
		Config:    cfg,
		Log:       log,
		Repo:      repo,
		Deps:      deps,
		Publisher: workers.NewPublisher(scheduling, cfg.PublishInterval, log),
	}, nil
}

// Run serves the API and runs the publisher until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Publisher.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return routes.StartServer(ctx, a.Config.Address, routes.SetupRoutes(a.Deps), a.Log)
	})
	return g.Wait()
}

// Close releases the database.
func (a *App) Close() error {
	return a.Repo.Close()
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled post publisher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log, err := commandLogger(cmd, cfg)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.WithError(err).Error("failed to close database")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithFields(logrus.Fields{
				"address":  cfg.Address,
				"db_path":  cfg.DBPath,
				"timezone": cfg.Timezone,
				"version":  Version,
			}).Info("starting socialpost")
			if err := app.Run(ctx); err != nil {
				return errors.Wrap(err, "serve")
			}
			log.Info("socialpost stopped")
			return nil
		},
	}
}
