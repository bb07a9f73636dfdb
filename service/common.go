package service

import (
	"socialpost/app/repositories"
	"socialpost/config"
	"socialpost/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// load reads the configuration and applies the --db override.
func (o *options) load() (*config.Configuration, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
		cfg.DBInMemory = false
	}
	return cfg, nil
}

// commandLogger logs to the command's stderr so table output stays clean.
func commandLogger(cmd *cobra.Command, cfg *config.Configuration) (*logrus.Logger, error) {
	return logger.NewWithStdout(cfg.Logger(), cmd.ErrOrStderr())
}

func openRepository(cfg *config.Configuration, log logrus.FieldLogger) (*repositories.Repository, error) {
	repo, err := repositories.NewRepository(repositories.Options{
		Path:     cfg.DBPath,
		InMemory: cfg.DBInMemory,
		Logger:   log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return repo, nil
}
