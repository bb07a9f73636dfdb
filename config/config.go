package config

import (
	"os"
	"time"

	"socialpost/logger"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Configuration holds the static settings needed to run the application.
type Configuration struct {
	Address         string        `env:"ADDRESS" envDefault:":8080" validate:"required"`
	DBPath          string        `env:"DB_PATH" envDefault:"data/badger" validate:"required_without=DBInMemory"`
	DBInMemory      bool          `env:"DB_IN_MEMORY" envDefault:"false"`
	PageSize        int           `env:"PAGE_SIZE" envDefault:"6" validate:"min=1,max=100"`
	Timezone        string        `env:"TIMEZONE" envDefault:"UTC" validate:"timezone"`
	StartingCredits int           `env:"STARTING_CREDITS" envDefault:"23" validate:"min=0"`
	PublishInterval time.Duration `env:"PUBLISH_INTERVAL" envDefault:"30s" validate:"min=1s"`
	GenerationDelay time.Duration `env:"GENERATION_DELAY" envDefault:"0s" validate:"min=0s"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogOutput     string `env:"LOG_OUTPUT" envDefault:"stdout" validate:"oneof=stdout file both"`
	LogFile       string `env:"LOG_FILE" envDefault:"logs/socialpost.log"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" envDefault:"30"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
	LogCaller     bool   `env:"LOG_CALLER" envDefault:"false"`
}

var validate = validator.New()

// Load reads the given .env files, when they exist, and then parses the
// environment. Variables already set in the environment win over file values.
func Load(files ...string) (*Configuration, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", f)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Location returns the zone schedule dates and times are read in.
func (c *Configuration) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	return loc, nil
}

// Logger converts the LOG_* settings into a logger configuration.
func (c *Configuration) Logger() logger.Config {
	return logger.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		Output:     c.LogOutput,
		File:       c.LogFile,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAge,
		Compress:   c.LogCompress,
		Caller:     c.LogCaller,
	}
}
