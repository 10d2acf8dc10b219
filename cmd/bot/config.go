package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
)

const (
	// AppName is the name of the application.
	AppName = "wardenbot"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvStoreBackend is the environment variable for where tickets are stored.
	EnvStoreBackend = `STORE_BACKEND`

	// EnvSweepInterval is the environment variable for the time between inactive ticket sweeps.
	EnvSweepInterval = `SWEEP_INTERVAL`

	// EnvTicketIdleTimeout is the environment variable for how long a report ticket may be inactive.
	EnvTicketIdleTimeout = `TICKET_IDLE_TIMEOUT`

	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`
)

const (
	// StoreBackendMongo keeps tickets in MongoDB.
	StoreBackendMongo = "mongo"

	// StoreBackendMemory keeps tickets in memory. Everything is lost on restart.
	StoreBackendMemory = "memory"
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// StoreBackend is where tickets are stored.
	StoreBackend string

	// SweepInterval is the time between inactive ticket sweeps.
	SweepInterval time.Duration

	// TicketIdleTimeout is how long a report ticket may be inactive before it is closed.
	TicketIdleTimeout time.Duration
)

// errIncompleteConfig is returned when a required environment variable is not set.
var errIncompleteConfig = errors.New("incomplete configuration")

// logLevel gets the level the logger is created with.
func logLevel() string {
	return os.Getenv(EnvLogLevel)
}

func parseConfig(l *slog.Logger) error {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	switch envStore := os.Getenv(EnvStoreBackend); envStore {
	case "":
		StoreBackend = StoreBackendMongo
		l.Info("No store backend provided in environment, defaulting to mongo", slog.String("key", EnvStoreBackend))
	case StoreBackendMongo, StoreBackendMemory:
		StoreBackend = envStore
	default:
		return fmt.Errorf("unknown store backend %q", envStore)
	}

	var err error
	SweepInterval, err = durationFromEnv(l, EnvSweepInterval, ticketing.DefaultSweepInterval)
	if err != nil {
		return err
	}

	TicketIdleTimeout, err = durationFromEnv(l, EnvTicketIdleTimeout, ticketing.DefaultMaxIdle)
	if err != nil {
		return err
	}

	if BotToken == "" || ApplicationId == "" {
		return fmt.Errorf("%w: %s and %s are required", errIncompleteConfig, EnvBotToken, EnvApplicationId)
	}
	if StoreBackend == StoreBackendMongo && MongoUri == "" {
		return fmt.Errorf("%w: %s is required for the %s store", errIncompleteConfig, EnvMongoUri, StoreBackendMongo)
	}

	// All required environment variables have been provided.
	l.Debug("All required environment variables have been provided")
	return nil
}

// durationFromEnv parses a duration from the environment, using the default when it is not set.
func durationFromEnv(l *slog.Logger, key string, def time.Duration) (time.Duration, error) {
	env := os.Getenv(key)
	if env == "" {
		l.Info(fmt.Sprintf("No value provided in environment, defaulting to %s", def), slog.String("key", key))
		return def, nil
	}

	d, err := time.ParseDuration(env)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", key, err)
	} else if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}

	l.Debug("Found duration in environment", slog.String("key", key), slog.Duration("value", d))
	return d, nil
}

func connectMongo(ctx context.Context, l *slog.Logger) error {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect(ctx, l)
	if err != nil {
		return fmt.Errorf("error connecting to mongo: %w", err)
	} else if db == nil {
		return errors.New("mongo client came back nil")
	}

	dataaccess.MongoDB = db
	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
	return nil
}

// newTicketStore creates the ticket store for the configured backend.
func newTicketStore(ctx context.Context, l *slog.Logger) (dataaccess.TicketStore, error) {
	switch StoreBackend {
	case StoreBackendMemory:
		l.Warn("Using in-memory ticket store, tickets will not survive a restart")
		return dataaccess.NewMemoryTicketStore(), nil
	default:
		if err := connectMongo(ctx, l); err != nil {
			return nil, err
		}
		return dataaccess.NewMongoTicketStore(l, dataaccess.MongoDB), nil
	}
}
