package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/access"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/events"
	"github.com/joho/godotenv"
)

const (
	// AppName is the name of the application.
	AppName = "triage"

	// EnvTelegramToken is the environment variable for the Telegram bot token.
	EnvTelegramToken = `TELEGRAM_BOT_TOKEN`

	// EnvStoreBackend selects the ticket store: neo4j, mongo or memory.
	EnvStoreBackend = `STORE_BACKEND`

	// EnvNeo4jUri is the environment variable for the Neo4j URI.
	EnvNeo4jUri = `NEO4J_URI`

	// EnvNeo4jUsername is the environment variable for the Neo4j username.
	EnvNeo4jUsername = `NEO4J_USERNAME`

	// EnvNeo4jPassword is the environment variable for the Neo4j password.
	EnvNeo4jPassword = `NEO4J_PASSWORD`

	// EnvNeo4jDatabase is the environment variable for the Neo4j database name.
	EnvNeo4jDatabase = `NEO4J_DATABASE`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoDatabase is the environment variable for the MongoDB database name.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvAdminHandle is the environment variable for the administrator handles, comma separated.
	EnvAdminHandle = `ADMIN_HANDLE`

	// EnvSessionTTL is how long an unfinished report is kept.
	EnvSessionTTL = `SESSION_TTL`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvKafkaBrokers is the environment variable for the Kafka brokers, comma separated.
	EnvKafkaBrokers = `KAFKA_BROKERS`

	// EnvKafkaTopic is the environment variable for the ticket events topic.
	EnvKafkaTopic = `KAFKA_TOPIC`
)

const (
	defaultBackend        = dataaccess.BackendNeo4j
	defaultNeo4jUri       = "neo4j://localhost:7687"
	defaultNeo4jUsername  = "neo4j"
	defaultMongoDatabase  = AppName
	defaultAdminHandle    = "amfares13"
	defaultSessionTTL     = 30 * time.Minute
	defaultMonitoringPort = "8080"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	TelegramToken string

	Backend dataaccess.Backend

	Neo4jUri      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	MongoUri      string
	MongoDatabase string

	AdminHandles []string
	SessionTTL   time.Duration

	MonitoringPort string

	KafkaBrokers []string
	KafkaTopic   string
}

// loadDotEnv loads a .env file when there is one. Variables already set win.
func loadDotEnv(l *slog.Logger) {
	if err := godotenv.Load(".env"); err == nil {
		l.Debug("Loaded environment from .env")
	}
}

// getEnv returns the variable or def, logging which one was used.
func getEnv(l *slog.Logger, key, def string) string {
	if v := os.Getenv(key); v != "" {
		l.Debug("Found value in environment", slog.String("key", key))
		return v
	}
	if def != "" {
		l.Info("No value provided in environment, using default",
			slog.String("key", key),
			slog.String("default", def),
		)
	}
	return def
}

// parseConfig reads the configuration from the environment.
func parseConfig(l *slog.Logger) (*Config, error) {
	loadDotEnv(l)

	c := &Config{
		TelegramToken:  getEnv(l, EnvTelegramToken, ""),
		Neo4jUri:       getEnv(l, EnvNeo4jUri, defaultNeo4jUri),
		Neo4jUsername:  getEnv(l, EnvNeo4jUsername, defaultNeo4jUsername),
		Neo4jPassword:  getEnv(l, EnvNeo4jPassword, ""),
		Neo4jDatabase:  getEnv(l, EnvNeo4jDatabase, ""),
		MongoUri:       getEnv(l, EnvMongoUri, ""),
		MongoDatabase:  getEnv(l, EnvMongoDatabase, defaultMongoDatabase),
		AdminHandles:   access.ParseHandles(getEnv(l, EnvAdminHandle, defaultAdminHandle)),
		MonitoringPort: getEnv(l, EnvMonitoringPort, defaultMonitoringPort),
		KafkaBrokers:   events.ParseBrokers(getEnv(l, EnvKafkaBrokers, "")),
		KafkaTopic:     getEnv(l, EnvKafkaTopic, ""),
	}

	backend, err := dataaccess.ParseBackend(getEnv(l, EnvStoreBackend, string(defaultBackend)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvStoreBackend, err)
	}
	c.Backend = backend

	c.SessionTTL = defaultSessionTTL
	if raw := getEnv(l, EnvSessionTTL, ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSessionTTL, err)
		}
		c.SessionTTL = ttl
	}

	return c, nil
}

// Validate checks the settings the selected backend needs. The token is only needed to run the bot.
func (c *Config) Validate(needBot bool) error {
	var errs []error

	if needBot && c.TelegramToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvTelegramToken))
	}

	switch c.Backend {
	case dataaccess.BackendNeo4j:
		if c.Neo4jUri == "" {
			errs = append(errs, fmt.Errorf("%s is required for the neo4j backend", EnvNeo4jUri))
		}
	case dataaccess.BackendMongo:
		if c.MongoUri == "" {
			errs = append(errs, fmt.Errorf("%s is required for the mongo backend", EnvMongoUri))
		}
	}

	if len(c.AdminHandles) == 0 {
		errs = append(errs, fmt.Errorf("%s must name at least one handle", EnvAdminHandle))
	}

	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", EnvSessionTTL))
	}

	return errors.Join(errs...)
}
