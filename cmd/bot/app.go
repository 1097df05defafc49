package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/access"
	"github.com/Jacobbrewer1/triage/pkg/bot"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/triage/pkg/events"
	"github.com/Jacobbrewer1/triage/pkg/intake"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/Jacobbrewer1/triage/pkg/navigator"
	"github.com/Jacobbrewer1/triage/pkg/notify"
	"github.com/Jacobbrewer1/triage/pkg/request"
	"github.com/Jacobbrewer1/triage/pkg/session"
	"github.com/Jacobbrewer1/triage/pkg/telegram"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"

	// shutdownTimeout bounds the monitoring server and store shutdown.
	shutdownTimeout = 10 * time.Second

	// sweepInterval is how often idle reports are evicted.
	sweepInterval = time.Minute
)

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the monitoring server.
	r *mux.Router

	// svr is the monitoring server.
	svr *http.Server

	// c is the runtime configuration.
	c *Config
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router, c *Config) *App {
	return &App{
		Logger: l,
		r:      r,
		c:      c,
	}
}

// Run starts the bot and the monitoring server and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.c.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("error migrating store: %w", err)
	}

	tg, err := telegram.NewBot(a.Logger, a.c.TelegramToken)
	if err != nil {
		return err
	}

	producer := events.NewProducer(a.Logger, a.c.KafkaBrokers, a.c.KafkaTopic)
	defer func() {
		if err := producer.Close(); err != nil {
			a.Warn("Error closing event producer", slog.String(logging.KeyError, err.Error()))
		}
	}()
	if producer.Enabled() {
		a.Info("Publishing ticket events", slog.String("topic", a.c.KafkaTopic))
	}

	sessions := session.NewStore[intake.Conversation]("intake", a.c.SessionTTL, time.Now)
	go sessions.Run(ctx, a.Logger, sweepInterval)

	dispatcher := notify.NewDispatcher(a.Logger, store, tg, producer, a.c.AdminHandles[0])
	machine := intake.NewMachine(a.Logger, sessions, store, dispatcher, bot.MainMenu())
	nav := navigator.NewNavigator(a.Logger, store, producer)
	policy := access.NewAllowList(a.c.AdminHandles...)
	router := bot.NewRouter(a.Logger, store, machine, nav, policy, tg)

	a.setupRoutes(store, tg)
	a.runServer()
	defer a.shutdownServer()

	a.Info("Bot is now running.",
		slog.String("backend", string(a.c.Backend)),
		slog.Any("admins", policy.Handles()),
	)

	BotUp.Set(1)
	defer BotUp.Set(0)

	if err := tg.Run(ctx, router); err != nil {
		return fmt.Errorf("error running bot: %w", err)
	}

	a.Info("Received shutdown signal")
	return nil
}

// Migrate creates the store schema and exits.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.c.Validate(false); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("error migrating store: %w", err)
	}

	a.Info("Store migrated", slog.String("backend", string(a.c.Backend)))
	return nil
}

// openStore connects to the configured backend.
func (a *App) openStore(ctx context.Context) (dataaccess.TicketStore, error) {
	l := a.With(slog.String(logging.KeyDal, string(a.c.Backend)))
	StoreBackendInfo.WithLabelValues(string(a.c.Backend)).Set(1)

	switch a.c.Backend {
	case dataaccess.BackendNeo4j:
		conn := &connection.Neo4j{
			URI:      a.c.Neo4jUri,
			Username: a.c.Neo4jUsername,
			Password: a.c.Neo4jPassword,
		}
		driver, err := conn.Connect(ctx)
		if err != nil {
			return nil, err
		}
		l.Info("Connected to Neo4j")
		return dataaccess.NewNeo4jStore(l, driver, a.c.Neo4jDatabase), nil
	case dataaccess.BackendMongo:
		conn := &connection.MongoDB{
			ConnectionString: a.c.MongoUri,
		}
		client, err := conn.Connect(ctx)
		if err != nil {
			return nil, err
		}
		l.Info("Connected to MongoDB")
		return dataaccess.NewMongoStore(l, client, a.c.MongoDatabase), nil
	case dataaccess.BackendMemory:
		l.Warn("Using the in-memory store, tickets will be lost on restart")
		return dataaccess.NewMemoryStore(l), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.c.Backend)
	}
}

func (a *App) closeStore(store dataaccess.TicketStore) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := store.Close(ctx); err != nil {
		a.Error("Error closing store", slog.String(logging.KeyError, err.Error()))
	}
}

func (a *App) setupRoutes(store pinger, tg pinger) {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.Logger, a.healthCheck(store, tg))).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) runServer() {
	a.svr = &http.Server{
		Addr:              ":" + a.c.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.svr.Shutdown(ctx); err != nil {
		a.Error("Error shutting down monitoring server", slog.String(logging.KeyError, err.Error()))
	}
}
