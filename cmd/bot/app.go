package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/discord"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/Jacobbrewer1/wardenbot/pkg/request"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	// shutdownTimeout bounds the graceful shutdown of the monitoring server.
	shutdownTimeout = 10 * time.Second
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Tickets returns the ticket service.
	Tickets() *ticketing.Service

	// Store returns the ticket store.
	Store() dataaccess.TicketStore
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// store is where the tickets are kept.
	store dataaccess.TicketStore

	// tickets opens, closes and reopens tickets.
	tickets *ticketing.Service

	// sweeper closes inactive report tickets.
	sweeper *ticketing.Sweeper

	// sweeperOnce starts the sweeper on the first ready event only.
	sweeperOnce sync.Once

	// ctx is cancelled when the application shuts down.
	ctx context.Context
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.ctx = ctx

	store, err := newTicketStore(ctx, a.Logger)
	if err != nil {
		return fmt.Errorf("error creating ticket store: %w", err)
	}
	a.store = store

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	client := discord.NewClient(a.Logger, a.s)
	a.tickets = ticketing.NewService(a.Logger, a.store, client, client)
	a.sweeper = ticketing.NewSweeper(a.Logger, a.tickets, a.store, client, SweepInterval, TicketIdleTimeout)

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s", r.User.Username))

		// Ready is sent again after a reconnect; the sweeper only needs starting once.
		a.sweeperOnce.Do(func() {
			go a.sweeper.Run(a.ctx)
		})
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	<-ctx.Done()
	a.Info("Received shutdown signal")

	if err := a.ShutdownHook(); err != nil {
		return fmt.Errorf("error shutting down application: %w", err)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.svr.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down monitoring server: %w", err))
	}

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		errs = append(errs, fmt.Errorf("error unregistering slash commands: %w", err))
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}

	if dataaccess.MongoDB != nil {
		if err := dataaccess.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error disconnecting from MongoDB: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	// Members, roles and threads are looked up over REST, so only the guild events are needed.
	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to count events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, middlewareHttp(promhttp.Handler().ServeHTTP, authOptionNone, a)).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), authOptionNone, a)).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:              ":" + MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(slashCommandHandler(a, map[string]slashCommandController{
		ticketsCmd.Name:    ticketsCmdController,
		modTicketsCmd.Name: modTicketsCmdController,
	}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

// registerSlashCommands replaces the commands of a guild with the bot's commands.
func (a *App) registerSlashCommands(guildID string) error {
	if _, err := a.s.ApplicationCommandBulkOverwrite(ApplicationId, guildID, slashCommands); err != nil {
		return fmt.Errorf("error registering commands for guild %s: %w", guildID, err)
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	var errs []error
	for _, g := range a.s.State.Guilds {
		if _, err := a.s.ApplicationCommandBulkOverwrite(ApplicationId, g.ID, []*discordgo.ApplicationCommand{}); err != nil {
			errs = append(errs, fmt.Errorf("error deleting commands for guild %s: %w", g.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Tickets() *ticketing.Service {
	return a.tickets
}

func (a *App) Store() dataaccess.TicketStore {
	return a.store
}
