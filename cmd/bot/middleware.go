package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/Jacobbrewer1/wardenbot/pkg/messages"
	"github.com/Jacobbrewer1/wardenbot/pkg/request"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// commandTimeout bounds the work done for a single slash command. Discord keeps the interaction token for 15 minutes.
const commandTimeout = time.Minute

const (
	commandOutcomeOK          = "ok"
	commandOutcomeSideEffects = "side_effects_failed"
	commandOutcomeRejected    = "rejected"
	commandOutcomeError       = "error"
	commandOutcomePanic       = "panic"
)

// slashCommandController picks the processor for a slash command from its sub command.
type slashCommandController func(a IApp, i *discordgo.InteractionCreate) (slashProcessor, error)

// slashProcessor is the processor for slash commands. It returns the content of the reply to the user.
type slashProcessor func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error)

// authOption is an option for the auth middleware. It indicates the type of authentication required.
type authOption int

const (
	// authOptionNone indicates that no authentication is required.
	authOptionNone authOption = iota
)

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, _ authOption, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// slashCommandHandler is the handler for slash commands.
//
// The reply is deferred before the processor runs, as opening a ticket makes more discord calls than fit in the three
// seconds discord waits for a response.
func slashCommandHandler(a IApp, controllers map[string]slashCommandController) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}

		name := i.ApplicationCommandData().Name
		l := a.Log().With(
			slog.String("command", name),
			slog.String(logging.KeyGuild, i.GuildID),
		)
		l.Debug("Handling interaction " + name)

		t := prometheus.NewTimer(DiscordCommandDuration.WithLabelValues(name))
		defer t.ObserveDuration()

		defer func() {
			if rec := recover(); rec != nil {
				DiscordCommandOutcomes.WithLabelValues(name, commandOutcomePanic).Inc()
				l.Error("Panic in slash command",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
			if err := respondSlashEphemeral(a, i, messages.ErrGuildOnly); err != nil {
				l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}
		l = l.With(slog.String(logging.KeyMember, i.Member.User.ID))

		controller, ok := controllers[name]
		if !ok {
			l.Error(fmt.Sprintf("No controller found for command %s", name))
			if err := respondSlashError(a, i); err != nil {
				l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}

		processor, err := controller(a, i)
		if err != nil {
			l.Error(fmt.Sprintf("Error getting processor for command %s", name), slog.String(logging.KeyError, err.Error()))
			if err := respondSlashError(a, i); err != nil {
				l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}

		if err := deferSlashEphemeral(a, i); err != nil {
			l.Error("Error deferring interaction response", slog.String(logging.KeyError, err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		content, err := processor(ctx, a, i)
		switch outcome := commandOutcome(err); outcome {
		case commandOutcomeOK:
			DiscordCommandOutcomes.WithLabelValues(name, outcome).Inc()
		case commandOutcomeSideEffects:
			DiscordCommandOutcomes.WithLabelValues(name, outcome).Inc()
			l.Warn(fmt.Sprintf("Command %s completed with errors", name), slog.String(logging.KeyError, err.Error()))
		case commandOutcomeRejected:
			DiscordCommandOutcomes.WithLabelValues(name, outcome).Inc()
			l.Info(fmt.Sprintf("Command %s rejected", name), slog.String(logging.KeyError, err.Error()))
		default:
			DiscordCommandOutcomes.WithLabelValues(name, outcome).Inc()
			l.Error(fmt.Sprintf("Error processing command %s", name), slog.String(logging.KeyError, err.Error()))
		}
		if err != nil && content == "" {
			content = userMessage(err)
		}

		if err := followupSlashEphemeral(a, i, content); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func commandOutcome(err error) string {
	sideEffectErr := new(ticketing.SideEffectError)
	switch {
	case err == nil:
		return commandOutcomeOK
	case errors.As(err, &sideEffectErr):
		return commandOutcomeSideEffects
	case errors.Is(err, ticketing.ErrNotConfigured), errors.Is(err, ticketing.ErrNoSuchTicket):
		return commandOutcomeRejected
	default:
		return commandOutcomeError
	}
}
