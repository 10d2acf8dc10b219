package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	// defaultRequestsPerSecond is the sustained rate of REST calls made by the client.
	defaultRequestsPerSecond = 5

	// defaultBurst is the number of REST calls that may be made at once.
	defaultBurst = 10

	// threadArchiveDuration is the number of minutes of inactivity before Discord hides a ticket thread (7 days).
	threadArchiveDuration = 10080
)

var (
	_ ticketing.Directory = (*Client)(nil)
	_ ticketing.Messenger = (*Client)(nil)
)

// Client looks up and changes guild entities through a discord session. Every REST call waits on a shared limiter so
// that a sweep closing many tickets does not run into the discord rate limits.
type Client struct {
	// l is the logger.
	l *slog.Logger

	// s is the discord session.
	s *discordgo.Session

	// limiter paces the REST calls.
	limiter *rate.Limiter
}

// NewClient creates a new client over the session.
func NewClient(l *slog.Logger, s *discordgo.Session) *Client {
	return &Client{
		l:       l.With(slog.String("component", "discord_client")),
		s:       s,
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
}

// call waits for the limiter and runs a REST call, recording it and mapping its error.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		RequestsTotal.WithLabelValues(op, outcomeCancelled).Inc()
		return fmt.Errorf("error waiting for rate limit: %w", err)
	}

	t := prometheus.NewTimer(RequestLatency.WithLabelValues(op))
	err := mapError(fn())
	t.ObserveDuration()

	RequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	return err
}
