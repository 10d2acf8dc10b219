package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/wardenbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// connectTimeout bounds a single connection attempt.
	connectTimeout = 5 * time.Second

	// maxConnectElapsed bounds all connection attempts together.
	maxConnectElapsed = time.Minute
)

type MongoDB struct {
	ConnectionString string
	Username         string
	Password         string
	Host             string
	Port             string
	Args             string
}

func (m *MongoDB) GenerateConnectionString() {
	cs := "mongodb+srv://"
	if m.Username != "" && m.Password != "" {
		cs += url.QueryEscape(m.Username) + ":" + url.QueryEscape(m.Password) + "@"
	} else if m.Username != "" {
		cs += url.QueryEscape(m.Username) + "@"
	}

	cs += m.Host

	if m.Port != "" {
		cs += ":" + m.Port
	}

	if m.Args != "" {
		cs += "/?" + m.Args
	}

	m.ConnectionString = cs
}

// Ping checks the client can reach the server.
func Ping(ctx context.Context, client *mongo.Client) error {
	// Create a new timer to measure the latency of the check.
	t := prometheus.NewTimer(dbMonitoring.MongoLatency.WithLabelValues("health_check", "ping", "-", "-"))
	defer t.ObserveDuration()
	dbMonitoring.MongoTotalRequests.WithLabelValues("health_check", "ping", "-", "-").Inc()

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}

// Connect connects to Mongo, retrying with exponential backoff until the server answers a ping or the context ends.
func (m *MongoDB) Connect(ctx context.Context, l *slog.Logger) (*mongo.Client, error) {
	if m.ConnectionString == "" {
		m.GenerateConnectionString()
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString).SetServerAPIOptions(serverAPI)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxConnectElapsed

	var client *mongo.Client
	connect := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		c, err := mongo.Connect(attemptCtx, opts)
		if err != nil {
			// An invalid URI will never succeed.
			return backoff.Permanent(fmt.Errorf("error connecting to mongo: %w", err))
		}

		if err := Ping(attemptCtx, c); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}

		client = c
		return nil
	}

	notify := func(err error, wait time.Duration) {
		dbMonitoring.MongoConnectAttempts.WithLabelValues("retry").Inc()
		l.Warn("Error connecting to mongo, retrying",
			slog.String(logging.KeyError, err.Error()),
			slog.Duration("wait", wait),
		)
	}

	if err := backoff.RetryNotify(connect, backoff.WithContext(b, ctx), notify); err != nil {
		dbMonitoring.MongoConnectAttempts.WithLabelValues("failure").Inc()
		return nil, err
	}

	dbMonitoring.MongoConnectAttempts.WithLabelValues("success").Inc()
	return client, nil
}
