package discord

import (
	"errors"

	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeNotFound  = "not_found"
	outcomeForbidden = "forbidden"
	outcomeRefused   = "refused"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

var (
	// RequestsTotal is the number of discord REST calls made by the ticket service.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_rest_requests_total",
			Help: "Total number of discord REST requests",
		},
		[]string{"operation", "outcome"},
	)

	// RequestLatency is the latency of the discord REST calls.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discord_rest_request_latency",
			Help:    "Latency of discord REST requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ticketing.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ticketing.ErrForbidden):
		return outcomeForbidden
	case errors.Is(err, ticketing.ErrDeliveryRefused):
		return outcomeRefused
	default:
		return outcomeError
	}
}
