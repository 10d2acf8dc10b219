package ticketing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	transitionOpen   = "open"
	transitionClose  = "close"
	transitionReopen = "reopen"
)

const (
	outcomeClosed  = "closed"
	outcomeActive  = "active"
	outcomeMissing = "missing"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

var (
	// TicketTransitions is the number of ticket transitions.
	TicketTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_transitions_total",
			Help: "Total number of ticket transitions",
		},
		[]string{"type", "transition"},
	)

	// SideEffectFailures is the number of side effects of a transition that failed.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_side_effect_failures_total",
			Help: "Total number of failed ticket side effects",
		},
		[]string{"transition"},
	)

	// SweepDuration is the duration of a sweep.
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ticketing_sweep_duration",
			Help: "Duration of the inactive ticket sweep",
		},
	)

	// SweepTickets is the number of tickets looked at by sweeps, by outcome.
	SweepTickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_sweep_tickets_total",
			Help: "Total number of tickets checked by the inactive ticket sweep",
		},
		[]string{"outcome"},
	)
)
