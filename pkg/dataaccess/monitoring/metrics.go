package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MongoLatency is the duration of Mongo queries.
	MongoLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataaccess_mongo_latency",
			Help:    "Duration of Mongo queries",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MongoTotalRequests is the total number of Mongo requests.
	MongoTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_mongo_total_requests",
			Help: "Total number of Mongo requests",
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MongoConnectAttempts is the number of attempts made to connect to Mongo, by outcome.
	MongoConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_mongo_connect_attempts",
			Help: "Number of attempts made to connect to Mongo",
		},
		[]string{"outcome"},
	)
)
