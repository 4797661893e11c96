// Package metrics defines and registers all custom Prometheus metrics for the
// health-risk API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto and exposed by the echoprometheus handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "riskapi"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts sign-in attempts.
// Labels:
//   - method: "local" or "google"
//   - result: "success", "invalid_credentials", "rejected" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of sign-in attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// SessionsRenewedTotal counts sliding sessions re-issued by the session loader.
var SessionsRenewedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_sessions_renewed_total",
		Help:      "Total number of sliding sessions re-issued with a fresh window.",
	},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts accounts created through the register endpoint.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created through local registration.",
	},
)

// UsersDeletedTotal counts accounts removed by an administrator.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of user accounts deleted.",
	},
)

// ── Prediction metrics ────────────────────────────────────────────────────────

// PredictionsTotal counts stroke predictions served.
// Label:
//   - outcome: "at_risk", "not_at_risk" or "error"
var PredictionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of stroke predictions, by outcome.",
	},
	[]string{"outcome"},
)

// PredictionDuration measures scoring time of a single prediction.
var PredictionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Duration of a single stroke prediction.",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
	},
)

// ModelLoaded is 1 while a prediction model is active, 0 otherwise.
var ModelLoaded = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_loaded",
		Help:      "Whether a stroke prediction model is loaded (1) or not (0).",
	},
)
