package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	QuotesIssued         prometheus.Counter
	ChargesSubmitted     prometheus.Counter
	ChargesConfirmed     *prometheus.CounterVec
	ChargesRejected      *prometheus.CounterVec
	OverpaymentAnomalies prometheus.Counter
	PoliciesCompleted    prometheus.Counter
	GatewayLatency       prometheus.Histogram
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		QuotesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "securelife_quotes_issued_total",
			Help: "Total number of payment quotes issued",
		}),
		ChargesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "securelife_charges_submitted_total",
			Help: "Total number of charges submitted to the payment gateway",
		}),
		ChargesConfirmed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "securelife_charges_confirmed_total",
			Help: "Total number of gateway webhook confirmations by outcome",
		}, []string{"outcome"}),
		ChargesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "securelife_charges_rejected_total",
			Help: "Total number of charge attempts rejected before gateway submission",
		}, []string{"reason"}),
		OverpaymentAnomalies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "securelife_overpayment_anomalies_total",
			Help: "Total number of overpayment anomalies flagged during reconciliation",
		}),
		PoliciesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "securelife_policies_completed_total",
			Help: "Total number of policies transitioned to COMPLETED_TERM",
		}),
		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "securelife_gateway_charge_duration_seconds",
			Help:    "Latency of payment gateway charge submissions",
			Buckets: prometheus.DefBuckets,
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "securelife_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveGatewayLatency records a gateway round-trip duration.
func (m *Metrics) ObserveGatewayLatency(d time.Duration) {
	m.GatewayLatency.Observe(d.Seconds())
}

// IncChargeRejected records a pre-gateway rejection by reason
// (stale_quote, stale_installment, unauthorized_state, payment_in_progress).
func (m *Metrics) IncChargeRejected(reason string) {
	m.ChargesRejected.WithLabelValues(reason).Inc()
}

// IncChargeConfirmed records a webhook confirmation outcome (succeeded, failed).
func (m *Metrics) IncChargeConfirmed(outcome string) {
	m.ChargesConfirmed.WithLabelValues(outcome).Inc()
}
