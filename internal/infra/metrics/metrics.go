// Package metrics exposes Prometheus counters for outcome control and settlement.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"winloss_server/internal/domain"
)

type Metrics struct {
	OutcomesDecided *prometheus.CounterVec
	TradesOpened    prometheus.Counter
	TradesSettled   *prometheus.CounterVec
	SettleErrors    prometheus.Counter
	ConfigRejected  *prometheus.CounterVec
	VariantSwitches *prometheus.CounterVec
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "winloss"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OutcomesDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "outcomes_decided_total",
			Help:      "Outcome decisions by active variant and required outcome",
		}, []string{"variant", "outcome"}),
		TradesOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_opened_total",
			Help:      "Total number of trades opened",
		}),
		TradesSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_settled_total",
			Help:      "Settled trades by outcome and whether the outcome was forced",
		}, []string{"outcome", "forced"}),
		SettleErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "settle_errors_total",
			Help:      "Trades that failed to settle",
		}),
		ConfigRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "config_rejected_total",
			Help:      "Configuration writes rejected by validation",
		}, []string{"reason"}),
		VariantSwitches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "variant_switches_total",
			Help:      "Variant switches by target variant",
		}, []string{"variant"}),
	}
}

func (m *Metrics) ObserveDecision(variant domain.Variant, outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.OutcomesDecided.WithLabelValues(VariantLabel(variant), outcomeLabel(outcome)).Inc()
}

func (m *Metrics) ObserveSettlement(outcome domain.Outcome, forced bool) {
	if m == nil {
		return
	}
	f := "false"
	if forced {
		f = "true"
	}
	m.TradesSettled.WithLabelValues(outcomeLabel(outcome), f).Inc()
}

func (m *Metrics) ObserveOpen() {
	if m == nil {
		return
	}
	m.TradesOpened.Inc()
}

func (m *Metrics) ObserveSettleError() {
	if m == nil {
		return
	}
	m.SettleErrors.Inc()
}

func (m *Metrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.ConfigRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveSwitch(variant domain.Variant) {
	if m == nil {
		return
	}
	m.VariantSwitches.WithLabelValues(VariantLabel(variant)).Inc()
}

func VariantLabel(v domain.Variant) string {
	switch v {
	case domain.Variant1:
		return "1"
	case domain.Variant2:
		return "2"
	default:
		return "none"
	}
}

func outcomeLabel(o domain.Outcome) string {
	if o == domain.OutcomeNone {
		return "none"
	}
	return string(o)
}
