// Package metrics exposes tickbox's Prometheus instruments. All Record
// methods are safe to call on a nil *Collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	authzDenials   *prometheus.CounterVec
	tokenRequests  *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	registryPurged prometheus.Counter
}

// NewCollector creates the instruments and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authzDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickbox_authz_denials_total",
			Help: "Todo mutations refused by the ownership guard.",
		}, []string{"reason"}),
		tokenRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickbox_token_requests_total",
			Help: "Token endpoint requests by grant type and outcome.",
		}, []string{"grant_type", "outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickbox_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		registryPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickbox_token_registry_purged_total",
			Help: "Expired token registry entries removed by housekeeping.",
		}),
	}

	reg.MustRegister(c.authzDenials, c.tokenRequests, c.registrations, c.registryPurged)
	return c
}

func (c *Collector) RecordAuthzDenial(reason string) {
	if c == nil {
		return
	}
	c.authzDenials.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordTokenRequest(grantType, outcome string) {
	if c == nil {
		return
	}
	c.tokenRequests.WithLabelValues(grantType, outcome).Inc()
}

func (c *Collector) RecordRegistration(outcome string) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistryPurged(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.registryPurged.Add(float64(n))
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
