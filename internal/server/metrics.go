package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pokerroomd/internal/game"
)

// Metrics holds the server's prometheus instruments on a private
// registry. The engine knows nothing about them; the broadcaster path
// observes event traffic as it passes through.
type Metrics struct {
	registry *prometheus.Registry

	ConnectedClients prometheus.Gauge
	SeatedPlayers    *prometheus.GaugeVec
	HandsCompleted   *prometheus.CounterVec
	Actions          *prometheus.CounterVec
	BroadcastEvents  *prometheus.CounterVec
}

// NewMetrics creates the instrument set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pokerroomd",
			Name:      "connected_clients",
			Help:      "Number of open WebSocket connections.",
		}),
		SeatedPlayers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pokerroomd",
			Name:      "seated_players",
			Help:      "Number of seated players per room.",
		}, []string{"room"}),
		HandsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerroomd",
			Name:      "hands_completed_total",
			Help:      "Hands played to completion per room.",
		}, []string{"room"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerroomd",
			Name:      "actions_total",
			Help:      "Betting actions per room and type.",
		}, []string{"room", "action"}),
		BroadcastEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerroomd",
			Name:      "broadcast_events_total",
			Help:      "Events broadcast per room and event type.",
		}, []string{"room", "event"}),
	}
}

// Handler serves the registry for the HTTP mux.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBroadcast counts one outgoing room event, unpacking the
// payloads that carry their own counters.
func (m *Metrics) ObserveBroadcast(roomID, event string, payload interface{}) {
	m.BroadcastEvents.WithLabelValues(roomID, event).Inc()

	switch event {
	case game.EventActionPerformed:
		if p, ok := payload.(game.ActionPerformedPayload); ok {
			m.Actions.WithLabelValues(roomID, p.Action).Inc()
		}
	case game.EventWinnerDetermined:
		m.HandsCompleted.WithLabelValues(roomID).Inc()
	}
}
