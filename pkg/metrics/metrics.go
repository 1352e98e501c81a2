package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics.
var (
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "online_users",
		Help:      "Users with at least one live connection.",
	})

	OnlineConns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "online_connections",
		Help:      "Live websocket connections.",
	})

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "broadcasts_total",
		Help:      "Events fanned out to rooms, by event name.",
	}, []string{"event"})

	DroppedPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "dropped_pushes_total",
		Help:      "Push tasks dropped because the push queue was full.",
	})

	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "messages",
		Name:      "sent_total",
		Help:      "Messages persisted, by session kind.",
	}, []string{"kind"})
)
