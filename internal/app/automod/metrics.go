package automod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_automod_decisions_total",
	Help: "Number of auto-moderation decisions by event and action",
}, []string{"room", "event", "action"})

var ignoredMatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_automod_ignored_matches_total",
	Help: "Number of ban list matches not acted on because the client is not moderator",
}, []string{"room", "list"})
