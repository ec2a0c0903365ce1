package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_commands_total",
	Help: "Number of commands seen by surface, command and result",
}, []string{"room", "surface", "command", "result"})

var tasksDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_worker_tasks_dropped_total",
	Help: "Number of worker tasks dropped because the pool was saturated",
}, []string{"room", "task"})

var sendsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_sends_dropped_total",
	Help: "Number of outbound sends that failed",
}, []string{"room", "op", "reason"})

var moderationActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roombot_moderation_actions_total",
	Help: "Number of ban, forgive and close actions sent",
}, []string{"room", "action", "source"})
