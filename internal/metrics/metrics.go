package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbot_commands_total",
			Help: "Commands dispatched, by command name",
		},
		[]string{"command"},
	)
	CommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbot_command_errors_total",
			Help: "Commands that failed on a storage error, by command name",
		},
		[]string{"command"},
	)
	ReminderPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbot_reminder_passes_total",
			Help: "Notification passes fired by the scheduler",
		},
	)
	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbot_reminders_sent_total",
			Help: "Reminder messages delivered",
		},
	)
	ReminderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbot_reminder_failures_total",
			Help: "Reminder deliveries that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandErrors)
	prometheus.MustRegister(ReminderPasses)
	prometheus.MustRegister(RemindersSent)
	prometheus.MustRegister(ReminderFailures)
}
