// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordTransition(from, to string)
	RecordDenied(operation, reason string)
	RecordChatEvent(eventType string)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	transitions *prometheus.CounterVec
	denied      *prometheus.CounterVec
	chatEvents  *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasktracker_task_transitions_total",
			Help: "Task status transitions by source and target status",
		}, []string{"from", "to"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasktracker_denied_total",
			Help: "Requests refused by the authorization policy",
		}, []string{"operation", "reason"}),
		chatEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasktracker_chat_events_total",
			Help: "Chat events published by type",
		}, []string{"type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasktracker_http_responses_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.transitions,
		c.denied,
		c.chatEvents,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordDenied(operation, reason string) {
	c.denied.WithLabelValues(operation, reason).Inc()
}

func (c *Collector) RecordChatEvent(eventType string) {
	c.chatEvents.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Useful where metrics are not wired.
type Nop struct{}

func (Nop) RecordTransition(string, string) {}
func (Nop) RecordDenied(string, string)     {}
func (Nop) RecordChatEvent(string)          {}
func (Nop) RecordHTTPStatus(int)            {}
