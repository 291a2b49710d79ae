package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// serviceErrorBurst is how many error events one service must report before
// it gets its own alert.
const serviceErrorBurst = 3

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	ErrorRatePercent int `yaml:"error_rate_percent" json:"error_rate_percent"`
	AvgLatencyMs     int `yaml:"avg_latency_ms" json:"avg_latency_ms"`
	MinEvents        int `yaml:"min_events" json:"min_events"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		ErrorRatePercent: 25,
		AvgLatencyMs:     450,
		MinEvents:        10,
	}
}

// ThresholdsFromConfig converts the configured alert section.
func ThresholdsFromConfig(cfg models.AlertConfig) AlertThresholds {
	return AlertThresholds{
		ErrorRatePercent: cfg.ErrorRatePercent,
		AvgLatencyMs:     cfg.AvgLatencyMs,
		MinEvents:        cfg.MinEvents,
	}
}

// AlertEngine evaluates alert conditions against a list of events.
type AlertEngine interface {
	Evaluate(events []models.Event) []Alert
}

type alertEngine struct {
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given thresholds.
func NewAlertEngine(thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate checks every alert condition, ordered high to low severity.
// Nothing fires while fewer than MinEvents events are present.
func (ae *alertEngine) Evaluate(events []models.Event) []Alert {
	if len(events) == 0 || len(events) < ae.thresholds.MinEvents {
		return nil
	}

	now := ae.now()
	summary := core.Summarize(events)
	var alerts []Alert

	errorRate := summary.BySeverity.Error * 100 / summary.Count
	if errorRate > ae.thresholds.ErrorRatePercent {
		alerts = append(alerts, Alert{
			ID:          "error-rate",
			Condition:   "error_rate_exceeded",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("error rate %d%% exceeds %d%% over %d events", errorRate, ae.thresholds.ErrorRatePercent, summary.Count),
			TriggeredAt: now,
		})
	}

	if summary.AvgLatency > ae.thresholds.AvgLatencyMs {
		alerts = append(alerts, Alert{
			ID:          "avg-latency",
			Condition:   "avg_latency_exceeded",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("average latency %d ms exceeds %d ms", summary.AvgLatency, ae.thresholds.AvgLatencyMs),
			TriggeredAt: now,
		})
	}

	alerts = append(alerts, ae.checkServiceErrors(events, now)...)

	return alerts
}

// checkServiceErrors raises one low alert per service with a burst of
// error events, in the fixed service order followed by any unknown services
// in first-seen order.
func (ae *alertEngine) checkServiceErrors(events []models.Event, now time.Time) []Alert {
	counts := make(map[string]int)
	var order []string
	for _, name := range models.Services {
		order = append(order, name)
	}
	for _, e := range events {
		if e.Severity != models.SeverityError {
			continue
		}
		if _, seen := counts[e.Service]; !seen && !isKnownService(e.Service) {
			order = append(order, e.Service)
		}
		counts[e.Service]++
	}

	var alerts []Alert
	for _, service := range order {
		n := counts[service]
		if n < serviceErrorBurst {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("service-errors-%s", service),
			Condition:   "service_error_burst",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("service %s reported %d error events", service, n),
			TriggeredAt: now,
		})
	}
	return alerts
}

func isKnownService(name string) bool {
	for _, s := range models.Services {
		if s == name {
			return true
		}
	}
	return false
}
