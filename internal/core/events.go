package core

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// Latency thresholds (strictly greater-than) used to derive severity.
const (
	ErrorLatencyMs = 500
	WarnLatencyMs  = 280

	baseLatencyMs  = 50
	latencySpanMs  = 650
	timestampStyle = "2006-01-02T15:04:05.000Z"
	expandedStyle  = "-01-02T15:04:05.000Z"
)

// Synthesize builds the event for the given seed. The same seed always
// yields the same event. The timestamp reads the seed as Unix milliseconds;
// seeds outside years 0000-9999 get an expanded, signed six-digit year.
func Synthesize(seed int64) models.Event {
	latency := float64(baseLatencyMs + mod(seed, latencySpanMs))
	return models.Event{
		ID:        models.EventIDPrefix + strconv.FormatInt(seed, 10),
		Service:   models.Services[mod(seed, int64(len(models.Services)))],
		LatencyMs: latency,
		Severity:  SeverityForLatency(latency),
		TS:        formatTimestamp(seed),
	}
}

// formatTimestamp renders ms as ISO-8601 UTC with millisecond precision.
func formatTimestamp(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return fmt.Sprintf("%+07d", y) + t.Format(expandedStyle)
	}
	return t.Format(timestampStyle)
}

// SeverityForLatency classifies a latency: above 500ms is an error, above
// 280ms a warning, anything else info.
func SeverityForLatency(latencyMs float64) models.Severity {
	switch {
	case latencyMs > ErrorLatencyMs:
		return models.SeverityError
	case latencyMs > WarnLatencyMs:
		return models.SeverityWarn
	default:
		return models.SeverityInfo
	}
}

// mod returns the non-negative remainder of a divided by n.
func mod(a, n int64) int64 {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// Summarize computes count, rounded mean latency, and per-severity counts.
// The input slice is not modified.
func Summarize(events []models.Event) models.Summary {
	var s models.Summary
	s.Count = len(events)
	if s.Count == 0 {
		return s
	}

	var total float64
	for _, e := range events {
		total += e.LatencyMs
		switch e.Severity {
		case models.SeverityInfo:
			s.BySeverity.Info++
		case models.SeverityWarn:
			s.BySeverity.Warn++
		case models.SeverityError:
			s.BySeverity.Error++
		}
	}
	mean := total / float64(s.Count)
	if math.IsInf(total, 0) {
		mean = runningMean(events)
	}
	s.AvgLatency = roundLatency(mean)

	return s
}

// runningMean averages without an intermediate sum, so it stays finite for
// latencies near the float64 limit.
func runningMean(events []models.Event) float64 {
	var mean float64
	for i, e := range events {
		mean += (e.LatencyMs - mean) / float64(i+1)
	}
	return mean
}

// roundLatency rounds half toward positive infinity and saturates at the
// int range.
func roundLatency(v float64) int {
	r := math.Floor(v + 0.5)
	switch {
	case r >= math.MaxInt:
		return math.MaxInt
	case r <= math.MinInt:
		return math.MinInt
	}
	return int(r)
}

// FilterBySeverity returns the events matching filter. FilterAll returns the
// input slice itself.
func FilterBySeverity(events []models.Event, filter models.SeverityFilter) []models.Event {
	if filter == models.FilterAll || !filter.IsValid() {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if filter.Matches(e.Severity) {
			out = append(out, e)
		}
	}
	return out
}

// MaxLatency returns the largest latency in events, or 1 when there is
// nothing to compare against, so it can be used as a bar-chart scale.
func MaxLatency(events []models.Event) float64 {
	highest := 1.0
	for _, e := range events {
		if e.LatencyMs > highest {
			highest = e.LatencyMs
		}
	}
	return highest
}
