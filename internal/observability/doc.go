// Package observability provides the operational activity log, metrics
// derived from it, latency alerting over the event stream, and Slack
// notification for FlowPulse. The activity log is structured JSON Lines
// (JSONL); metrics are computed on demand from it.
package observability
