// Package metrics defines the interfaces used to record dispatch and live
// transcript metrics. Sinks such as PromSink and InfluxSink in infra/metrics
// implement MetricsSink plus any of the optional recorder interfaces; callers
// check for the optional ones with a type assertion.
package metrics
