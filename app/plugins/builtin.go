package plugins

import (
	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
	inframetrics "github.com/kilianp07/voicedispatch/infra/metrics"
)

func init() {
	RegisterMetrics("prometheus", func(coremetrics.Config) (coremetrics.MetricsSink, error) {
		return inframetrics.NewPromSink()
	})
	RegisterMetrics("influx", func(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
		return inframetrics.NewInfluxSinkWithFallback(cfg), nil
	})
}
