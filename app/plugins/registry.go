// Package plugins maps metrics exporter names to their constructors.
package plugins

import (
	"fmt"
	"sort"

	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
)

// MetricsFactory builds a metrics exporter from the metrics configuration.
type MetricsFactory func(cfg coremetrics.Config) (coremetrics.MetricsSink, error)

var MetricsExporters = map[string]MetricsFactory{}

func RegisterMetrics(name string, f MetricsFactory) { MetricsExporters[name] = f }

// BuildMetrics builds the named exporters in order.
func BuildMetrics(cfg coremetrics.Config, names ...string) ([]coremetrics.MetricsSink, error) {
	sinks := make([]coremetrics.MetricsSink, 0, len(names))
	for _, n := range names {
		f, ok := MetricsExporters[n]
		if !ok {
			return nil, fmt.Errorf("unknown metrics exporter %q (known: %v)", n, Names())
		}
		s, err := f(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s exporter: %w", n, err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// Names lists registered exporters, sorted.
func Names() []string {
	out := make([]string, 0, len(MetricsExporters))
	for n := range MetricsExporters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
