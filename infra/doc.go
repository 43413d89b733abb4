// Package infra groups the adapters behind the core interfaces: the zerolog
// logger, the Paho mission client and the Prometheus and InfluxDB sinks.
package infra
