// Package exporter exposes ComfortControl telemetry as Prometheus metrics.
//
// The collector scrapes the cloud account on every Prometheus poll: it
// enumerates the bound devices, refreshes their mirrors and reports
// temperature, humidity, air quality, fan speed and filter age as per-device
// gauges, plus scrape health metrics.
package exporter
