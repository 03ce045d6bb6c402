package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/getair-community/ccapi/internal/ccapi"
)

// scrapeTimeout bounds one enumeration-plus-fetch pass against the cloud.
const scrapeTimeout = 10 * time.Second

// MetricsCollector exposes ComfortControl telemetry as Prometheus metrics.
// Each scrape enumerates the account's devices, refreshes their mirrors and
// reports per-device gauges labeled by identifier.
type MetricsCollector struct {
	client *ccapi.Client

	// mu serializes scrapes: Prometheus serves overlapping /metrics
	// requests, but the device mirrors assume one caller at a time.
	mu sync.Mutex

	scrapeSuccess prometheus.Gauge
	lastSuccess   prometheus.Gauge
	deviceCount   prometheus.Gauge
	info          *prometheus.GaugeVec

	tempCelsius        *prometheus.GaugeVec
	humidityPercent    *prometheus.GaugeVec
	outdoorTempCelsius *prometheus.GaugeVec
	outdoorHumidity    *prometheus.GaugeVec
	airPressureHpa     *prometheus.GaugeVec
	airQualityIndex    *prometheus.GaugeVec
	fanSpeedLevel      *prometheus.GaugeVec
	runtimeHours       *prometheus.GaugeVec
	filterAgeHours     *prometheus.GaugeVec
	bootTimeSeconds    *prometheus.GaugeVec
}

// NewMetricsCollector creates a collector scraping through the given client.
func NewMetricsCollector(client *ccapi.Client) *MetricsCollector {
	labels := []string{"device"}
	infoLabels := []string{"device", "name", "system_type", "firmware"}
	return &MetricsCollector{
		client: client,
		scrapeSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ccapi_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ccapi_last_success_timestamp_seconds",
			Help: "Last successful scrape timestamp (epoch seconds)",
		}),
		deviceCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ccapi_device_count",
			Help: "Number of devices bound to the account",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_device_info",
			Help: "ComfortControl device info",
		}, infoLabels),
		tempCelsius: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_temperature_celsius",
			Help: "Indoor temperature (degrees C)",
		}, labels),
		humidityPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_humidity_percent",
			Help: "Indoor relative humidity (percent)",
		}, labels),
		outdoorTempCelsius: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_outdoor_temperature_celsius",
			Help: "Outdoor temperature (degrees C)",
		}, labels),
		outdoorHumidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_outdoor_humidity_percent",
			Help: "Outdoor relative humidity (percent)",
		}, labels),
		airPressureHpa: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_air_pressure_hpa",
			Help: "Air pressure (hPa)",
		}, labels),
		airQualityIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_air_quality_index",
			Help: "Indoor air quality, 0-200 (0 = excellent, fewer VOCs)",
		}, labels),
		fanSpeedLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_fan_speed_level",
			Help: "Fan speed level (0-4)",
		}, labels),
		runtimeHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_runtime_hours",
			Help: "Total zone runtime (hours)",
		}, labels),
		filterAgeHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_filter_age_hours",
			Help: "Runtime since the last filter change (hours)",
		}, labels),
		bootTimeSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ccapi_boot_timestamp_seconds",
			Help: "System boot time (epoch seconds)",
		}, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.scrapeSuccess.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.deviceCount.Describe(ch)
	c.info.Describe(ch)
	c.tempCelsius.Describe(ch)
	c.humidityPercent.Describe(ch)
	c.outdoorTempCelsius.Describe(ch)
	c.outdoorHumidity.Describe(ch)
	c.airPressureHpa.Describe(ch)
	c.airQualityIndex.Describe(ch)
	c.fanSpeedLevel.Describe(ch)
	c.runtimeHours.Describe(ch)
	c.filterAgeHours.Describe(ch)
	c.bootTimeSeconds.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	devices, err := c.client.Devices(ctx)
	if err != nil {
		c.scrapeSuccess.Set(0)
		c.collectAll(ch)
		return
	}

	c.scrapeSuccess.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))
	c.deviceCount.Set(float64(len(devices)))

	c.info.Reset()
	for _, dev := range devices {
		// A failed refresh leaves the previous mirror values in place;
		// stale gauges beat absent ones for a polling exporter.
		dev.Fetch(ctx)

		id := dev.ID()
		c.info.With(prometheus.Labels{
			"device":      id,
			"name":        dev.Name(),
			"system_type": dev.SystemType(),
			"firmware":    dev.FirmwareVersion(),
		}).Set(1)

		c.tempCelsius.WithLabelValues(id).Set(dev.Temperature())
		c.humidityPercent.WithLabelValues(id).Set(dev.Humidity())
		c.outdoorTempCelsius.WithLabelValues(id).Set(dev.OutdoorTemperature())
		c.outdoorHumidity.WithLabelValues(id).Set(dev.OutdoorHumidity())
		c.airPressureHpa.WithLabelValues(id).Set(dev.AirPressure())
		c.airQualityIndex.WithLabelValues(id).Set(dev.AirQuality())
		c.fanSpeedLevel.WithLabelValues(id).Set(dev.Speed())
		c.runtimeHours.WithLabelValues(id).Set(float64(dev.Runtime()))
		c.filterAgeHours.WithLabelValues(id).Set(float64(dev.Runtime() - dev.LastFilterChange()))
		c.bootTimeSeconds.WithLabelValues(id).Set(float64(dev.BootTime()))
	}

	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.scrapeSuccess.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.deviceCount.Collect(ch)
	c.info.Collect(ch)
	c.tempCelsius.Collect(ch)
	c.humidityPercent.Collect(ch)
	c.outdoorTempCelsius.Collect(ch)
	c.outdoorHumidity.Collect(ch)
	c.airPressureHpa.Collect(ch)
	c.airQualityIndex.Collect(ch)
	c.fanSpeedLevel.Collect(ch)
	c.runtimeHours.Collect(ch)
	c.filterAgeHours.Collect(ch)
	c.bootTimeSeconds.Collect(ch)
}
