// Ccapi-exporter is a Prometheus exporter for getAir ComfortControl
// ventilation devices.
//
// It scrapes the getAir cloud service on every Prometheus poll, refreshing
// the state of all devices bound to the configured account and exposing
// telemetry as gauges on /metrics.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getair-community/ccapi/internal/ccapi"
	"github.com/getair-community/ccapi/internal/config"
	"github.com/getair-community/ccapi/internal/exporter"
	"github.com/getair-community/ccapi/internal/logging"
	"github.com/getair-community/ccapi/internal/version"
)

var (
	listenAddr      string
	credentialsPath string
)

var rootCmd = &cobra.Command{
	Use:     "ccapi-exporter",
	Short:   "Prometheus exporter for getAir ComfortControl devices",
	Version: version.Version,
	RunE:    run,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&listenAddr, "listen", ":9180", "Address to serve metrics on")
	rootCmd.Flags().StringVar(&credentialsPath, "credentials", "", "Path to credentials file (default: config dir)")
}

func run(cmd *cobra.Command, args []string) error {
	path := credentialsPath
	if path == "" {
		var err error
		path, err = config.GetCredentialsPath()
		if err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no credentials at %s. Run 'ccapi-ctl login' first", path)
	}

	client := ccapi.NewClient(path)
	if err := client.Connect(cmd.Context()); err != nil {
		return fmt.Errorf("initial authentication failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(exporter.NewMetricsCollector(client))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ccapi-exporter - see /metrics")
	})

	logging.Info("exporter listening", zap.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, mux)
}

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
