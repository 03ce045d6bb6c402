// Ccapi-simd serves a local stand-in for the getAir cloud service.
//
// It speaks the same authentication handshake and device service endpoints
// as the real backend and holds a set of simulated ventilation devices in
// memory. Point ccapi-ctl at it for development and integration testing:
//
//	ccapi-simd --username dev --password dev --device A1B2C3D4E5F6
//	ccapi-ctl login --auth-url http://localhost:8480/auth/login \
//	    --api-url http://localhost:8480/api/ --username dev
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getair-community/ccapi/internal/device"
	"github.com/getair-community/ccapi/internal/logging"
	"github.com/getair-community/ccapi/internal/simulator"
	"github.com/getair-community/ccapi/internal/version"
)

var (
	listenAddr string
	username   string
	password   string
	deviceIDs  []string
)

var rootCmd = &cobra.Command{
	Use:     "ccapi-simd",
	Short:   "Local ComfortControl cloud service simulator",
	Version: version.Version,
	RunE:    run,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&listenAddr, "listen", ":8480", "Address to listen on")
	rootCmd.Flags().StringVar(&username, "username", "dev", "Accepted account username")
	rootCmd.Flags().StringVar(&password, "password", "dev", "Accepted account password")
	rootCmd.Flags().StringSliceVar(&deviceIDs, "device", []string{"A1B2C3D4E5F6"}, "Simulated device identifier (repeatable)")
}

func run(cmd *cobra.Command, args []string) error {
	sim := simulator.New(username, password)
	for _, id := range deviceIDs {
		normalized := device.NormalizeID(id)
		if len(normalized) != 12 {
			return fmt.Errorf("invalid device identifier %q (want 12 hex digits)", id)
		}
		sim.AddDevice(normalized)
	}

	logging.Info("simulator listening",
		zap.String("addr", listenAddr),
		zap.Strings("devices", deviceIDs))
	fmt.Printf("Simulator on %s (auth: %s, devices: %v)\n", listenAddr, simulator.AuthPath, deviceIDs)
	return http.ListenAndServe(listenAddr, sim.Handler())
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
