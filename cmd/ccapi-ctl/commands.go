package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/getair-community/ccapi/internal/ccapi"
	"github.com/getair-community/ccapi/internal/config"
	"github.com/getair-community/ccapi/internal/device"
	"github.com/getair-community/ccapi/internal/discovery"
	"github.com/getair-community/ccapi/internal/ui"
)

// Command flags
var (
	credentialsPath string
	outputFormat    string

	loginAuthURL  string
	loginAPIURL   string
	loginUsername string

	scanTimeout int

	setSpeed    float64
	setMode     string
	setProfile  int
	setName     string
	setTemp     float64
	setHumidity string
	setVOC      bool
	setSilent   bool

	profileName string
	profileData string

	watchInterval int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "Path to credentials file (default: config dir)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
}

// resolveCredentialsPath honors --credentials, falling back to the config dir.
func resolveCredentialsPath() (string, error) {
	if credentialsPath != "" {
		return credentialsPath, nil
	}
	return config.GetCredentialsPath()
}

func newClient() (*ccapi.Client, error) {
	path, err := resolveCredentialsPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no credentials at %s. Run 'ccapi-ctl login' first", path)
	}
	return ccapi.NewClient(path), nil
}

// loginCmd stores account credentials for the other commands
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store account credentials",
	Long: `Store the getAir account credentials used by all other commands.

The username and password are read interactively unless given via flags.
Credentials are verified against the cloud service before being saved.`,
	Example: `  # Interactive login
  ccapi-ctl login --auth-url https://auth.example.com/login --api-url https://api.example.com/

  # Non-interactive username, password prompted
  ccapi-ctl login --auth-url ... --api-url ... --username me@example.com`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginAuthURL, "auth-url", "", "Authentication endpoint URL (required)")
	loginCmd.Flags().StringVar(&loginAPIURL, "api-url", "", "API base URL (required)")
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Account username")
	loginCmd.MarkFlagRequired("auth-url")
	loginCmd.MarkFlagRequired("api-url")
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := loginUsername
	if username == "" {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	fmt.Print("Password: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(secret) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	path, err := resolveCredentialsPath()
	if err != nil {
		return err
	}

	creds := &config.Credentials{
		AuthURL:  loginAuthURL,
		APIURL:   loginAPIURL,
		Username: username,
		Password: string(secret),
	}
	if err := config.SaveCredentials(path, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	// Verify before claiming success; remove the file again if the
	// handshake fails so a typo does not leave broken credentials behind.
	client := ccapi.NewClient(path)
	if err := client.Connect(cmd.Context()); err != nil {
		os.Remove(path)
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("✓ Logged in, credentials saved to %s\n", path)
	return nil
}

// devicesCmd lists the devices bound to the account
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices bound to the account",
	Long: `Enumerate the ComfortControl devices bound to the stored account.

Each device is remembered in the local registry so it can be given a
label with 'ccapi-ctl label'.`,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	devices, err := client.Devices(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	registry, regErr := config.LoadRegistry()
	if regErr == nil {
		for _, dev := range devices {
			registry.EnsureDevice(dev.ID())
		}
		if err := registry.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save registry: %v\n", err)
		}
	}

	if len(devices) == 0 {
		fmt.Println("No devices bound to this account.")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	for i, dev := range devices {
		fmt.Printf("%d. %s\n", i+1, dev.ID())
		if regErr == nil {
			if entry := registry.GetDevice(dev.ID()); entry != nil && entry.Label != "" {
				fmt.Printf("   Label:    %s\n", entry.Label)
			}
		}
		if name := dev.Name(); name != "" {
			fmt.Printf("   Name:     %s\n", name)
		}
		if systemType := dev.SystemType(); systemType != "" {
			fmt.Printf("   Type:     %s\n", systemType)
		}
		if fw := dev.FirmwareVersion(); fw != "" {
			fmt.Printf("   Firmware: %s\n", fw)
		}
		fmt.Println()
	}

	fmt.Println("Use 'ccapi-ctl show <device>' to view a device")
	fmt.Println("Use 'ccapi-ctl watch <device>' for the live dashboard")
	return nil
}

// showCmd displays the state of one device
var showCmd = &cobra.Command{
	Use:   "show <device>",
	Short: "Show device state",
	Long: `Display the current state of one ComfortControl device.

The device identifier accepts the forms printed by 'ccapi-ctl devices'
as well as colon/dash separated hardware notation.`,
	Example: `  ccapi-ctl show A1B2C3D4E5F6

  # JSON output for scripting
  ccapi-ctl show a1:b2:c3:d4:e5:f6 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	dev, err := client.Device(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", args[0], err)
	}
	dev.Fetch(cmd.Context())

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(dev.Snapshot(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		printDetailed(dev)
	}
	return nil
}

func printDetailed(dev *device.Device) {
	fmt.Printf("Device %s\n\n", dev.ID())

	fmt.Println("System:")
	fmt.Printf("  Type:         %s\n", dev.SystemType())
	fmt.Printf("  Firmware:     %s\n", dev.FirmwareVersion())
	fmt.Printf("  Zones:        %d\n", dev.NumZones())
	fmt.Printf("  Runtime:      %d h\n", dev.Runtime())
	fmt.Printf("  Air pressure: %.0f hPa\n", dev.AirPressure())
	fmt.Printf("  Air quality:  %.0f\n", dev.AirQuality())
	if bootTime := dev.BootTime(); bootTime > 0 {
		fmt.Printf("  Booted:       %s\n", time.Unix(bootTime, 0).Format(time.RFC1123))
	}

	fmt.Println("\nZone:")
	fmt.Printf("  Name:            %s\n", dev.Name())
	fmt.Printf("  Speed:           %.0f\n", dev.Speed())
	fmt.Printf("  Mode:            %s\n", dev.Mode())
	fmt.Printf("  Time profile:    %d\n", dev.ActiveTimeProfile())
	fmt.Printf("  Temperature:     %.1f °C (outdoors %.1f °C)\n", dev.Temperature(), dev.OutdoorTemperature())
	fmt.Printf("  Humidity:        %.0f %% (outdoors %.0f %%)\n", dev.Humidity(), dev.OutdoorHumidity())
	fmt.Printf("  Target temp:     %.1f °C\n", dev.TargetTemp())
	fmt.Printf("  Humidity target: %s\n", dev.TargetHumidityLevel())
	fmt.Printf("  Auto VOC:        %v\n", dev.AutoModeVOC())
	fmt.Printf("  Auto silent:     %v\n", dev.AutoModeSilent())
	fmt.Printf("  Filter age:      %d h\n", dev.Runtime()-dev.LastFilterChange())
}

// setCmd changes device settings
var setCmd = &cobra.Command{
	Use:   "set <device>",
	Short: "Change device settings",
	Long: `Change ventilation settings on one device.

Only the settings given as flags are changed. All changes are pushed in a
single update; nothing is sent when no flag is given.`,
	Example: `  # Fan speed and mode in one update
  ccapi-ctl set A1B2C3D4E5F6 --speed 2 --mode night

  # Switch to automatic mode
  ccapi-ctl set A1B2C3D4E5F6 --mode auto

  # Select time profile 3
  ccapi-ctl set A1B2C3D4E5F6 --time-profile 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().Float64Var(&setSpeed, "speed", 0, "Fan speed level (0-4)")
	setCmd.Flags().StringVar(&setMode, "mode", "", "Operating mode (ventilate, ventilate_hr, ventilate_inv, night, auto, rush)")
	setCmd.Flags().IntVar(&setProfile, "time-profile", 0, "Active time profile (1-10)")
	setCmd.Flags().StringVar(&setName, "name", "", "Zone name")
	setCmd.Flags().Float64Var(&setTemp, "target-temp", 0, "Target temperature in °C")
	setCmd.Flags().StringVar(&setHumidity, "humidity-level", "", "Target humidity band (thirty-fifty, fourty-sixty, fifty-seventy)")
	setCmd.Flags().BoolVar(&setVOC, "auto-voc", false, "Consider air quality in auto mode")
	setCmd.Flags().BoolVar(&setSilent, "auto-silent", false, "Limit fan speed at night in auto mode")
}

func runSet(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	dev, err := client.Device(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", args[0], err)
	}

	flags := cmd.Flags()
	if flags.Changed("speed") {
		dev.SetSpeed(setSpeed)
	}
	if flags.Changed("mode") {
		dev.SetMode(setMode)
	}
	if flags.Changed("time-profile") {
		dev.SetActiveTimeProfile(int64(setProfile))
	}
	if flags.Changed("name") {
		dev.SetName(setName)
	}
	if flags.Changed("target-temp") {
		dev.SetTargetTemp(setTemp)
	}
	if flags.Changed("humidity-level") {
		dev.SetTargetHumidityLevel(setHumidity)
	}
	if flags.Changed("auto-voc") {
		dev.SetAutoModeVOC(setVOC)
	}
	if flags.Changed("auto-silent") {
		dev.SetAutoModeSilent(setSilent)
	}

	if !dev.Pending() {
		fmt.Println("Nothing to change. Pass at least one setting flag.")
		return nil
	}

	if !dev.Push(cmd.Context()) {
		return fmt.Errorf("failed to apply changes to %s", dev.ID())
	}

	fmt.Printf("✓ Changes applied to %s\n", dev.ID())
	return nil
}

// profileCmd inspects and edits weekly time profiles
var profileCmd = &cobra.Command{
	Use:   "profile <device> <number>",
	Short: "Show or edit a time profile",
	Long: `Show or edit one of the ten weekly time profiles of a device.

Without flags the profile name and schedule data are printed. The schedule
data is an opaque block of 4-byte interval records, given and printed as
hex.`,
	Example: `  # Show profile 1
  ccapi-ctl profile A1B2C3D4E5F6 1

  # Rename profile 2
  ccapi-ctl profile A1B2C3D4E5F6 2 --name "Work week"

  # Replace the schedule of profile 2
  ccapi-ctl profile A1B2C3D4E5F6 2 --data 0a1e02031e1e0403`,
	Args: cobra.ExactArgs(2),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "New profile name")
	profileCmd.Flags().StringVar(&profileData, "data", "", "New schedule data as hex (length multiple of 4 bytes)")
}

func runProfile(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[1])
	if err != nil || number < 1 || number > 10 {
		return ccapi.NewOutOfRangeError(fmt.Sprintf("profile number must be 1-10, got %q", args[1]))
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	dev, err := client.Device(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", args[0], err)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		dev.SetTimeProfileName(number, profileName)
	}
	if flags.Changed("data") {
		data, err := hex.DecodeString(profileData)
		if err != nil {
			return fmt.Errorf("invalid schedule data: %w", err)
		}
		if len(data)%4 != 0 {
			return fmt.Errorf("schedule data must be a multiple of 4 bytes, got %d", len(data))
		}
		dev.SetTimeProfileData(number, data)
	}

	if dev.Pending() {
		if !dev.Push(cmd.Context()) {
			return fmt.Errorf("failed to apply profile changes to %s", dev.ID())
		}
		fmt.Printf("✓ Profile %d updated on %s\n", number, dev.ID())
		return nil
	}

	dev.Fetch(cmd.Context())
	fmt.Printf("Profile %d on %s\n", number, dev.ID())
	fmt.Printf("  Name: %s\n", dev.TimeProfileName(number))
	fmt.Printf("  Data: %s\n", hex.EncodeToString(dev.TimeProfileData(number)))
	return nil
}

// labelCmd assigns a local label to a device
var labelCmd = &cobra.Command{
	Use:   "label <device> <label>",
	Short: "Assign a local label to a device",
	Long: `Assign a human-friendly label to a device in the local registry.

Labels are stored on this machine only and shown by 'ccapi-ctl devices'.`,
	Args: cobra.ExactArgs(2),
	RunE: runLabel,
}

func runLabel(cmd *cobra.Command, args []string) error {
	id := device.NormalizeID(args[0])
	if len(id) != 12 {
		return fmt.Errorf("invalid device identifier %q", args[0])
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	entry := registry.EnsureDevice(id)
	entry.Label = args[1]
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("✓ %s labeled %q\n", id, args[1])
	return nil
}

// scanCmd discovers devices on the local network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the local network for ComfortControl devices",
	Long: `Scan for ComfortControl devices using mDNS/DNS-SD discovery.

Cloud access is not needed for this command. Discovered identifiers can be
used with the other commands once the devices are bound to the account.`,
	Example: `  # Scan for 10 seconds (default)
  ccapi-ctl scan

  # Quick 3-second scan
  ccapi-ctl scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for ComfortControl devices (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered and on the same network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Identifier < devices[j].Identifier
	})

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	for i, dev := range devices {
		fmt.Printf("%d. %s\n", i+1, dev.Hostname)
		fmt.Printf("   Identifier: %s\n", dev.Identifier)
		fmt.Printf("   IP:         %s:%d\n", dev.IP, dev.Port)
		if len(dev.Metadata) > 0 {
			fmt.Printf("   Metadata:   %v\n", dev.Metadata)
		}
		fmt.Println()
	}
	return nil
}

// watchCmd launches the live dashboard for one device
var watchCmd = &cobra.Command{
	Use:   "watch <device>",
	Short: "Live dashboard for one device",
	Long: `Open a live terminal dashboard for one device.

The dashboard polls the cloud service periodically and lets you adjust fan
speed, operating mode and the active time profile. Changes are applied with
enter and are kept locally if the push fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 10, "Refresh interval in seconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	dev, err := client.Device(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", args[0], err)
	}

	model := ui.NewWatchModel(dev, time.Duration(watchInterval)*time.Second)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
