package device

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/getair-community/ccapi/internal/logging"
)

// Executor is the request surface a Device needs from the API client:
// authenticated GET and PUT against paths relative to the API base URL.
// Results are decoded JSON values; failures are returned as errors, never
// panics.
type Executor interface {
	Get(ctx context.Context, path string) (any, error)
	Put(ctx context.Context, path string, body any) (any, error)
}

// service selects one of the two attribute groups a device exposes.
type service int

const (
	serviceSystem service = iota
	serviceZone
)

// Device is a local mirror of one ComfortControl unit: the System and Zone
// attribute groups as raw wire key/value state, plus the set of keys changed
// locally since the last successful push.
//
// A Device is not safe for concurrent use; like the backend session model it
// assumes one logical caller at a time.
type Device struct {
	// AutoApply, when enabled, pushes every recorded change to the backend
	// immediately instead of batching until Push or Update.
	AutoApply bool

	// ApplyTimeout bounds the pushes AutoApply triggers from inside
	// setters, which carry no caller context. Zero means no deadline.
	ApplyTimeout time.Duration

	id   string
	exec Executor
	log  *zap.Logger

	system map[string]any
	zone   map[string]any

	systemChanged map[string]any
	zoneChanged   map[string]any
}

// New creates a mirror for the device with the given identifier (12 hex
// characters, separators tolerated) and immediately fetches its state.
// A failed initial fetch leaves the attribute groups empty; it does not fail
// construction.
func New(ctx context.Context, id string, exec Executor) *Device {
	d := &Device{
		id:            NormalizeID(id),
		exec:          exec,
		log:           logging.GetLogger().Named("device"),
		system:        make(map[string]any),
		zone:          make(map[string]any),
		systemChanged: make(map[string]any),
		zoneChanged:   make(map[string]any),
	}

	// The identity is fixed at construction; keep the wire form in the
	// System group so a snapshot always carries it, fetched or not.
	if buf, err := EncodeIdentifier(d.id); err == nil {
		d.system[keySystemID] = buf
	}

	d.Fetch(ctx)
	return d
}

// ID returns the canonical device identifier (12 uppercase hex characters),
// decoding whichever wire form the System group currently holds.
func (d *Device) ID() string {
	if id, ok := DecodeIdentifier(d.system[keySystemID]); ok && id != "" {
		return id
	}
	return d.id
}

func (d *Device) systemPath() string {
	return fmt.Sprintf("devices/%s/services/System", d.ID())
}

func (d *Device) zonePath() string {
	return fmt.Sprintf("devices/1.%s/services/Zone", d.ID())
}

// Fetch retrieves the latest System and Zone state from the backend and
// merges it into the mirror. The merge is partial: only known keys present
// in the response overwrite local values, everything else is left untouched.
// Returns true only if both groups were retrieved.
func (d *Device) Fetch(ctx context.Context) bool {
	systemData, err := d.exec.Get(ctx, d.systemPath())
	if err != nil {
		d.log.Debug("System fetch failed", zap.String("device", d.ID()), zap.Error(err))
		return false
	}
	if !d.merge(d.system, systemKeys, systemData, "System") {
		return false
	}

	zoneData, err := d.exec.Get(ctx, d.zonePath())
	if err != nil {
		d.log.Debug("Zone fetch failed", zap.String("device", d.ID()), zap.Error(err))
		return false
	}
	return d.merge(d.zone, zoneKeys, zoneData, "Zone")
}

func (d *Device) merge(state map[string]any, keys []string, data any, group string) bool {
	if data == nil {
		d.log.Debug("Empty "+group+" data", zap.String("device", d.ID()))
		return false
	}
	values, ok := data.(map[string]any)
	if !ok {
		d.log.Warn("Unexpected "+group+" response shape", zap.String("device", d.ID()))
		return false
	}
	if len(values) == 0 {
		d.log.Debug("Empty "+group+" data", zap.String("device", d.ID()))
		return false
	}
	for _, key := range keys {
		if value, present := values[key]; present {
			state[key] = value
		}
	}
	return true
}

// Push flushes pending local changes to the backend, System group first.
// A ChangeSet is cleared only after its PUT reports success; on failure it is
// preserved so the changes can be retried, and the Zone group is not
// attempted. An empty ChangeSet issues no network call.
func (d *Device) Push(ctx context.Context) bool {
	if len(d.systemChanged) > 0 {
		if _, err := d.exec.Put(ctx, d.systemPath(), d.systemChanged); err != nil {
			d.log.Error("Error on pushing System values, changes kept pending",
				zap.String("device", d.ID()), zap.Error(err))
			return false
		}
		clear(d.systemChanged)
	}
	if len(d.zoneChanged) > 0 {
		if _, err := d.exec.Put(ctx, d.zonePath(), d.zoneChanged); err != nil {
			d.log.Error("Error on pushing Zone values, changes kept pending",
				zap.String("device", d.ID()), zap.Error(err))
			return false
		}
		clear(d.zoneChanged)
	}
	return true
}

// Update synchronizes the mirror: pending changes are pushed, then the state
// is refetched so local values reflect what the backend actually accepted.
// The fetch is skipped if the push failed.
func (d *Device) Update(ctx context.Context) bool {
	return d.Push(ctx) && d.Fetch(ctx)
}

// Pending reports whether the device holds local changes not yet confirmed
// written to the backend.
func (d *Device) Pending() bool {
	return len(d.systemChanged) > 0 || len(d.zoneChanged) > 0
}

// recordChange stores a local mutation in the group's ChangeSet, keyed by
// the wire-form name. With AutoApply enabled the change is pushed
// immediately.
func (d *Device) recordChange(svc service, wireKey string, value any) bool {
	switch svc {
	case serviceSystem:
		d.systemChanged[wireKey] = value
	case serviceZone:
		d.zoneChanged[wireKey] = value
	default:
		return false
	}
	if d.AutoApply {
		ctx := context.Background()
		if d.ApplyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.ApplyTimeout)
			defer cancel()
		}
		return d.Push(ctx)
	}
	return true
}

// Snapshot serializes the current device state into a nested mapping with
// top-level "System" and "Zone" groups. Every known attribute appears under
// its local (underscore) name; attributes never fetched are nil.
func (d *Device) Snapshot() map[string]map[string]any {
	res := map[string]map[string]any{
		"System": make(map[string]any, len(systemKeys)),
		"Zone":   make(map[string]any, len(zoneKeys)),
	}
	for _, key := range systemKeys {
		res["System"][localName(key)] = d.system[key]
	}
	for _, key := range zoneKeys {
		res["Zone"][localName(key)] = d.zone[key]
	}
	return res
}

// System attribute accessors (read-only telemetry and identity).

// SystemType returns the unit family, either "ComfortControlProBT" or
// "ComfortControlPro".
func (d *Device) SystemType() string {
	return asString(d.system[keySystemType])
}

// FirmwareVersion returns the firmware version string of the device.
func (d *Device) FirmwareVersion() string {
	return asString(d.system[keyFwAppVersionStr])
}

// BootTime returns the system boot time as a unix timestamp in seconds.
func (d *Device) BootTime() int64 {
	return asInt(d.system[keyBootTime])
}

// NumZones returns the number of zones the system manages.
func (d *Device) NumZones() int64 {
	return asInt(d.system[keyNumZones])
}

// AirPressure returns the current air pressure in hPa.
func (d *Device) AirPressure() float64 {
	return asFloat(d.system[keyAirPressure])
}

// AirQuality returns the measured indoor air quality level, 0 to 200
// (0 = excellent air quality, fewer VOCs).
func (d *Device) AirQuality() float64 {
	return asFloat(d.system[keyIndoorAirQuality])
}

// IndoorHumidity returns the humidity percentage measured at the system unit.
func (d *Device) IndoorHumidity() float64 {
	return asFloat(d.system[keySystemHumidity])
}

// IndoorTemperature returns the temperature in degrees C measured at the
// system unit.
func (d *Device) IndoorTemperature() float64 {
	return asFloat(d.system[keySystemTemp])
}

// Zone attribute accessors.

// Runtime returns the total runtime of the zone in hours.
func (d *Device) Runtime() int64 {
	return asInt(d.zone[keyZoneRuntime])
}

// Name returns the zone name.
func (d *Device) Name() string {
	return asString(d.zone[keyZoneName])
}

// SetName sets the zone name (max 64 characters).
func (d *Device) SetName(value string) {
	d.zone[keyZoneName] = value
	d.recordChange(serviceZone, keyZoneName, value)
}

// Humidity returns the current indoor humidity percentage of the zone.
func (d *Device) Humidity() float64 {
	return asFloat(d.zone[keyZoneHumidity])
}

// Temperature returns the current indoor temperature of the zone in degrees C.
func (d *Device) Temperature() float64 {
	return asFloat(d.zone[keyZoneTemp])
}

// OutdoorHumidity returns the current outdoor humidity percentage.
func (d *Device) OutdoorHumidity() float64 {
	return asFloat(d.zone[keyHmdtyOutdoors])
}

// OutdoorTemperature returns the current outdoor temperature in degrees C.
func (d *Device) OutdoorTemperature() float64 {
	return asFloat(d.zone[keyTempOutdoors])
}

// Speed returns the current fan speed level (0.0 to 4.0).
func (d *Device) Speed() float64 {
	return asFloat(d.zone[keySpeed])
}

// SetSpeed sets the fan speed level (0 to 4).
func (d *Device) SetSpeed(value float64) {
	d.zone[keySpeed] = value
	d.recordChange(serviceZone, keySpeed, value)
}

// Mode returns the currently active ventilation mode.
func (d *Device) Mode() string {
	return asString(d.zone[keyMode])
}

// SetMode sets the ventilation mode. One of "ventilate", "ventilate_hr",
// "ventilate_inv", "night", "auto", or "rush".
func (d *Device) SetMode(value string) {
	d.zone[keyMode] = value
	d.recordChange(serviceZone, keyMode, value)
}

// ModeDeadline returns the end time for the current mode as a unix timestamp
// in seconds.
func (d *Device) ModeDeadline() int64 {
	return asInt(d.zone[keyModeDeadline])
}

// SetModeDeadline defines when the current mode should end (unix seconds).
func (d *Device) SetModeDeadline(value int64) {
	d.zone[keyModeDeadline] = value
	d.recordChange(serviceZone, keyModeDeadline, value)
}

// TargetTemp returns the target indoor temperature in degrees C.
func (d *Device) TargetTemp() float64 {
	return asFloat(d.zone[keyTargetTemp])
}

// SetTargetTemp sets the target indoor temperature for climate control.
func (d *Device) SetTargetTemp(value float64) {
	d.zone[keyTargetTemp] = value
	d.recordChange(serviceZone, keyTargetTemp, value)
}

// TargetHumidityLevel returns the selected target humidity range.
func (d *Device) TargetHumidityLevel() string {
	return asString(d.zone[keyTargetHmdtyLevel])
}

// SetTargetHumidityLevel sets the preferred humidity range for automated fan
// control. One of "thirty-fifty", "fourty-sixty", or "fifty-seventy";
// the recommended indoor range is 40-60%.
func (d *Device) SetTargetHumidityLevel(value string) {
	d.zone[keyTargetHmdtyLevel] = value
	d.recordChange(serviceZone, keyTargetHmdtyLevel, value)
}

// AutoModeVOC reports whether VOC-based auto mode is enabled.
func (d *Device) AutoModeVOC() bool {
	return asBool(d.zone[keyAutoModeVOC])
}

// SetAutoModeVOC enables or disables VOC-based auto mode for air quality
// optimization.
func (d *Device) SetAutoModeVOC(value bool) {
	d.zone[keyAutoModeVOC] = value
	d.recordChange(serviceZone, keyAutoModeVOC, value)
}

// AutoModeSilent reports whether silent mode is enabled.
func (d *Device) AutoModeSilent() bool {
	return asBool(d.zone[keyAutoModeSilent])
}

// SetAutoModeSilent enables or disables silent mode to reduce fan noise.
func (d *Device) SetAutoModeSilent(value bool) {
	d.zone[keyAutoModeSilent] = value
	d.recordChange(serviceZone, keyAutoModeSilent, value)
}

// ActiveTimeProfile returns the ID of the active time profile
// (0 = inactive, 1-10 = active profile).
func (d *Device) ActiveTimeProfile() int64 {
	return asInt(d.zone[keyTimeProfile])
}

// SetActiveTimeProfile sets the active time profile ID: 0 to deactivate, or
// 1-10 to select a profile.
func (d *Device) SetActiveTimeProfile(value int64) {
	d.zone[keyTimeProfile] = value
	d.recordChange(serviceZone, keyTimeProfile, value)
}

// LastFilterChange returns the zone runtime at the last filter change, in
// hours.
func (d *Device) LastFilterChange() int64 {
	return asInt(d.zone[keyLastFilterChange])
}

// SetLastFilterChange updates the runtime marker of the last filter change.
func (d *Device) SetLastFilterChange(value int64) {
	d.zone[keyLastFilterChange] = value
	d.recordChange(serviceZone, keyLastFilterChange, value)
}
