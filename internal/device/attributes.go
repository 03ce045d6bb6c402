package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Wire keys for the System service. The backend keys every attribute with
// dashes; local (exported) names use underscores. The tables below are the
// single source of truth for which keys a fetch may merge and how a snapshot
// is labeled - there is no reflection over struct fields.
const (
	keySystemType       = "system-type"
	keySystemVersion    = "system-version"
	keySystemID         = "system-id"
	keyNumZones         = "num-zones"
	keySystemRuntime    = "runtime"
	keyModelock         = "modelock"
	keyNotification     = "notification"
	keyNotifyTime       = "notify-time"
	keySystemHumidity   = "humidity"
	keyAirPressure      = "air-pressure"
	keySystemTemp       = "temperature"
	keyIndoorAirQuality = "indoor-air-quality"
	keyIAQAccuracy      = "iaq-accuracy"
	keyFwAppVersion     = "fw-app-version"
	keyFwAppVersionStr  = "fw-app-version-str"
	keyBootTime         = "boot-time"
)

// Wire keys for the Zone service.
const (
	keyZoneName         = "name"
	keyZoneRuntime      = "runtime"
	keyLastFilterChange = "last-filter-change"
	keySpeed            = "speed"
	keyZoneIndex        = "zone-index"
	keyMode             = "mode"
	keyModeDeadline     = "mode-deadline"
	keyTargetTemp       = "target-temp"
	keyTargetHmdtyLevel = "target-hmdty-level"
	keyAutoModeVOC      = "auto-mode-voc"
	keyAutoModeSilent   = "auto-mode-silent"
	keyZoneHumidity     = "humidity"
	keyZoneTemp         = "temperature"
	keyHmdtyOutdoors    = "hmdty-outdoors"
	keyTempOutdoors     = "temp-outdoors"
	keyTimeProfile      = "time-profile"
)

// timeProfileCount is the number of named time profile slots on a system.
const timeProfileCount = 10

// systemKeys lists every known System attribute, time profile slots included.
var systemKeys = buildSystemKeys()

// zoneKeys lists every known Zone attribute.
var zoneKeys = []string{
	keyZoneName,
	keyZoneRuntime,
	keyLastFilterChange,
	keySpeed,
	keyZoneIndex,
	keyMode,
	keyModeDeadline,
	keyTargetTemp,
	keyTargetHmdtyLevel,
	keyAutoModeVOC,
	keyAutoModeSilent,
	keyZoneHumidity,
	keyZoneTemp,
	keyHmdtyOutdoors,
	keyTempOutdoors,
	keyTimeProfile,
}

func buildSystemKeys() []string {
	keys := []string{
		keySystemType,
		keySystemVersion,
		keySystemID,
		keyNumZones,
		keySystemRuntime,
		keyModelock,
		keyNotification,
		keyNotifyTime,
		keySystemHumidity,
		keyAirPressure,
		keySystemTemp,
		keyIndoorAirQuality,
		keyIAQAccuracy,
		keyFwAppVersion,
		keyFwAppVersionStr,
		keyBootTime,
	}
	for i := 1; i <= timeProfileCount; i++ {
		keys = append(keys, timeProfileNameKey(i), timeProfileDataKey(i))
	}
	return keys
}

func timeProfileNameKey(number int) string {
	return fmt.Sprintf("time-profile-%d-name", number)
}

func timeProfileDataKey(number int) string {
	return fmt.Sprintf("time-profile-%d-data", number)
}

// localName converts a wire key to its local (snapshot) form.
func localName(wireKey string) string {
	return strings.ReplaceAll(wireKey, "-", "_")
}

// Coercion helpers for the raw key/value state. The backend is loose about
// numeric types, so accept what json.Unmarshal may produce.

func asString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	}
	return ""
}

func asFloat(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		if typed == "" {
			return 0
		}
		if parsed, err := strconv.ParseFloat(typed, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func asInt(v any) int64 {
	return int64(asFloat(v))
}

func asBool(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case float64:
		return typed != 0
	case string:
		parsed, err := strconv.ParseBool(typed)
		return err == nil && parsed
	}
	return false
}
