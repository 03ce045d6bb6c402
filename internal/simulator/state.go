package simulator

// SimDevice holds the backend-side state of one simulated unit: the raw
// System and Zone service maps, keyed by wire attribute name.
type SimDevice struct {
	System map[string]any
	Zone   map[string]any
}

// newSimDevice seeds a unit with plausible defaults so a freshly added
// device answers fetches with a full attribute set.
func newSimDevice(id string) *SimDevice {
	return &SimDevice{
		System: map[string]any{
			"system-type":        "ComfortControlPro",
			"system-version":     2,
			"system-id":          id,
			"num-zones":          1,
			"runtime":            1204,
			"modelock":           false,
			"notification":       0,
			"notify-time":        0,
			"humidity":           52.0,
			"air-pressure":       1013.0,
			"temperature":        21.5,
			"indoor-air-quality": 25,
			"iaq-accuracy":       3,
			"fw-app-version":     1537,
			"fw-app-version-str": "6.1.0",
			"boot-time":          1735689600,
			"time-profile-1-name": "Workweek",
			"time-profile-1-data": map[string]any{
				"type": "Buffer",
				"data": []any{0.0, 6.0, 22.0, 2.0},
			},
		},
		Zone: map[string]any{
			"name":               "Living Room",
			"runtime":            1204,
			"last-filter-change": 950,
			"speed":              1.0,
			"zone-index":         0,
			"mode":               "ventilate",
			"mode-deadline":      0,
			"target-temp":        21.0,
			"target-hmdty-level": "fourty-sixty",
			"auto-mode-voc":      true,
			"auto-mode-silent":   false,
			"humidity":           48.0,
			"temperature":        21.3,
			"hmdty-outdoors":     61.0,
			"temp-outdoors":      9.5,
			"time-profile":       0,
		},
	}
}
