package device

import "go.uber.org/zap"

// Time profiles occupy ten named slots in the System group. Each slot holds
// a display name and a raw schedule blob whose length must be a multiple of
// four bytes (one word per schedule entry).

func (d *Device) timeProfileInRange(number int) bool {
	if number < 1 || number > timeProfileCount {
		d.log.Error("Index of time-profile is out of range",
			zap.Int("index", number), zap.String("device", d.ID()))
		return false
	}
	return true
}

// TimeProfileName returns the name of the specified time profile (1-10), or
// the empty string if the index is out of range.
func (d *Device) TimeProfileName(number int) string {
	if !d.timeProfileInRange(number) {
		return ""
	}
	return asString(d.system[timeProfileNameKey(number)])
}

// SetTimeProfileName sets the name for the specified time profile (1-10).
// The name must not exceed 15 characters. Out-of-range indices are logged
// and ignored.
func (d *Device) SetTimeProfileName(number int, value string) {
	if !d.timeProfileInRange(number) {
		return
	}
	key := timeProfileNameKey(number)
	d.system[key] = value
	d.recordChange(serviceSystem, key, value)
}

// TimeProfileData returns the raw schedule data of the specified time
// profile (1-10), or an empty slice if the index is out of range.
func (d *Device) TimeProfileData(number int) []byte {
	if !d.timeProfileInRange(number) {
		return []byte{}
	}
	return bufferFromValue(d.system[timeProfileDataKey(number)])
}

// SetTimeProfileData updates the raw schedule data of the specified time
// profile (1-10). Use with caution, as incorrect values may lead to
// unintended system behavior. A length that is not a multiple of four is
// accepted with a warning.
func (d *Device) SetTimeProfileData(number int, value []byte) {
	if !d.timeProfileInRange(number) {
		return
	}
	if len(value)%4 != 0 {
		d.log.Warn("Time-profile data length should be a multiple of four",
			zap.Int("index", number), zap.Int("length", len(value)))
	}
	key := timeProfileDataKey(number)
	buf := Buffer(value)
	d.system[key] = buf
	d.recordChange(serviceSystem, key, buf)
}
