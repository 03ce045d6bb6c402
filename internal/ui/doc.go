// Package ui implements the interactive terminal screens built on Bubble Tea.
//
// The watch screen shows live telemetry for one ventilation device and lets
// the user adjust fan speed, operating mode and the active time profile. Edits
// accumulate in the device mirror and are pushed to the cloud only when the
// user applies them, so a failed push never loses local changes.
package ui
