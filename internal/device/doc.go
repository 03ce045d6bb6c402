// Package device mirrors the operational state of one ComfortControl unit.
//
// A Device holds the two attribute groups the backend exposes per unit -
// "System" (unit-wide telemetry, firmware, time profile slots) and "Zone"
// (per-zone settings and sensors) - as raw wire key/value state, with typed
// accessors layered on top.
//
// # Synchronization model
//
// Local mutations through the setters do not touch the network; they update
// the mirror and accumulate in a per-group ChangeSet keyed by the wire name.
// Push flushes the pending ChangeSets, Fetch refreshes the mirror from the
// backend (a partial merge: only keys present in the response overwrite
// local state), and Update does both in order:
//
//	dev := device.New(ctx, "001A2B3C4D5E", client)
//	dev.SetMode("auto")
//	dev.SetSpeed(2)
//	if !dev.Update(ctx) {
//	    // changes are still pending and can be retried
//	}
//
// A ChangeSet is cleared only after its PUT succeeds; a failed push keeps
// the pending changes so nothing is silently lost. Setting AutoApply makes
// every setter push immediately instead of batching.
//
// # Wire representation
//
// Attribute keys use dashes on the wire and underscores locally; the mapping
// is a declared table, not reflection. Binary values (device identity, time
// profile schedules) travel as tagged byte buffers, see Buffer.
package device
