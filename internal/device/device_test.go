package device

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

const testID = "A1B2C3D4E5F6"

// fakeExec is an in-memory Executor recording every call it serves.
type fakeExec struct {
	system map[string]any
	zone   map[string]any

	getErr error
	putErr error

	getPaths     []string
	putPaths     []string
	putBodies    []map[string]any
	putDeadlines []bool
}

func newFakeExec() *fakeExec {
	return &fakeExec{
		system: map[string]any{
			"system-type":        "ComfortControlPro",
			"system-id":          testID,
			"num-zones":          float64(1),
			"humidity":           52.0,
			"air-pressure":       1013.0,
			"temperature":        21.5,
			"indoor-air-quality": 25.0,
			"fw-app-version-str": "6.1.0",
			"boot-time":          float64(1735689600),
		},
		zone: map[string]any{
			"name":               "Living Room",
			"runtime":            float64(1204),
			"last-filter-change": float64(950),
			"speed":              1.0,
			"mode":               "ventilate",
			"target-temp":        21.0,
			"target-hmdty-level": "fourty-sixty",
			"auto-mode-voc":      true,
			"humidity":           48.0,
			"temperature":        21.3,
			"hmdty-outdoors":     61.0,
			"temp-outdoors":      9.5,
			"time-profile":       float64(0),
		},
	}
}

func (f *fakeExec) Get(ctx context.Context, path string) (any, error) {
	f.getPaths = append(f.getPaths, path)
	if f.getErr != nil {
		return nil, f.getErr
	}
	switch path {
	case fmt.Sprintf("devices/%s/services/System", testID):
		return f.system, nil
	case fmt.Sprintf("devices/1.%s/services/Zone", testID):
		return f.zone, nil
	}
	return nil, errors.New("unexpected path " + path)
}

func (f *fakeExec) Put(ctx context.Context, path string, body any) (any, error) {
	f.putPaths = append(f.putPaths, path)
	_, hasDeadline := ctx.Deadline()
	f.putDeadlines = append(f.putDeadlines, hasDeadline)
	changes, _ := body.(map[string]any)
	// Copy: the device clears its ChangeSet after a successful push.
	recorded := make(map[string]any, len(changes))
	for k, v := range changes {
		recorded[k] = v
	}
	f.putBodies = append(f.putBodies, recorded)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return nil, nil
}

func TestNew_FetchesState(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	if got := dev.ID(); got != testID {
		t.Errorf("ID() = %s, want %s", got, testID)
	}
	if got := dev.Name(); got != "Living Room" {
		t.Errorf("Name() = %q, want %q", got, "Living Room")
	}
	if got := dev.Speed(); got != 1.0 {
		t.Errorf("Speed() = %v, want 1", got)
	}
	if got := dev.SystemType(); got != "ComfortControlPro" {
		t.Errorf("SystemType() = %q, want ComfortControlPro", got)
	}
	if got := dev.Runtime(); got != 1204 {
		t.Errorf("Runtime() = %d, want 1204", got)
	}
	if len(exec.getPaths) != 2 {
		t.Errorf("construction issued %d GETs, want 2", len(exec.getPaths))
	}
}

func TestNew_ToleratesFetchFailure(t *testing.T) {
	exec := newFakeExec()
	exec.getErr = errors.New("backend down")

	dev := New(context.Background(), testID, exec)
	if dev == nil {
		t.Fatal("New() returned nil on fetch failure")
	}
	// Identity survives even though nothing was fetched.
	if got := dev.ID(); got != testID {
		t.Errorf("ID() = %s, want %s", got, testID)
	}
	if got := dev.Name(); got != "" {
		t.Errorf("Name() = %q, want empty on unfetched mirror", got)
	}
}

func TestNew_NormalizesIdentifier(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), "a1:b2:c3:d4:e5:f6", exec)

	if got := dev.ID(); got != testID {
		t.Errorf("ID() = %s, want %s", got, testID)
	}
}

func TestPush_NoCallWhenClean(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	if !dev.Push(context.Background()) {
		t.Error("Push() on clean device = false, want true")
	}
	if len(exec.putPaths) != 0 {
		t.Errorf("Push() on clean device issued %d PUTs, want 0", len(exec.putPaths))
	}
}

func TestPush_SendsOnlyChangedKeys(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetMode("auto")

	if !dev.Pending() {
		t.Fatal("Pending() = false after SetMode")
	}
	if !dev.Push(context.Background()) {
		t.Fatal("Push() = false, want true")
	}

	if len(exec.putBodies) != 1 {
		t.Fatalf("Push() issued %d PUTs, want 1", len(exec.putBodies))
	}
	body := exec.putBodies[0]
	if len(body) != 1 || body["mode"] != "auto" {
		t.Errorf("Push() body = %v, want {mode: auto}", body)
	}
	if dev.Pending() {
		t.Error("Pending() = true after successful push")
	}
}

func TestDirtyTracking_LatestValueWins(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetSpeed(2)
	dev.SetSpeed(3)

	if !dev.Push(context.Background()) {
		t.Fatal("Push() = false, want true")
	}
	if len(exec.putBodies) != 1 {
		t.Fatalf("Push() issued %d PUTs, want 1", len(exec.putBodies))
	}
	if got := exec.putBodies[0]["speed"]; got != 3.0 {
		t.Errorf("pushed speed = %v, want 3", got)
	}
}

func TestPush_FailureKeepsChanges(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetSpeed(2)
	exec.putErr = errors.New("backend down")

	if dev.Push(context.Background()) {
		t.Error("Push() = true on backend error, want false")
	}
	if !dev.Pending() {
		t.Error("Pending() = false after failed push, changes lost")
	}

	// Retry after the backend recovers flushes the same change.
	exec.putErr = nil
	if !dev.Push(context.Background()) {
		t.Fatal("retry Push() = false, want true")
	}
	if got := exec.putBodies[len(exec.putBodies)-1]["speed"]; got != 2.0 {
		t.Errorf("retried speed = %v, want 2", got)
	}
	if dev.Pending() {
		t.Error("Pending() = true after successful retry")
	}
}

func TestPush_SystemBeforeZone(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetTimeProfileName(1, "Workweek")
	dev.SetSpeed(2)

	if !dev.Push(context.Background()) {
		t.Fatal("Push() = false, want true")
	}
	if len(exec.putPaths) != 2 {
		t.Fatalf("Push() issued %d PUTs, want 2", len(exec.putPaths))
	}
	wantSystem := fmt.Sprintf("devices/%s/services/System", testID)
	wantZone := fmt.Sprintf("devices/1.%s/services/Zone", testID)
	if exec.putPaths[0] != wantSystem {
		t.Errorf("first PUT path = %s, want %s", exec.putPaths[0], wantSystem)
	}
	if exec.putPaths[1] != wantZone {
		t.Errorf("second PUT path = %s, want %s", exec.putPaths[1], wantZone)
	}
}

func TestPush_SystemFailureSkipsZone(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetTimeProfileName(1, "Workweek")
	dev.SetSpeed(2)
	exec.putErr = errors.New("backend down")

	if dev.Push(context.Background()) {
		t.Error("Push() = true on backend error, want false")
	}
	if len(exec.putPaths) != 1 {
		t.Errorf("failed Push() issued %d PUTs, want 1 (Zone not attempted)", len(exec.putPaths))
	}
	if !dev.Pending() {
		t.Error("Pending() = false, both groups should stay dirty")
	}
}

func TestFetch_PartialMerge(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	// The backend answers with a subset plus an unknown key. Only the known
	// subset may overwrite local state.
	exec.zone = map[string]any{
		"speed":       3.0,
		"exotic-attr": "ignored",
	}

	if !dev.Fetch(context.Background()) {
		t.Fatal("Fetch() = false, want true")
	}
	if got := dev.Speed(); got != 3.0 {
		t.Errorf("Speed() = %v, want 3 after merge", got)
	}
	if got := dev.Name(); got != "Living Room" {
		t.Errorf("Name() = %q, absent key must not be erased", got)
	}
	snapshot := dev.Snapshot()
	if _, ok := snapshot["Zone"]["exotic_attr"]; ok {
		t.Error("unknown key leaked into the mirror")
	}
}

func TestFetch_EmptyResponse(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	exec.system = map[string]any{}
	if dev.Fetch(context.Background()) {
		t.Error("Fetch() = true on empty System response, want false")
	}
	// Prior state stays intact.
	if got := dev.SystemType(); got != "ComfortControlPro" {
		t.Errorf("SystemType() = %q after empty response, want preserved value", got)
	}
}

func TestUpdate_SkipsFetchWhenPushFails(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)
	getsAfterNew := len(exec.getPaths)

	dev.SetSpeed(2)
	exec.putErr = errors.New("backend down")

	if dev.Update(context.Background()) {
		t.Error("Update() = true on push failure, want false")
	}
	if len(exec.getPaths) != getsAfterNew {
		t.Error("Update() fetched despite failed push")
	}
}

func TestAutoApply(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)
	dev.AutoApply = true

	dev.SetSpeed(2)

	if len(exec.putPaths) != 1 {
		t.Fatalf("AutoApply issued %d PUTs, want 1", len(exec.putPaths))
	}
	if got := exec.putBodies[0]["speed"]; got != 2.0 {
		t.Errorf("AutoApply pushed speed = %v, want 2", got)
	}
	if dev.Pending() {
		t.Error("Pending() = true after AutoApply push")
	}
}

func TestAutoApply_PushTimeout(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)
	dev.AutoApply = true

	dev.SetSpeed(2)
	if exec.putDeadlines[0] {
		t.Error("AutoApply push carried a deadline with ApplyTimeout unset")
	}

	dev.ApplyTimeout = time.Second
	dev.SetSpeed(3)
	if len(exec.putDeadlines) != 2 {
		t.Fatalf("AutoApply issued %d PUTs, want 2", len(exec.putDeadlines))
	}
	if !exec.putDeadlines[1] {
		t.Error("AutoApply push carried no deadline despite ApplyTimeout")
	}
}

func TestSnapshot(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	snapshot := dev.Snapshot()

	system, ok := snapshot["System"]
	if !ok {
		t.Fatal("Snapshot() missing System group")
	}
	zone, ok := snapshot["Zone"]
	if !ok {
		t.Fatal("Snapshot() missing Zone group")
	}

	// Wire keys appear under their local underscore names.
	if got := zone["target_hmdty_level"]; got != "fourty-sixty" {
		t.Errorf("snapshot target_hmdty_level = %v, want fourty-sixty", got)
	}
	if got := system["system_type"]; got != "ComfortControlPro" {
		t.Errorf("snapshot system_type = %v, want ComfortControlPro", got)
	}
	// Never-fetched attributes are present but nil.
	if value, present := system["notify_time"]; !present {
		t.Error("snapshot missing notify_time")
	} else if value != nil {
		t.Errorf("snapshot notify_time = %v, want nil", value)
	}
}

func TestSetters_RecordWireKeys(t *testing.T) {
	exec := newFakeExec()
	dev := New(context.Background(), testID, exec)

	dev.SetTargetHumidityLevel("fifty-seventy")
	dev.SetAutoModeSilent(true)
	dev.SetActiveTimeProfile(3)
	dev.SetTargetTemp(22.5)
	dev.SetModeDeadline(1756200000)
	dev.SetLastFilterChange(1204)
	dev.SetName("Bedroom")

	if !dev.Push(context.Background()) {
		t.Fatal("Push() = false, want true")
	}
	body := exec.putBodies[0]
	want := map[string]any{
		"target-hmdty-level": "fifty-seventy",
		"auto-mode-silent":   true,
		"time-profile":       int64(3),
		"target-temp":        22.5,
		"mode-deadline":      int64(1756200000),
		"last-filter-change": int64(1204),
		"name":               "Bedroom",
	}
	if len(body) != len(want) {
		t.Fatalf("pushed %d keys, want %d: %v", len(body), len(want), body)
	}
	for key, value := range want {
		if body[key] != value {
			t.Errorf("pushed %s = %v, want %v", key, body[key], value)
		}
	}
	// Local reads reflect the unpushed values immediately.
	if got := dev.TargetHumidityLevel(); got != "fifty-seventy" {
		t.Errorf("TargetHumidityLevel() = %q, want fifty-seventy", got)
	}
	if got := dev.ActiveTimeProfile(); got != 3 {
		t.Errorf("ActiveTimeProfile() = %d, want 3", got)
	}
}

func TestID_FromBufferWireForm(t *testing.T) {
	exec := newFakeExec()
	exec.system["system-id"] = map[string]any{
		"type": "Buffer",
		"data": []any{161.0, 178.0, 195.0, 212.0, 229.0, 246.0},
	}

	dev := New(context.Background(), testID, exec)
	if got := dev.ID(); got != testID {
		t.Errorf("ID() = %s, want %s decoded from buffer form", got, testID)
	}
}
