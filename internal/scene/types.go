package scene

// #region imports
import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// #endregion

// #region signal-type

// SignalType identifies the source of a context signal.
type SignalType string

const (
	SignalTime     SignalType = "TIME"
	SignalLocation SignalType = "LOCATION"
	SignalMotion   SignalType = "MOTION"
	SignalWiFi     SignalType = "WIFI"
	SignalAppUsage SignalType = "APP_USAGE"
	SignalCalendar SignalType = "CALENDAR"
	SignalBattery  SignalType = "BATTERY"
)

// #endregion

// #region scene-type

// SceneType is the inferred situational scene for a snapshot.
type SceneType string

const (
	SceneCommute SceneType = "COMMUTE"
	SceneOffice  SceneType = "OFFICE"
	SceneHome    SceneType = "HOME"
	SceneSleep   SceneType = "SLEEP"
	SceneMeeting SceneType = "MEETING"
	SceneStudy   SceneType = "STUDY"
	SceneTravel  SceneType = "TRAVEL"
	SceneUnknown SceneType = "UNKNOWN"
)

// #endregion

// #region signal

// Signal is one typed, weighted observation from the collection layer.
// Immutable once created.
type Signal struct {
	Type      SignalType `json:"type"`
	Value     string     `json:"value"`
	Weight    float64    `json:"weight"` // [0,1]
	Timestamp time.Time  `json:"timestamp"`
}

// #endregion

// #region snapshot

// Snapshot is one context snapshot produced by the signal collector.
// Never mutated after creation; one snapshot is evaluated per matching pass.
type Snapshot struct {
	Timestamp  time.Time  `json:"timestamp"`
	Scene      SceneType  `json:"scene"`
	Confidence float64    `json:"confidence"` // [0,1]
	Signals    []Signal   `json:"signals"`
}

// FindSignal returns the first signal of the given type, case-insensitive.
func (s Snapshot) FindSignal(t SignalType) (Signal, bool) {
	want := strings.ToUpper(string(t))
	for _, sig := range s.Signals {
		if strings.ToUpper(string(sig.Type)) == want {
			return sig, true
		}
	}
	return Signal{}, false
}

// Fingerprint produces the cache key for this snapshot's shape:
// scene + confidence rounded to 2 decimals + sorted distinct signal types.
func (s Snapshot) Fingerprint() string {
	seen := make(map[string]struct{}, len(s.Signals))
	types := make([]string, 0, len(s.Signals))
	for _, sig := range s.Signals {
		t := strings.ToUpper(string(sig.Type))
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Strings(types)
	return fmt.Sprintf("%s|%.2f|%s", s.Scene, s.Confidence, strings.Join(types, ","))
}

// #endregion

// #region execution-context

// ExecutionContext carries the typed fields the operator-based condition
// evaluator reads. Derived from a snapshot plus device state at evaluation time.
type ExecutionContext struct {
	Scene         SceneType `json:"scene"`
	TimeOfDay     string    `json:"time_of_day"` // "HH:MM"
	DayOfWeek     string    `json:"day_of_week"` // "monday".."sunday"
	BatteryLevel  int       `json:"battery_level"`
	Charging      bool      `json:"charging"`
	WiFiSSID      string    `json:"wifi_ssid"`
	Motion        string    `json:"motion"`
	ForegroundApp string    `json:"foreground_app"`
	Location      string    `json:"location"`
}

// FromSnapshot derives an ExecutionContext from a snapshot, using now for
// the clock-derived fields and the snapshot's signals for the rest.
func FromSnapshot(s Snapshot, now time.Time) ExecutionContext {
	ec := ExecutionContext{
		Scene:     s.Scene,
		TimeOfDay: now.Format("15:04"),
		DayOfWeek: strings.ToLower(now.Weekday().String()),
	}
	if sig, ok := s.FindSignal(SignalWiFi); ok {
		ec.WiFiSSID = sig.Value
	}
	if sig, ok := s.FindSignal(SignalMotion); ok {
		ec.Motion = sig.Value
	}
	if sig, ok := s.FindSignal(SignalLocation); ok {
		ec.Location = sig.Value
	}
	if sig, ok := s.FindSignal(SignalAppUsage); ok {
		ec.ForegroundApp = sig.Value
	}
	if sig, ok := s.FindSignal(SignalBattery); ok {
		// Battery signals look like "85" or "85,charging".
		level, rest, _ := strings.Cut(sig.Value, ",")
		if n, err := strconv.Atoi(strings.TrimSpace(level)); err == nil {
			ec.BatteryLevel = n
		}
		ec.Charging = strings.EqualFold(strings.TrimSpace(rest), "charging")
	}
	return ec
}

// #endregion

// #region helpers

// Clamp restricts v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
