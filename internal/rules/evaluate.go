package rules

// #region imports
import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Naloam/scenelens/internal/scene"
)

// #endregion

// #region evaluate

// EvaluateCondition is the single entry point for both condition schemas.
// Legacy weighted conditions are matched against the snapshot's signals;
// operator conditions are compared against ExecutionContext fields.
// An error means the condition could not be evaluated; callers treat that
// as unsatisfied and keep going.
func EvaluateCondition(c Condition, snap scene.Snapshot, ec scene.ExecutionContext) (bool, error) {
	if c.IsLegacy() {
		return legacySatisfied(c, snap), nil
	}
	return operatorSatisfied(c, ec)
}

// #endregion

// #region legacy

// legacySatisfied applies the weighted match policy:
//  1. exact value equality (case-insensitive),
//  2. time conditions also match on the before-first-underscore period,
//  3. a LOCATION signal of UNKNOWN is unsatisfied but never an error.
func legacySatisfied(c Condition, snap scene.Snapshot) bool {
	sig, ok := snap.FindSignal(scene.SignalType(strings.ToUpper(c.Type)))
	if !ok {
		return false
	}
	if strings.EqualFold(sig.Value, c.Value) {
		return true
	}
	if strings.EqualFold(c.Type, "time") {
		if timePeriod(sig.Value) != "" && timePeriod(sig.Value) == timePeriod(c.Value) {
			return true
		}
	}
	// UNKNOWN location falls through to unsatisfied without complaint.
	return false
}

// timePeriod returns the upper-cased substring before the first underscore,
// e.g. "MORNING" from "MORNING_RUSH_WEEKDAY".
func timePeriod(v string) string {
	v = strings.ToUpper(v)
	if i := strings.Index(v, "_"); i >= 0 {
		return v[:i]
	}
	return v
}

// #endregion

// #region operator

func operatorSatisfied(c Condition, ec scene.ExecutionContext) (bool, error) {
	field := c.Field
	if field == "" {
		field = c.Type
	}
	actual, err := contextField(ec, field)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case OpEquals:
		return strings.EqualFold(actual, c.Value), nil
	case OpNotEquals:
		return !strings.EqualFold(actual, c.Value), nil
	case OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value)), nil
	case OpGreater:
		a, b, err := numericPair(actual, c.Value)
		if err != nil {
			return false, err
		}
		return a > b, nil
	case OpLess:
		a, b, err := numericPair(actual, c.Value)
		if err != nil {
			return false, err
		}
		return a < b, nil
	case OpBetween:
		lo, hi, ok := strings.Cut(c.Value, ",")
		if !ok {
			return false, fmt.Errorf("between wants \"lo,hi\", got %q", c.Value)
		}
		a, l, err := numericPair(actual, strings.TrimSpace(lo))
		if err != nil {
			return false, err
		}
		h, err := parseComparable(strings.TrimSpace(hi))
		if err != nil {
			return false, fmt.Errorf("parse upper bound %q: %w", hi, err)
		}
		return a >= l && a <= h, nil
	case OpIn, OpNotIn:
		found := false
		for _, candidate := range strings.Split(c.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(candidate), actual) {
				found = true
				break
			}
		}
		if c.Op == OpIn {
			return found, nil
		}
		return !found, nil
	}
	return false, fmt.Errorf("unknown operator %q", c.Op)
}

// contextField resolves a condition field name to its ExecutionContext value.
func contextField(ec scene.ExecutionContext, field string) (string, error) {
	switch strings.ToLower(field) {
	case "scene":
		return string(ec.Scene), nil
	case "time_of_day", "time":
		return ec.TimeOfDay, nil
	case "day_of_week", "day":
		return ec.DayOfWeek, nil
	case "battery_level", "battery":
		return strconv.Itoa(ec.BatteryLevel), nil
	case "charging":
		return strconv.FormatBool(ec.Charging), nil
	case "wifi_ssid", "wifi":
		return ec.WiFiSSID, nil
	case "motion":
		return ec.Motion, nil
	case "foreground_app":
		return ec.ForegroundApp, nil
	case "location":
		return ec.Location, nil
	}
	return "", fmt.Errorf("unknown context field %q", field)
}

func numericPair(actual, expected string) (float64, float64, error) {
	a, err := parseComparable(actual)
	if err != nil {
		return 0, 0, fmt.Errorf("parse field value %q: %w", actual, err)
	}
	b, err := parseComparable(expected)
	if err != nil {
		return 0, 0, fmt.Errorf("parse condition value %q: %w", expected, err)
	}
	return a, b, nil
}

// parseComparable accepts plain numbers and "HH:MM" clock strings
// (compared as minutes since midnight).
func parseComparable(v string) (float64, error) {
	if hh, mm, ok := strings.Cut(v, ":"); ok {
		h, err1 := strconv.Atoi(hh)
		m, err2 := strconv.Atoi(mm)
		if err1 == nil && err2 == nil {
			return float64(h*60 + m), nil
		}
	}
	return strconv.ParseFloat(v, 64)
}

// #endregion
