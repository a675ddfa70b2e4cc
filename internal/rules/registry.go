package rules

// #region imports
import (
	"fmt"
	"log"
)

// #endregion

// #region registry

// SetBuilder constructs one built-in scenario rule set.
type SetBuilder func() ([]Rule, error)

// Registry is the static list of built-in scenario rule sets, iterated
// in order at load time. A failing builder is skipped, never fatal.
var Registry = []struct {
	Name  string
	Build SetBuilder
}{
	{"commute", commuteRules},
	{"meeting", meetingRules},
	{"study", studyRules},
	{"home", homeRules},
	{"office", officeRules},
	{"sleep", sleepRules},
	{"travel", travelRules},
}

// BuiltinRules assembles every registry set, isolating per-entry failures.
func BuiltinRules() []Rule {
	var out []Rule
	for _, entry := range Registry {
		set, err := entry.Build()
		if err != nil {
			log.Printf("[RULES] skipping built-in set %q: %v", entry.Name, err)
			continue
		}
		for _, r := range set {
			if !r.Valid() {
				log.Printf("[RULES] skipping malformed rule %q in set %q", r.ID, entry.Name)
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// #endregion

// #region fallback

// FallbackRules is the hard-coded last-resort set. Load must never leave
// the engine with zero rules, so this set is always constructible.
func FallbackRules() []Rule {
	return []Rule{
		{
			ID:       "RULE_FALLBACK_COMMUTE",
			Name:     "Commute basics",
			Priority: PriorityMedium,
			Mode:     ModeSuggestOnly,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "time", Value: "MORNING_RUSH_WEEKDAY", Weight: 0.6},
				{Type: "motion", Value: "WALKING", Weight: 0.4},
			},
			Actions: []Action{
				{Target: TargetApp, Name: "open_transit", Intent: "TRANSIT_APP_TOP1"},
			},
		},
		{
			ID:       "RULE_FALLBACK_SLEEP",
			Name:     "Wind down",
			Priority: PriorityLow,
			Mode:     ModeSuggestOnly,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "time", Value: "NIGHT_WEEKDAY", Weight: 1.0},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
			},
		},
	}
}

// #endregion

// #region scenario-sets

func commuteRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_COMMUTE",
			Name:     "Morning commute",
			Priority: PriorityHigh,
			Mode:     ModeOneTap,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "time", Value: "MORNING_RUSH_WEEKDAY", Weight: 0.6},
				{Type: "location", Value: "SUBWAY_STATION", Weight: 0.8},
				{Type: "motion", Value: "WALKING", Weight: 0.4},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
				{Target: TargetApp, Name: "open_transit", Intent: "TRANSIT_APP_TOP1", DeepLink: "transit://routes/home-to-work"},
				{Target: TargetApp, Name: "open_payment", Intent: "PAYMENT_APP_TOP1"},
			},
			CooldownMinutes: 45,
		},
		{
			ID:       "RULE_COMMUTE_EVENING",
			Name:     "Evening commute",
			Priority: PriorityMedium,
			Mode:     ModeOneTap,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "time", Value: "EVENING_RUSH_WEEKDAY", Weight: 0.6},
				{Type: "location", Value: "SUBWAY_STATION", Weight: 0.7},
			},
			Actions: []Action{
				{Target: TargetApp, Name: "open_music", Intent: "MUSIC_PLAYER_TOP1"},
				{Target: TargetApp, Name: "open_transit", Intent: "TRANSIT_APP_TOP1"},
			},
			CooldownMinutes: 45,
		},
	}, nil
}

func meetingRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_MEETING",
			Name:     "Meeting starting",
			Priority: PriorityHigh,
			Mode:     ModeAuto,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "calendar", Value: "MEETING_SOON", Weight: 0.9},
				{Type: "location", Value: "OFFICE", Weight: 0.5},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
				{Target: TargetSystem, Name: "set_volumes", Params: map[string]string{"ring": "0", "media": "0"}},
				{Target: TargetApp, Name: "open_meeting", Intent: "MEETING_APP_TOP1"},
			},
			CooldownMinutes: 30,
		},
	}, nil
}

func studyRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_STUDY",
			Name:     "Focus session",
			Priority: PriorityMedium,
			Mode:     ModeOneTap,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "location", Value: "LIBRARY", Weight: 0.7},
				{Type: "motion", Value: "STILL", Weight: 0.4},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
				{Target: TargetApp, Name: "open_study", Intent: "STUDY_APP_TOP1"},
			},
			CooldownMinutes: 60,
		},
	}, nil
}

func homeRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_HOME_ARRIVAL",
			Name:     "Arriving home",
			Priority: PriorityMedium,
			Mode:     ModeOneTap,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "wifi", Value: "HOME_WIFI", Weight: 0.8},
				{Type: "time", Value: "EVENING_WEEKDAY", Weight: 0.4},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "false"}},
				{Target: TargetApp, Name: "open_smart_home", Intent: "SMART_HOME_TOP1"},
				{Target: TargetNotification, Name: "home_summary", Params: map[string]string{"title": "Welcome home", "body": "Lights and climate ready."}},
			},
			CooldownMinutes: 120,
		},
	}, nil
}

func officeRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_OFFICE_ARRIVAL",
			Name:     "Arriving at the office",
			Priority: PriorityMedium,
			Mode:     ModeOneTap,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "wifi", Value: "OFFICE_WIFI", Weight: 0.7},
				{Type: "time", Value: "MORNING_WEEKDAY", Weight: 0.5},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_volumes", Params: map[string]string{"ring": "20"}},
				{Target: TargetApp, Name: "open_calendar", Intent: "CALENDAR_TOP1"},
			},
			CooldownMinutes: 240,
		},
	}, nil
}

func sleepRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_SLEEP",
			Name:     "Bedtime",
			Priority: PriorityHigh,
			Mode:     ModeAuto,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "time", Value: "NIGHT_WEEKDAY", Weight: 0.7},
				{Type: "motion", Value: "STILL", Weight: 0.5},
				{Type: "wifi", Value: "HOME_WIFI", Weight: 0.4},
			},
			Actions: []Action{
				{Target: TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
				{Target: TargetSystem, Name: "set_brightness", Params: map[string]string{"level": "10"}},
				{Target: TargetSystem, Name: "set_screen_timeout", Params: map[string]string{"ms": "30000"}},
			},
			CooldownMinutes: 360,
		},
	}, nil
}

func travelRules() ([]Rule, error) {
	return []Rule{
		{
			ID:       "RULE_TRAVEL",
			Name:     "Away from home city",
			Priority: PriorityLow,
			Mode:     ModeSuggestOnly,
			Enabled:  true,
			Conditions: []Condition{
				{Type: "location", Value: "AIRPORT", Weight: 0.8},
				{Type: "calendar", Value: "TRIP_PLANNED", Weight: 0.5},
			},
			Actions: []Action{
				{Target: TargetApp, Name: "open_transit", Intent: "TRANSIT_APP_TOP1"},
				{Target: TargetNotification, Name: "travel_tips", Params: map[string]string{"title": "Travel mode", "body": "Boarding pass and maps one tap away."}},
			},
			CooldownMinutes: 180,
		},
	}, nil
}

// #endregion

// #region validation-helper

// ValidateSet rejects sets that would be unusable at load time.
// Used by the lifecycle manager before persisting user edits.
func ValidateSet(set []Rule) error {
	seen := make(map[string]struct{}, len(set))
	for _, r := range set {
		if !r.Valid() {
			return fmt.Errorf("rule %q: missing id or actions", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// #endregion
