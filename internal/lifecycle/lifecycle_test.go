package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/Naloam/scenelens/internal/executor"
	"github.com/Naloam/scenelens/internal/links"
	"github.com/Naloam/scenelens/internal/platform"
	"github.com/Naloam/scenelens/internal/rules"
	"github.com/Naloam/scenelens/internal/scene"
)

type mapResolver map[string]string

func (r mapResolver) ResolveIntent(intent string) (string, bool) {
	pkg, ok := r[intent]
	return pkg, ok
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testExecutor() *executor.Executor {
	sim := platform.NewSim([]platform.AppInfo{
		{Package: "com.spotify.music", DisplayName: "Spotify"},
	}, nil)
	return executor.New(sim, mapResolver{"MUSIC_PLAYER_TOP1": "com.spotify.music"}, links.NewResolver(sim), nil, nil)
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testStore(t), testExecutor())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func operatorRule(id string, logic rules.ConditionLogic, conds ...rules.Condition) rules.Rule {
	return rules.Rule{
		ID:             id,
		Priority:       rules.PriorityMedium,
		Mode:           rules.ModeAuto,
		Enabled:        true,
		ConditionLogic: logic,
		Conditions:     conds,
		Actions: []rules.Action{
			{Target: rules.TargetSystem, Name: "set_wifi", Params: map[string]string{"enabled": "true"}},
		},
	}
}

func TestNewManager_SeedsBuiltins(t *testing.T) {
	m := testManager(t)
	if len(m.Rules()) == 0 {
		t.Fatal("first run must seed the built-in rule sets")
	}
}

func TestCRUD_RoundTrip(t *testing.T) {
	m := testManager(t)

	added, err := m.AddRule(operatorRule("", "", rules.Condition{
		Op: rules.OpEquals, Field: "scene", Value: "HOME",
	}))
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if added.ID == "" {
		t.Fatal("AddRule must assign an id")
	}

	got, err := m.GetRule(added.ID)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if got.Conditions[0].Value != "HOME" {
		t.Errorf("round-trip lost condition: %+v", got.Conditions[0])
	}

	got.Name = "renamed"
	if err := m.UpdateRule(got); err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if err := m.SetEnabled(added.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	got, _ = m.GetRule(added.ID)
	if got.Name != "renamed" || got.Enabled {
		t.Errorf("mutations not applied: %+v", got)
	}

	if err := m.RemoveRule(added.ID); err != nil {
		t.Fatalf("RemoveRule: %v", err)
	}
	if _, err := m.GetRule(added.ID); err == nil {
		t.Fatal("rule still present after removal")
	}
	if err := m.RemoveRule("ghost"); err == nil {
		t.Fatal("removing an unknown rule must fail")
	}
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewManager(s, testExecutor())
	if err != nil {
		t.Fatal(err)
	}
	added, err := m.AddRule(operatorRule("persisted-rule", "", rules.Condition{
		Op: rules.OpEquals, Field: "scene", Value: "OFFICE",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ExecuteRule(context.Background(), added.ID); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	m2, err := NewManager(s2, testExecutor())
	if err != nil {
		t.Fatal(err)
	}
	got, err := m2.GetRule("persisted-rule")
	if err != nil {
		t.Fatalf("rule lost across restart: %v", err)
	}
	if got.TriggerCount != 1 {
		t.Errorf("trigger count = %d, want 1 (cooldown state must survive restarts)", got.TriggerCount)
	}
	if got.LastTriggered.IsZero() {
		t.Error("last-triggered timestamp lost across restart")
	}
}

func TestEvaluateRules_OperatorsAndLogic(t *testing.T) {
	ec := scene.ExecutionContext{
		Scene:        scene.SceneHome,
		TimeOfDay:    "22:30",
		DayOfWeek:    "friday",
		BatteryLevel: 15,
		Charging:     false,
		WiFiSSID:     "HOME_WIFI",
		Motion:       "STILL",
	}

	tests := []struct {
		name    string
		rule    rules.Rule
		matched bool
	}{
		{
			"AND all hold",
			operatorRule("and-ok", rules.LogicAND,
				rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "HOME"},
				rules.Condition{Op: rules.OpGreater, Field: "time_of_day", Value: "22:00"},
			),
			true,
		},
		{
			"AND one fails",
			operatorRule("and-miss", rules.LogicAND,
				rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "HOME"},
				rules.Condition{Op: rules.OpEquals, Field: "charging", Value: "true"},
			),
			false,
		},
		{
			"OR one holds",
			operatorRule("or-ok", rules.LogicOR,
				rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "OFFICE"},
				rules.Condition{Op: rules.OpLess, Field: "battery_level", Value: "20"},
			),
			true,
		},
		{
			"between clock range",
			operatorRule("between-ok", rules.LogicAND,
				rules.Condition{Op: rules.OpBetween, Field: "time_of_day", Value: "22:00,23:59"},
			),
			true,
		},
		{
			"in list",
			operatorRule("in-ok", rules.LogicAND,
				rules.Condition{Op: rules.OpIn, Field: "day_of_week", Value: "friday,saturday"},
			),
			true,
		},
		{
			"not_in list",
			operatorRule("notin-miss", rules.LogicAND,
				rules.Condition{Op: rules.OpNotIn, Field: "day_of_week", Value: "friday,saturday"},
			),
			false,
		},
		{
			"contains ssid",
			operatorRule("contains-ok", rules.LogicAND,
				rules.Condition{Op: rules.OpContains, Field: "wifi_ssid", Value: "home"},
			),
			true,
		},
		{
			"unknown field is unsatisfied not fatal",
			operatorRule("bad-field", rules.LogicOR,
				rules.Condition{Op: rules.OpEquals, Field: "shoe_size", Value: "42"},
				rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "HOME"},
			),
			true, // OR: the malformed first condition must not poison the second
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testManager(t)
			// Isolate: disable the seeded builtins.
			for _, r := range m.Rules() {
				if err := m.SetEnabled(r.ID, false); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := m.AddRule(tt.rule); err != nil {
				t.Fatal(err)
			}
			matched := m.EvaluateRules(scene.Snapshot{}, ec)
			found := false
			for _, r := range matched {
				if r.ID == tt.rule.ID {
					found = true
				}
			}
			if found != tt.matched {
				t.Errorf("matched=%v, want %v", found, tt.matched)
			}
		})
	}
}

func TestEvaluateRules_CooldownFilters(t *testing.T) {
	m := testManager(t)
	for _, r := range m.Rules() {
		if err := m.SetEnabled(r.ID, false); err != nil {
			t.Fatal(err)
		}
	}

	rule := operatorRule("cooling", "", rules.Condition{
		Op: rules.OpEquals, Field: "scene", Value: "HOME",
	})
	rule.CooldownMinutes = 30
	if _, err := m.AddRule(rule); err != nil {
		t.Fatal(err)
	}

	ec := scene.ExecutionContext{Scene: scene.SceneHome}
	if got := m.EvaluateRules(scene.Snapshot{}, ec); len(got) != 1 {
		t.Fatalf("pre-trigger: got %d matches, want 1", len(got))
	}

	if _, err := m.ExecuteRule(context.Background(), "cooling"); err != nil {
		t.Fatal(err)
	}
	if got := m.EvaluateRules(scene.Snapshot{}, ec); len(got) != 0 {
		t.Fatalf("inside cooldown: got %d matches, want 0", len(got))
	}

	// Jump the clock past the cooldown window.
	m.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if got := m.EvaluateRules(scene.Snapshot{}, ec); len(got) != 1 {
		t.Fatalf("after cooldown: got %d matches, want 1", len(got))
	}
}

func TestExecuteRule_UpdatesTriggerStateOnFailure(t *testing.T) {
	m := testManager(t)
	rule := operatorRule("failing", "", rules.Condition{
		Op: rules.OpEquals, Field: "scene", Value: "HOME",
	})
	rule.Actions = []rules.Action{{Target: rules.TargetSystem, Name: "no_such_operation"}}
	if _, err := m.AddRule(rule); err != nil {
		t.Fatal(err)
	}

	results, err := m.ExecuteRule(context.Background(), "failing")
	if err != nil {
		t.Fatalf("ExecuteRule: %v", err)
	}
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected one failed result, got %+v", results)
	}

	got, _ := m.GetRule("failing")
	if got.TriggerCount != 1 {
		t.Errorf("trigger count = %d, want 1 even when every action failed", got.TriggerCount)
	}
}

func TestEvaluateRules_PrioritySorted(t *testing.T) {
	m := testManager(t)
	for _, r := range m.Rules() {
		if err := m.SetEnabled(r.ID, false); err != nil {
			t.Fatal(err)
		}
	}

	low := operatorRule("low", "", rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "HOME"})
	low.Priority = rules.PriorityLow
	high := operatorRule("high", "", rules.Condition{Op: rules.OpEquals, Field: "scene", Value: "HOME"})
	high.Priority = rules.PriorityHigh
	if _, err := m.AddRule(low); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddRule(high); err != nil {
		t.Fatal(err)
	}

	matched := m.EvaluateRules(scene.Snapshot{}, scene.ExecutionContext{Scene: scene.SceneHome})
	if len(matched) != 2 {
		t.Fatalf("got %d matches, want 2", len(matched))
	}
	if matched[0].ID != "high" {
		t.Errorf("first match = %q, want the high-priority rule", matched[0].ID)
	}
}
