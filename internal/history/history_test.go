package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Naloam/scenelens/internal/executor"
	"github.com/Naloam/scenelens/internal/rules"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func result(name string, success, degraded bool) executor.Result {
	return executor.Result{
		Action:     rules.Action{Target: rules.TargetSystem, Name: name},
		Success:    success,
		Degraded:   degraded,
		DurationMS: 120,
	}
}

func TestRecordBatch_AndRecent(t *testing.T) {
	s := tempStore(t)

	err := s.RecordBatch("b1", "RULE_COMMUTE", []executor.Result{
		result("set_do_not_disturb", true, false),
		result("open_transit", false, false),
	})
	if err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}

	entries, err := s.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].ActionName != "open_transit" {
		t.Errorf("newest entry = %q, want open_transit", entries[0].ActionName)
	}
	if entries[0].Success {
		t.Error("failed action recorded as success")
	}

	filtered, err := s.Recent("RULE_OTHER", 10)
	if err != nil {
		t.Fatalf("Recent filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("rule filter leaked %d entries", len(filtered))
	}
}

func TestRuleStats_DecayWeightedSuccess(t *testing.T) {
	s := tempStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Old failures, recent successes: decay favours the recent outcomes.
	s.now = func() time.Time { return now.Add(-20 * 24 * time.Hour) }
	if err := s.RecordBatch("old", "R", []executor.Result{
		result("a", false, false),
		result("a", false, false),
	}); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return now }
	if err := s.RecordBatch("new", "R", []executor.Result{
		result("a", true, false),
		result("a", true, true),
	}); err != nil {
		t.Fatal(err)
	}

	st, err := s.RuleStats("R")
	if err != nil {
		t.Fatalf("RuleStats: %v", err)
	}
	if st.Samples != 4 {
		t.Errorf("samples = %d, want 4", st.Samples)
	}
	if st.SuccessRate <= 0.5 {
		t.Errorf("success rate %v should be pulled above 0.5 by recency decay", st.SuccessRate)
	}
	if st.DegradedShare != 0.5 {
		t.Errorf("degraded share = %v, want 0.5", st.DegradedShare)
	}
	if st.AvgDurationMS != 120 {
		t.Errorf("avg duration = %v, want 120", st.AvgDurationMS)
	}
}

func TestRuleStats_Empty(t *testing.T) {
	s := tempStore(t)
	st, err := s.RuleStats("NEVER_RAN")
	if err != nil {
		t.Fatalf("RuleStats: %v", err)
	}
	if st.Samples != 0 || st.SuccessRate != 0 {
		t.Errorf("got %+v, want zero stats", st)
	}
}
