package lifecycle

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Naloam/scenelens/internal/executor"
	"github.com/Naloam/scenelens/internal/rules"
	"github.com/Naloam/scenelens/internal/scene"
)

// #endregion

// #region errors

// ErrRuleNotFound is returned by lookups and mutations on unknown ids.
var ErrRuleNotFound = fmt.Errorf("rule not found")

// #endregion

// #region manager-struct

// Manager owns the persisted rule set: CRUD, cooldown filtering,
// boolean condition evaluation and execution bookkeeping.
type Manager struct {
	mu    sync.Mutex
	store *Store
	exec  *executor.Executor
	set   []rules.Rule
	now   func() time.Time
}

// NewManager loads the persisted rules (seeding the built-in sets on
// first run) and merges the trigger history back into them.
func NewManager(store *Store, exec *executor.Executor) (*Manager, error) {
	m := &Manager{store: store, exec: exec, now: time.Now}

	set, err := store.LoadRules()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		set = rules.BuiltinRules()
		if err := store.SaveRules(set); err != nil {
			return nil, err
		}
		log.Printf("[LIFECYCLE] first run, seeded %d built-in rules", len(set))
	}

	history, err := store.LoadTriggerHistory()
	if err != nil {
		return nil, err
	}
	for i := range set {
		if rec, ok := history[set[i].ID]; ok {
			set[i].LastTriggered = rec.LastTriggered
			set[i].TriggerCount = rec.TriggerCount
		}
	}

	m.set = set
	return m, nil
}

// #endregion

// #region crud

// Rules returns a copy of the current rule set.
func (m *Manager) Rules() []rules.Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rules.Rule, len(m.set))
	copy(out, m.set)
	return out
}

// GetRule looks a rule up by id.
func (m *Manager) GetRule(id string) (rules.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.set {
		if r.ID == id {
			return r, nil
		}
	}
	return rules.Rule{}, fmt.Errorf("get %q: %w", id, ErrRuleNotFound)
}

// AddRule validates, assigns an id when missing, appends and persists.
func (m *Manager) AddRule(r rules.Rule) (rules.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if !r.Valid() {
		return rules.Rule{}, fmt.Errorf("add rule %q: missing id or actions", r.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.set {
		if existing.ID == r.ID {
			return rules.Rule{}, fmt.Errorf("add rule: duplicate id %q", r.ID)
		}
	}
	next := append(append([]rules.Rule(nil), m.set...), r)
	if err := m.store.SaveRules(next); err != nil {
		return rules.Rule{}, err
	}
	m.set = next
	log.Printf("[LIFECYCLE] added rule %s (%s)", r.ID, r.Name)
	return r, nil
}

// RemoveRule deletes a rule by id and persists.
func (m *Manager) RemoveRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.set {
		if r.ID != id {
			continue
		}
		next := append(append([]rules.Rule(nil), m.set[:i]...), m.set[i+1:]...)
		if err := m.store.SaveRules(next); err != nil {
			return err
		}
		m.set = next
		log.Printf("[LIFECYCLE] removed rule %s", id)
		return nil
	}
	return fmt.Errorf("remove %q: %w", id, ErrRuleNotFound)
}

// UpdateRule replaces a rule wholesale (edit = full replacement).
func (m *Manager) UpdateRule(r rules.Rule) error {
	if !r.Valid() {
		return fmt.Errorf("update rule %q: missing id or actions", r.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.set {
		if m.set[i].ID != r.ID {
			continue
		}
		next := append([]rules.Rule(nil), m.set...)
		next[i] = r
		if err := m.store.SaveRules(next); err != nil {
			return err
		}
		m.set = next
		return nil
	}
	return fmt.Errorf("update %q: %w", r.ID, ErrRuleNotFound)
}

// SetEnabled toggles a rule and persists.
func (m *Manager) SetEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.set {
		if m.set[i].ID != id {
			continue
		}
		next := append([]rules.Rule(nil), m.set...)
		next[i].Enabled = enabled
		if err := m.store.SaveRules(next); err != nil {
			return err
		}
		m.set = next
		return nil
	}
	return fmt.Errorf("enable %q: %w", id, ErrRuleNotFound)
}

// #endregion

// #region evaluate

// EvaluateRules returns the enabled, off-cooldown rules whose condition
// tree holds against the snapshot and execution context, sorted by
// priority descending. One malformed condition counts as unsatisfied and
// never aborts the pass.
func (m *Manager) EvaluateRules(snap scene.Snapshot, ec scene.ExecutionContext) []rules.Rule {
	now := m.now()

	m.mu.Lock()
	set := append([]rules.Rule(nil), m.set...)
	m.mu.Unlock()

	var matched []rules.Rule
	for _, r := range set {
		if !r.Enabled || !r.Valid() {
			continue
		}
		if !r.OffCooldown(now) {
			continue
		}
		if len(r.Conditions) == 0 {
			continue
		}
		if conditionsHold(r, snap, ec) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority.Rank() > matched[j].Priority.Rank()
	})
	return matched
}

// conditionsHold applies the rule's AND/OR aggregation (AND when unset).
func conditionsHold(r rules.Rule, snap scene.Snapshot, ec scene.ExecutionContext) bool {
	anyOf := r.ConditionLogic == rules.LogicOR
	for _, c := range r.Conditions {
		ok, err := rules.EvaluateCondition(c, snap, ec)
		if err != nil {
			log.Printf("[LIFECYCLE] rule %q condition on %q: %v (treated as unsatisfied)", r.ID, c.Field, err)
			ok = false
		}
		if anyOf && ok {
			return true
		}
		if !anyOf && !ok {
			return false
		}
	}
	return !anyOf
}

// #endregion

// #region execute

// ExecuteRule runs a rule's actions and updates its trigger state after
// the attempt, regardless of per-action success, persisting both the
// rule list and the trigger-history entry.
func (m *Manager) ExecuteRule(ctx context.Context, id string) ([]executor.Result, error) {
	rule, err := m.GetRule(id)
	if err != nil {
		return nil, err
	}

	batchID, results := m.exec.ExecuteRule(ctx, rule)
	log.Printf("[LIFECYCLE] executed rule %s (batch %s): %d actions", id, batchID, len(results))

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.set {
		if m.set[i].ID != id {
			continue
		}
		next := append([]rules.Rule(nil), m.set...)
		next[i].LastTriggered = now
		next[i].TriggerCount++
		if err := m.store.SaveRules(next); err != nil {
			return results, err
		}
		if err := m.store.RecordTrigger(id, now); err != nil {
			return results, err
		}
		m.set = next
		break
	}
	return results, nil
}

// #endregion
