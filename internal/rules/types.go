// Package rules defines the declarative rule model: weighted legacy
// conditions and operator-based automation conditions share one tagged
// Condition type, dispatched on whether Op is set.
package rules

// #region imports
import (
	"time"
)

// #endregion

// #region priority

// Priority orders rules during conflict resolution.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Rank maps a priority to a sortable integer; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// #endregion

// #region mode

// Mode controls how a matched rule is surfaced to the user.
type Mode string

const (
	ModeSuggestOnly Mode = "SUGGEST_ONLY"
	ModeOneTap      Mode = "ONE_TAP"
	ModeAuto        Mode = "AUTO"
)

// #endregion

// #region operator

// Operator selects the comparison for operator-based conditions.
// The empty operator marks a legacy weighted condition.
type Operator string

const (
	OpNone     Operator = ""
	OpEquals   Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpContains Operator = "contains"
	OpGreater  Operator = "greater"
	OpLess     Operator = "less"
	OpBetween  Operator = "between"
	OpIn       Operator = "in"
	OpNotIn    Operator = "not_in"
)

// #endregion

// #region condition

// Condition is one trigger predicate. Legacy form: Type+Value+Weight,
// matched against a snapshot signal. Operator form: Op+Field+Value,
// evaluated against an ExecutionContext field.
type Condition struct {
	Type   string   `json:"type"`
	Value  string   `json:"value"`
	Weight float64  `json:"weight,omitempty"`
	Op     Operator `json:"operator,omitempty"`
	Field  string   `json:"field,omitempty"`
}

// IsLegacy reports whether the condition uses weighted signal matching.
func (c Condition) IsLegacy() bool {
	return c.Op == OpNone
}

// #endregion

// #region action

// ActionTarget selects the executor dispatch path.
type ActionTarget string

const (
	TargetSystem       ActionTarget = "system"
	TargetApp          ActionTarget = "app"
	TargetNotification ActionTarget = "notification"
)

// Action is one declarative, immutable step of a rule.
type Action struct {
	Target   ActionTarget      `json:"target"`
	Name     string            `json:"action"`              // system operation or label
	Intent   string            `json:"intent,omitempty"`    // CATEGORY_TOPn, resolved at execution
	DeepLink string            `json:"deep_link,omitempty"` // preferred launch URL
	Params   map[string]string `json:"params,omitempty"`
}

// #endregion

// #region condition-logic

// ConditionLogic aggregates operator-based conditions across a rule.
type ConditionLogic string

const (
	LogicAND ConditionLogic = "AND"
	LogicOR  ConditionLogic = "OR"
)

// #endregion

// #region rule

// Rule is a declarative trigger-condition-to-action mapping.
// Mutated only through enable/disable, cooldown updates after execution,
// or full replacement on edit.
type Rule struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Priority        Priority       `json:"priority"`
	Mode            Mode           `json:"mode"`
	Enabled         bool           `json:"enabled"`
	Conditions      []Condition    `json:"conditions"`
	ConditionLogic  ConditionLogic `json:"condition_logic,omitempty"`
	Actions         []Action       `json:"actions"`
	CooldownMinutes int            `json:"cooldown_minutes,omitempty"`
	LastTriggered   time.Time      `json:"last_triggered,omitempty"`
	TriggerCount    int            `json:"trigger_count,omitempty"`
}

// Valid reports whether a rule definition is usable by the engine.
// Invalid rules are skipped with a warning, never fatal.
func (r Rule) Valid() bool {
	return r.ID != "" && len(r.Actions) > 0
}

// OffCooldown reports eligibility for re-evaluation at the given time.
func (r Rule) OffCooldown(now time.Time) bool {
	if r.CooldownMinutes <= 0 || r.LastTriggered.IsZero() {
		return true
	}
	return now.Sub(r.LastTriggered) >= time.Duration(r.CooldownMinutes)*time.Minute
}

// #endregion

// #region matched-rule

// MatchedRule pairs a rule with its score against one snapshot.
// Derived and discarded after the caller acts on it.
type MatchedRule struct {
	Rule        Rule
	Score       float64 // [0,1]
	Explanation string
}

// #endregion
