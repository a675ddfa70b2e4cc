package rules

// #region imports
import (
	"fmt"
	"log"
	"time"

	"github.com/tidwall/gjson"
)

// #endregion

// #region parse-rules

// ParseRules reads a JSON rule document (an array of rule objects, or an
// object with a "rules" array). Each entry is parsed independently so one
// malformed rule is skipped with a warning and never aborts the load.
func ParseRules(doc []byte) ([]Rule, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("parse rules: invalid json document")
	}
	root := gjson.ParseBytes(doc)
	list := root
	if root.IsObject() {
		list = root.Get("rules")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("parse rules: expected a rule array")
	}

	var out []Rule
	for i, entry := range list.Array() {
		r, err := parseRule(entry)
		if err != nil {
			log.Printf("[RULES] skipping rule entry %d: %v", i, err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// #endregion

// #region parse-rule

func parseRule(v gjson.Result) (Rule, error) {
	if !v.IsObject() {
		return Rule{}, fmt.Errorf("not an object")
	}
	r := Rule{
		ID:              v.Get("id").String(),
		Name:            v.Get("name").String(),
		Priority:        Priority(v.Get("priority").String()),
		Mode:            Mode(v.Get("mode").String()),
		Enabled:         v.Get("enabled").Bool(),
		ConditionLogic:  ConditionLogic(v.Get("condition_logic").String()),
		CooldownMinutes: int(v.Get("cooldown_minutes").Int()),
		TriggerCount:    int(v.Get("trigger_count").Int()),
	}
	if ts := v.Get("last_triggered").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.LastTriggered = t
		}
	}

	for _, c := range v.Get("conditions").Array() {
		r.Conditions = append(r.Conditions, Condition{
			Type:   c.Get("type").String(),
			Value:  c.Get("value").String(),
			Weight: c.Get("weight").Float(),
			Op:     Operator(c.Get("operator").String()),
			Field:  c.Get("field").String(),
		})
	}
	for _, a := range v.Get("actions").Array() {
		act := Action{
			Target:   ActionTarget(a.Get("target").String()),
			Name:     a.Get("action").String(),
			Intent:   a.Get("intent").String(),
			DeepLink: a.Get("deep_link").String(),
		}
		if params := a.Get("params"); params.IsObject() {
			act.Params = make(map[string]string)
			params.ForEach(func(key, value gjson.Result) bool {
				act.Params[key.String()] = value.String()
				return true
			})
		}
		r.Actions = append(r.Actions, act)
	}

	if !r.Valid() {
		return Rule{}, fmt.Errorf("rule %q missing id or actions", r.ID)
	}
	return r, nil
}

// #endregion
