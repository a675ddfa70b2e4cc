// Package engine scores declarative rules against context snapshots and
// returns matches ordered by priority then score.
package engine

// #region imports
import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Naloam/scenelens/internal/cache"
	"github.com/Naloam/scenelens/internal/rules"
	"github.com/Naloam/scenelens/internal/scene"
)

// #endregion

// #region config

// Config holds the engine's tunables. MatchThreshold and CacheTTL are the
// canonical values chosen from the divergent source revisions; both are
// configuration, not literals buried in the scorer.
type Config struct {
	MatchThreshold float64       // a rule matches only when score exceeds this
	CacheTTL       time.Duration // match memoization window; rule-set edits ride it out
	CacheCapacity  int
}

// DefaultConfig returns the canonical tunables.
func DefaultConfig() Config {
	return Config{
		MatchThreshold: 0.5,
		CacheTTL:       5 * time.Minute,
		CacheCapacity:  64,
	}
}

// #endregion

// #region engine-struct

// Engine holds the active rule set and the match memoization cache.
// Single writer (Load), multiple readers (Match).
type Engine struct {
	cfg   Config
	rules []rules.Rule
	cache *cache.Cache
	now   func() time.Time
}

// New creates an engine with an empty rule set; call Load before Match.
func New(cfg Config) *Engine {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultConfig().MatchThreshold
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultConfig().CacheCapacity
	}
	return &Engine{
		cfg: cfg,
		cache: cache.New(cache.Config{
			Capacity:      cfg.CacheCapacity,
			TTL:           cfg.CacheTTL,
			SweepInterval: cfg.CacheTTL,
		}),
		now: time.Now,
	}
}

// Close releases the memoization cache.
func (e *Engine) Close() {
	e.cache.Close()
}

// #endregion

// #region load

// Load installs a rule set with three-level fallback:
// explicit list > built-in registry > hard-coded fallback.
// The engine never ends up with an empty rule set.
func (e *Engine) Load(explicit []rules.Rule) {
	set := e.filterValid(explicit, "explicit")
	if len(set) == 0 {
		set = e.filterValid(rules.BuiltinRules(), "registry")
	}
	if len(set) == 0 {
		log.Printf("[ENGINE] registry empty, installing hard-coded fallback rules")
		set = rules.FallbackRules()
	}
	e.rules = set
	log.Printf("[ENGINE] loaded %d rules", len(set))
}

// Rules returns the active rule set.
func (e *Engine) Rules() []rules.Rule {
	return e.rules
}

func (e *Engine) filterValid(in []rules.Rule, source string) []rules.Rule {
	var out []rules.Rule
	for _, r := range in {
		if !r.Valid() {
			log.Printf("[ENGINE] skipping malformed %s rule %q", source, r.ID)
			continue
		}
		out = append(out, r)
	}
	return out
}

// #endregion

// #region match

// Match scores every enabled rule against the snapshot and returns the
// matches sorted by priority descending, score descending on ties.
// Results are memoized per snapshot fingerprint; cache hits return the
// same ordered list and scores as the original computation.
func (e *Engine) Match(snap scene.Snapshot) []rules.MatchedRule {
	key := snap.Fingerprint()
	if v, ok := e.cache.Get(key); ok {
		return v.([]rules.MatchedRule)
	}

	ec := scene.FromSnapshot(snap, snap.Timestamp)
	var matched []rules.MatchedRule
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		score, explanation := e.scoreRule(r, snap, ec)
		if score > e.cfg.MatchThreshold {
			matched = append(matched, rules.MatchedRule{
				Rule:        r,
				Score:       score,
				Explanation: explanation,
			})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		pi, pj := matched[i].Rule.Priority.Rank(), matched[j].Rule.Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return matched[i].Score > matched[j].Score
	})

	e.cache.Put(key, matched)
	return matched
}

// #endregion

// #region scoring

// scoreRule computes (satisfied weight / total weight) for one rule.
// A rule with no conditions scores 0. Operator conditions participate
// with an implicit weight of 1.
func (e *Engine) scoreRule(r rules.Rule, snap scene.Snapshot, ec scene.ExecutionContext) (float64, string) {
	if len(r.Conditions) == 0 {
		return 0, "no conditions"
	}

	var total, satisfied float64
	var hits []string
	for _, c := range r.Conditions {
		w := c.Weight
		if !c.IsLegacy() && w == 0 {
			w = 1
		}
		total += w

		ok, err := rules.EvaluateCondition(c, snap, ec)
		if err != nil {
			log.Printf("[ENGINE] rule %q condition %q: %v (treated as unsatisfied)", r.ID, c.Type, err)
			continue
		}
		if ok {
			satisfied += w
			label := c.Type
			if label == "" {
				label = c.Field
			}
			hits = append(hits, label)
		}
	}
	if total == 0 {
		return 0, "zero total weight"
	}

	score := scene.Clamp(satisfied / total)
	explanation := fmt.Sprintf("%d/%d conditions satisfied", len(hits), len(r.Conditions))
	if len(hits) > 0 {
		explanation += " (" + strings.Join(hits, ", ") + ")"
	}
	return score, explanation
}

// #endregion
