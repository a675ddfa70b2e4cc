// Package lifecycle layers persisted rule CRUD, cooldown suppression and
// boolean condition trees on top of the matching primitives.
package lifecycle

// #region imports
import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Naloam/scenelens/internal/rules"
)

// #endregion

// #region keys

// The store is an opaque KV namespace: one entry for the serialized rule
// list, one for the trigger-history document. Both are read at startup
// and rewritten on every mutation.
const (
	keyRules          = "rules"
	keyTriggerHistory = "trigger_history"
)

// #endregion

// #region store-struct

// Store persists rules and trigger history in BadgerDB.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) the rule database at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open rule store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// #endregion

// #region rules-entry

// LoadRules reads the persisted rule list; (nil, nil) when none exists.
func (s *Store) LoadRules() ([]rules.Rule, error) {
	var out []rules.Rule
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyRules))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return out, nil
}

// SaveRules rewrites the full rule list entry.
func (s *Store) SaveRules(set []rules.Rule) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyRules), data)
	})
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// #endregion

// #region trigger-history

// TriggerRecord is one rule's persisted trigger state.
type TriggerRecord struct {
	RuleID        string    `json:"rule_id"`
	LastTriggered time.Time `json:"last_triggered"`
	TriggerCount  int       `json:"trigger_count"`
}

// LoadTriggerHistory reads the trigger-history document.
func (s *Store) LoadTriggerHistory() (map[string]TriggerRecord, error) {
	out := make(map[string]TriggerRecord)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyTriggerHistory))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load trigger history: %w", err)
	}
	return out, nil
}

// RecordTrigger bumps a rule's trigger state inside the stored document,
// patching the two fields in place rather than re-marshalling the map.
func (s *Store) RecordTrigger(ruleID string, at time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		doc := []byte("{}")
		item, err := txn.Get([]byte(keyTriggerHistory))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				doc = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		count := gjson.GetBytes(doc, ruleID+".trigger_count").Int() + 1
		doc, err = sjson.SetBytes(doc, ruleID+".rule_id", ruleID)
		if err != nil {
			return err
		}
		doc, err = sjson.SetBytes(doc, ruleID+".last_triggered", at.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		doc, err = sjson.SetBytes(doc, ruleID+".trigger_count", count)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyTriggerHistory), doc)
	})
	if err != nil {
		return fmt.Errorf("record trigger: %w", err)
	}
	return nil
}

// #endregion
