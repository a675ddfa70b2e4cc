package apps

// #region imports
import (
	"regexp"
	"strconv"
)

// #endregion

// #region grammar

// intentPattern is the sole contract between the rule layer and the
// directory: CATEGORY_TOPn, e.g. TRANSIT_APP_TOP1.
var intentPattern = regexp.MustCompile(`^(\w+)_TOP(\d+)$`)

// ParseIntent splits an intent string into category and 1-based rank.
// Inputs outside the grammar return ok=false, never an error or panic.
func ParseIntent(intent string) (Category, int, bool) {
	m := intentPattern.FindStringSubmatch(intent)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return Category(m[1]), n, true
}

// #endregion

// #region resolve

// ResolveIntent maps CATEGORY_TOPn to the n-th ranked package of the
// category. Unknown category or out-of-range rank resolves to ("", false).
// Results are memoized keyed by the raw intent string.
func (d *Directory) ResolveIntent(intent string) (string, bool) {
	if v, ok := d.intents.Get(intent); ok {
		pkg := v.(string)
		return pkg, pkg != ""
	}

	pkg := d.resolve(intent)
	d.intents.Put(intent, pkg)
	return pkg, pkg != ""
}

func (d *Directory) resolve(intent string) string {
	cat, n, ok := ParseIntent(intent)
	if !ok {
		return ""
	}
	pref, ok := d.Preference(cat)
	if !ok || n > len(pref.RankedPackages) {
		return ""
	}
	return pref.RankedPackages[n-1]
}

// #endregion
