// Package apps maintains the installed-application directory: heuristic
// categorization, usage-based ranking, and intent resolution.
package apps

// #region imports
import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Naloam/scenelens/internal/cache"
	"github.com/Naloam/scenelens/internal/platform"
)

// #endregion

// #region category

// Category buckets an app for intent resolution.
type Category string

const (
	CategoryMusic     Category = "MUSIC_PLAYER"
	CategoryTransit   Category = "TRANSIT_APP"
	CategoryPayment   Category = "PAYMENT_APP"
	CategoryMeeting   Category = "MEETING_APP"
	CategoryStudy     Category = "STUDY_APP"
	CategorySmartHome Category = "SMART_HOME"
	CategoryCalendar  Category = "CALENDAR"
	CategoryOther     Category = "OTHER"
)

// Categories lists the resolvable categories in display order.
func Categories() []Category {
	return []Category{
		CategoryMusic, CategoryTransit, CategoryPayment, CategoryMeeting,
		CategoryStudy, CategorySmartHome, CategoryCalendar,
	}
}

// #endregion

// #region keywords

// Per-category keyword sets, matched case-insensitively against package
// name and display name. Payment before music — "qq music pay" style
// wallet bundles should land in payment.
var categoryKeywords = []struct {
	Category Category
	Keywords []string
}{
	{CategoryPayment, []string{"pay", "wallet", "alipay", "venmo", "cash.app", "bank"}},
	{CategoryTransit, []string{"transit", "metro", "subway", "bus", "maps", "citymapper", "uber", "lyft", "didi"}},
	{CategoryMeeting, []string{"zoom", "meet", "teams", "webex", "conference", "dingtalk"}},
	{CategoryMusic, []string{"music", "spotify", "player", "audio", "podcast", "fm"}},
	{CategoryStudy, []string{"study", "anki", "flashcard", "notion", "notes", "kindle", "duolingo"}},
	{CategorySmartHome, []string{"home", "hue", "smartthings", "mihome", "tuya"}},
	{CategoryCalendar, []string{"calendar", "schedule", "agenda"}},
}

// fallbackPackages fills categories the usage ranking left empty so
// intent resolution always has something to resolve to.
var fallbackPackages = map[Category][]string{
	CategoryMusic:     {"com.spotify.music", "com.apple.android.music"},
	CategoryTransit:   {"com.google.android.apps.maps", "com.citymapper.app.release"},
	CategoryPayment:   {"com.eg.android.AlipayGphone", "com.paypal.android.p2pmobile"},
	CategoryMeeting:   {"us.zoom.videomeetings", "com.google.android.apps.meetings"},
	CategoryStudy:     {"com.ichi2.anki", "com.notion.id"},
	CategorySmartHome: {"com.xiaomi.smarthome", "com.google.android.apps.chromecast.app"},
	CategoryCalendar:  {"com.google.android.calendar"},
}

// sampleApps keeps the directory usable when the platform scan fails or
// returns nothing. Deliberate degradation, not a bug.
var sampleApps = []platform.AppInfo{
	{Package: "com.spotify.music", DisplayName: "Spotify"},
	{Package: "com.google.android.apps.maps", DisplayName: "Maps"},
	{Package: "com.eg.android.AlipayGphone", DisplayName: "Alipay"},
	{Package: "us.zoom.videomeetings", DisplayName: "Zoom"},
	{Package: "com.ichi2.anki", DisplayName: "AnkiDroid"},
	{Package: "com.xiaomi.smarthome", DisplayName: "Mi Home"},
	{Package: "com.google.android.calendar", DisplayName: "Calendar"},
}

// #endregion

// #region records

// Record is one categorized installed application.
type Record struct {
	Package     string
	DisplayName string
	Category    Category
	IsSystem    bool
}

// Preference is a category's ranked package list, best first.
// Rebuilt wholesale on refresh; patched only by explicit Override.
type Preference struct {
	Category       Category
	RankedPackages []string
	LastUpdated    time.Time
}

// #endregion

// #region directory-struct

// Directory scans, categorizes and ranks installed apps.
// Single writer (Initialize/Override), multiple readers.
type Directory struct {
	mu          sync.RWMutex
	bridge      platform.Bridge
	records     map[string]Record
	preferences map[Category]Preference
	intents     *cache.Cache
	now         func() time.Time
}

// New creates an empty directory; call Initialize before resolving intents.
func New(bridge platform.Bridge) *Directory {
	return &Directory{
		bridge:      bridge,
		records:     make(map[string]Record),
		preferences: make(map[Category]Preference),
		intents: cache.New(cache.Config{
			Capacity: 64,
			TTL:      10 * time.Minute,
		}),
		now: time.Now,
	}
}

// Close releases the intent resolution cache.
func (d *Directory) Close() {
	d.intents.Close()
}

// #endregion

// #region initialize

// Initialize scans installed apps (sample list on failure/empty),
// categorizes them, pulls best-effort usage stats, and rebuilds the
// per-category preference lists.
func (d *Directory) Initialize(ctx context.Context) error {
	apps, err := d.bridge.InstalledApps(ctx)
	if err != nil || len(apps) == 0 {
		if err != nil {
			log.Printf("[APPS] app scan failed, using sample list: %v", err)
		} else {
			log.Printf("[APPS] app scan returned nothing, using sample list")
		}
		apps = sampleApps
	}

	records := make(map[string]Record, len(apps))
	for _, a := range apps {
		records[a.Package] = Record{
			Package:     a.Package,
			DisplayName: a.DisplayName,
			Category:    Categorize(a.Package, a.DisplayName),
			IsSystem:    a.IsSystem,
		}
	}

	// Usage stats are best-effort; absence never aborts initialization.
	usage, err := d.bridge.UsageStats(ctx, 7)
	if err != nil {
		log.Printf("[APPS] usage stats unavailable: %v", err)
		usage = nil
	}

	prefs := buildPreferences(records, usage, d.now())

	d.mu.Lock()
	d.records = records
	d.preferences = prefs
	d.mu.Unlock()
	d.intents.Clear()

	log.Printf("[APPS] directory ready: %d apps, %d ranked categories", len(records), len(prefs))
	return nil
}

// #endregion

// #region categorize

// Categorize applies the keyword heuristic over package and display name.
func Categorize(pkg, displayName string) Category {
	haystack := strings.ToLower(pkg + " " + displayName)
	for _, set := range categoryKeywords {
		for _, kw := range set.Keywords {
			if strings.Contains(haystack, kw) {
				return set.Category
			}
		}
	}
	return CategoryOther
}

// #endregion

// #region ranking

const keepTopN = 3

// buildPreferences ranks each category by usage score and fills empty
// categories from the fallback package lists.
func buildPreferences(records map[string]Record, usage []platform.UsageStat, now time.Time) map[Category]Preference {
	usageByPkg := make(map[string]platform.UsageStat, len(usage))
	for _, u := range usage {
		usageByPkg[u.Package] = u
	}

	type scored struct {
		pkg   string
		score float64
	}
	byCategory := make(map[Category][]scored)
	for pkg, rec := range records {
		if rec.Category == CategoryOther {
			continue
		}
		u := usageByPkg[pkg]
		s := u.ForegroundHours*0.6 + float64(u.LaunchCount)*0.4
		byCategory[rec.Category] = append(byCategory[rec.Category], scored{pkg, s})
	}

	prefs := make(map[Category]Preference)
	for cat, list := range byCategory {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].score != list[j].score {
				return list[i].score > list[j].score
			}
			return list[i].pkg < list[j].pkg // deterministic on score ties
		})
		if len(list) > keepTopN {
			list = list[:keepTopN]
		}
		ranked := make([]string, len(list))
		for i, s := range list {
			ranked[i] = s.pkg
		}
		prefs[cat] = Preference{Category: cat, RankedPackages: ranked, LastUpdated: now}
	}

	// Fill categories with no ranked app from the fallback lists,
	// preferring an installed candidate.
	for cat, candidates := range fallbackPackages {
		if p, ok := prefs[cat]; ok && len(p.RankedPackages) > 0 {
			continue
		}
		pick := candidates[0]
		for _, c := range candidates {
			if _, installed := records[c]; installed {
				pick = c
				break
			}
		}
		prefs[cat] = Preference{Category: cat, RankedPackages: []string{pick}, LastUpdated: now}
	}

	return prefs
}

// #endregion

// #region accessors

// Records returns every categorized app, sorted by package name.
func (d *Directory) Records() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// Preference returns a category's ranked list.
func (d *Directory) Preference(cat Category) (Preference, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.preferences[cat]
	return p, ok
}

// Override pins a package to the front of a category's ranking.
// The only partial patch allowed outside a full refresh.
func (d *Directory) Override(cat Category, pkg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.preferences[cat]
	ranked := []string{pkg}
	for _, existing := range p.RankedPackages {
		if existing != pkg {
			ranked = append(ranked, existing)
		}
	}
	if len(ranked) > keepTopN {
		ranked = ranked[:keepTopN]
	}
	d.preferences[cat] = Preference{Category: cat, RankedPackages: ranked, LastUpdated: d.now()}
	d.intents.Clear()
	log.Printf("[APPS] override: %s now leads %s", pkg, cat)
}

// #endregion
