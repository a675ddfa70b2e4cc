// Package links maps packages and actions to deep links and tracks
// per-link health so launches can degrade to the home surface.
package links

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Naloam/scenelens/internal/platform"
)

// #endregion

// #region deep-link

// ActionHome is the degradation target when a specific link is unhealthy.
const ActionHome = "open_home"

// DeepLink is one (action, url, priority) entry for a package.
type DeepLink struct {
	Action   string `json:"action"`
	URL      string `json:"url"`
	Priority int    `json:"priority"` // lower first
}

// #endregion

// #region builtin-registry

// builtinLinks seeds the resolver for commonly targeted packages.
var builtinLinks = map[string][]DeepLink{
	"com.spotify.music": {
		{Action: "play_commute_playlist", URL: "spotify://playlist/commute", Priority: 1},
		{Action: ActionHome, URL: "spotify://", Priority: 9},
	},
	"com.google.android.apps.maps": {
		{Action: "navigate_work", URL: "google.navigation:q=work", Priority: 1},
		{Action: "navigate_home", URL: "google.navigation:q=home", Priority: 2},
		{Action: ActionHome, URL: "geo:", Priority: 9},
	},
	"com.eg.android.AlipayGphone": {
		{Action: "show_transit_code", URL: "alipays://platformapi/startapp?appId=200011235", Priority: 1},
		{Action: ActionHome, URL: "alipays://", Priority: 9},
	},
	"us.zoom.videomeetings": {
		{Action: "join_next_meeting", URL: "zoomus://zoom.us/join", Priority: 1},
		{Action: ActionHome, URL: "zoomus://", Priority: 9},
	},
}

// #endregion

// #region resolver-struct

// Resolver resolves deep links with advisory health tracking.
type Resolver struct {
	mu        sync.Mutex
	bridge    platform.Bridge
	links     map[string][]DeepLink
	unhealthy map[string]bool // key: pkg + "|" + url
}

// NewResolver creates a resolver over the builtin registry.
func NewResolver(bridge platform.Bridge) *Resolver {
	links := make(map[string][]DeepLink, len(builtinLinks))
	for pkg, ls := range builtinLinks {
		sorted := make([]DeepLink, len(ls))
		copy(sorted, ls)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
		links[pkg] = sorted
	}
	return &Resolver{
		bridge:    bridge,
		links:     links,
		unhealthy: make(map[string]bool),
	}
}

// SetLinks replaces one package's link list (configuration load path).
func (r *Resolver) SetLinks(pkg string, ls []DeepLink) {
	sorted := make([]DeepLink, len(ls))
	copy(sorted, ls)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[pkg] = sorted
}

// #endregion

// #region resolve

// Resolve picks a URL for (pkg, action). With an action: that action's
// URL unless marked unhealthy, else the package's home URL. Without one:
// the first healthy URL, else the first URL regardless.
func (r *Resolver) Resolve(pkg, action string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ls := r.links[pkg]
	if len(ls) == 0 {
		return "", false
	}

	if action != "" {
		for _, l := range ls {
			if l.Action != action {
				continue
			}
			if !r.unhealthy[pkg+"|"+l.URL] {
				return l.URL, true
			}
			// Unhealthy specific link: degrade to the home surface.
			for _, h := range ls {
				if h.Action == ActionHome {
					return h.URL, true
				}
			}
			return "", false
		}
		return "", false
	}

	for _, l := range ls {
		if !r.unhealthy[pkg+"|"+l.URL] {
			return l.URL, true
		}
	}
	return ls[0].URL, true
}

// #endregion

// #region open

// OpenWithDeepLink attempts url via the platform bridge and records the
// outcome in the health cache. Health is advisory: an explicit url is
// always attempted, even when previously marked unhealthy.
func (r *Resolver) OpenWithDeepLink(ctx context.Context, pkg, url string) error {
	err := r.bridge.OpenApp(ctx, pkg, url)

	r.mu.Lock()
	key := pkg + "|" + url
	if err != nil {
		if !r.unhealthy[key] {
			log.Printf("[LINKS] marking %s unhealthy: %v", key, err)
		}
		r.unhealthy[key] = true
	} else {
		delete(r.unhealthy, key)
	}
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("open %s with %q: %w", pkg, url, err)
	}
	return nil
}

// Healthy reports whether (pkg, url) has no recorded failure.
func (r *Resolver) Healthy(pkg, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.unhealthy[pkg+"|"+url]
}

// #endregion
