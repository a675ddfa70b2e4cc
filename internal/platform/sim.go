package platform

// #region imports
import (
	"context"
	"fmt"
	"sync"
)

// #endregion

// #region sim-struct

// Sim is an in-memory Bridge for the daemon's simulator mode and for
// tests. Failure and permission-denial injection let tests exercise every
// degradation path without a device.
type Sim struct {
	mu          sync.Mutex
	apps        []AppInfo
	usage       []UsageStat
	denied      map[Capability]bool
	failOpen    map[string]bool // key: pkg + "|" + url
	failScan    bool
	Settings    map[string]string // last applied system settings, for assertions
	OpenedLinks []string          // pkg|url launch attempts in order
}

// NewSim creates a simulator with the given installed apps and usage stats.
func NewSim(apps []AppInfo, usage []UsageStat) *Sim {
	return &Sim{
		apps:     apps,
		usage:    usage,
		denied:   make(map[Capability]bool),
		failOpen: make(map[string]bool),
		Settings: make(map[string]string),
	}
}

// #endregion

// #region injection

// DenyPermission makes HasPermission report false and setting calls fail
// with ErrPermissionDenied for the capability.
func (s *Sim) DenyPermission(cap Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[cap] = true
}

// FailOpen makes OpenApp fail for the exact (pkg, url) pair.
func (s *Sim) FailOpen(pkg, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOpen[pkg+"|"+url] = true
}

// FailScan makes InstalledApps return an error, exercising the
// directory's sample-list fallback.
func (s *Sim) FailScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failScan = true
}

// #endregion

// #region app-surface

func (s *Sim) InstalledApps(ctx context.Context) ([]AppInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failScan {
		return nil, fmt.Errorf("sim: app scan unavailable")
	}
	out := make([]AppInfo, len(s.apps))
	copy(out, s.apps)
	return out, nil
}

func (s *Sim) UsageStats(ctx context.Context, days int) ([]UsageStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denied[CapUsageStats] {
		return nil, fmt.Errorf("sim usage stats: %w", ErrPermissionDenied)
	}
	out := make([]UsageStat, len(s.usage))
	copy(out, s.usage)
	return out, nil
}

func (s *Sim) IsAppInstalled(ctx context.Context, pkg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.Package == pkg {
			return true, nil
		}
	}
	return false, nil
}

func (s *Sim) OpenApp(ctx context.Context, pkg, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OpenedLinks = append(s.OpenedLinks, pkg+"|"+url)
	if s.denied[CapAppLaunch] {
		return fmt.Errorf("sim open %s: %w", pkg, ErrPermissionDenied)
	}
	if s.failOpen[pkg+"|"+url] {
		return fmt.Errorf("sim: launch of %s with %q refused", pkg, url)
	}
	installed := false
	for _, a := range s.apps {
		if a.Package == pkg {
			installed = true
			break
		}
	}
	if !installed {
		return fmt.Errorf("sim: %s is not installed", pkg)
	}
	return nil
}

func (s *Sim) ValidateDeepLink(ctx context.Context, url string) (bool, error) {
	return url != "", nil
}

// #endregion

// #region system-surface

func (s *Sim) setting(cap Capability, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denied[cap] {
		return fmt.Errorf("sim set %s: %w", key, ErrPermissionDenied)
	}
	s.Settings[key] = value
	return nil
}

func (s *Sim) SetDoNotDisturb(ctx context.Context, enabled bool) error {
	return s.setting(CapDoNotDisturb, "do_not_disturb", fmt.Sprintf("%v", enabled))
}

func (s *Sim) SetBrightness(ctx context.Context, level int) error {
	return s.setting(CapBrightness, "brightness", fmt.Sprintf("%d", level))
}

func (s *Sim) SetVolumes(ctx context.Context, streams map[string]int) error {
	return s.setting(CapVolumes, "volumes", fmt.Sprintf("%v", streams))
}

func (s *Sim) SetWiFi(ctx context.Context, enabled bool) error {
	return s.setting(CapWiFi, "wifi", fmt.Sprintf("%v", enabled))
}

func (s *Sim) SetBluetooth(ctx context.Context, enabled bool) error {
	return s.setting(CapBluetooth, "bluetooth", fmt.Sprintf("%v", enabled))
}

func (s *Sim) SetScreenTimeout(ctx context.Context, ms int) error {
	return s.setting(CapScreenTimeout, "screen_timeout", fmt.Sprintf("%d", ms))
}

func (s *Sim) HasPermission(ctx context.Context, cap Capability) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.denied[cap], nil
}

// #endregion
