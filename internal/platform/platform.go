// Package platform declares the capability surface of the native OS
// bridge. Implementations live out of process on the device; Sim is the
// in-repo stand-in so everything above it runs without real hardware.
package platform

// #region imports
import (
	"context"
	"errors"
)

// #endregion

// #region capability

// Capability names a permission-gated bridge feature.
type Capability string

const (
	CapDoNotDisturb  Capability = "do_not_disturb"
	CapBrightness    Capability = "brightness"
	CapVolumes       Capability = "volumes"
	CapWiFi          Capability = "wifi"
	CapBluetooth     Capability = "bluetooth"
	CapScreenTimeout Capability = "screen_timeout"
	CapUsageStats    Capability = "usage_stats"
	CapAppLaunch     Capability = "app_launch"
)

// ErrPermissionDenied marks a bridge failure caused by a missing
// permission; callers report these as degraded successes, not failures.
var ErrPermissionDenied = errors.New("permission denied")

// #endregion

// #region app-types

// AppInfo describes one installed application.
type AppInfo struct {
	Package     string `json:"package"`
	DisplayName string `json:"display_name"`
	IsSystem    bool   `json:"is_system"`
}

// UsageStat is one app's aggregate foreground usage over a stats window.
type UsageStat struct {
	Package         string  `json:"package"`
	ForegroundHours float64 `json:"foreground_hours"`
	LaunchCount     int     `json:"launch_count"`
}

// #endregion

// #region bridge

// Bridge is the consumed platform capability surface. Every call may
// suspend for platform latency and may fail; failures are caught at the
// point of use and never propagate raw through the rule/action layers.
type Bridge interface {
	InstalledApps(ctx context.Context) ([]AppInfo, error)
	UsageStats(ctx context.Context, days int) ([]UsageStat, error)
	IsAppInstalled(ctx context.Context, pkg string) (bool, error)

	// OpenApp launches pkg; url selects a deep link, "" opens the home surface.
	OpenApp(ctx context.Context, pkg, url string) error
	ValidateDeepLink(ctx context.Context, url string) (bool, error)

	SetDoNotDisturb(ctx context.Context, enabled bool) error
	SetBrightness(ctx context.Context, level int) error
	SetVolumes(ctx context.Context, streams map[string]int) error
	SetWiFi(ctx context.Context, enabled bool) error
	SetBluetooth(ctx context.Context, enabled bool) error
	SetScreenTimeout(ctx context.Context, ms int) error

	HasPermission(ctx context.Context, cap Capability) (bool, error)
}

// #endregion
