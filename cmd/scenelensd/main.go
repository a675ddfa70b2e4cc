package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Naloam/scenelens/internal/apps"
	"github.com/Naloam/scenelens/internal/engine"
	"github.com/Naloam/scenelens/internal/executor"
	"github.com/Naloam/scenelens/internal/history"
	"github.com/Naloam/scenelens/internal/lifecycle"
	"github.com/Naloam/scenelens/internal/links"
	"github.com/Naloam/scenelens/internal/platform"
	"github.com/Naloam/scenelens/internal/rules"
	"github.com/Naloam/scenelens/internal/scene"
)

// #region presenter

// stdoutPresenter prints notifications to the terminal; it stands in
// for the platform notification tray.
type stdoutPresenter struct{}

func (stdoutPresenter) Present(_ context.Context, n executor.Notification) error {
	fmt.Printf("  [notify] %s — %s\n", n.Title, n.Body)
	return nil
}

// #endregion

// #region main
func main() {
	rulesDir := envOr("SCENELENS_RULES_DIR", "scenelens_rules")
	historyDB := envOr("SCENELENS_HISTORY_DB", "scenelens_history.db")
	threshold := envFloat("SCENELENS_THRESHOLD", engine.DefaultConfig().MatchThreshold)

	// Simulated device: a handful of installed apps with usage history so
	// intent resolution and launches have something to act on.
	bridge := platform.NewSim(
		[]platform.AppInfo{
			{Package: "com.spotify.music", DisplayName: "Spotify"},
			{Package: "com.google.android.apps.maps", DisplayName: "Maps"},
			{Package: "com.eg.android.AlipayGphone", DisplayName: "Alipay"},
			{Package: "us.zoom.videomeetings", DisplayName: "Zoom"},
			{Package: "com.google.android.calendar", DisplayName: "Calendar"},
		},
		[]platform.UsageStat{
			{Package: "com.spotify.music", ForegroundHours: 14, LaunchCount: 40},
			{Package: "com.google.android.apps.maps", ForegroundHours: 6, LaunchCount: 25},
		},
	)

	store, err := lifecycle.OpenStore(rulesDir)
	if err != nil {
		log.Fatalf("failed to open rule store: %v", err)
	}
	defer store.Close()

	hist, err := history.NewStore(historyDB)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer hist.Close()

	directory := apps.New(bridge)
	defer directory.Close()
	if err := directory.Initialize(context.Background()); err != nil {
		log.Printf("app directory init: %v", err)
	}

	resolver := links.NewResolver(bridge)
	exec := executor.New(bridge, directory, resolver, stdoutPresenter{}, hist)

	manager, err := lifecycle.NewManager(store, exec)
	if err != nil {
		log.Fatalf("failed to load rules: %v", err)
	}

	cfg := engine.DefaultConfig()
	cfg.MatchThreshold = threshold
	eng := engine.New(cfg)
	eng.Load(manager.Rules())
	defer eng.Close()

	fmt.Println("SceneLens daemon ready.")
	fmt.Printf("  Rules: %s | History: %s | Threshold: %.2f\n", rulesDir, historyDB, threshold)
	fmt.Println("Paste a context snapshot as one JSON line (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		var snap scene.Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			log.Printf("snapshot parse error: %v", err)
			continue
		}
		if snap.Timestamp.IsZero() {
			snap.Timestamp = time.Now()
		}

		// Rule edits from other clients land between snapshots.
		eng.Load(manager.Rules())

		matched := eng.Match(snap)
		if len(matched) == 0 {
			fmt.Println("  no rules matched")
			continue
		}

		for _, m := range matched {
			fmt.Printf("  %s score=%.2f mode=%s (%s)\n", m.Rule.ID, m.Score, m.Rule.Mode, m.Explanation)
			if !m.Rule.OffCooldown(time.Now()) {
				fmt.Println("    skipped: cooling down")
				continue
			}
			switch m.Rule.Mode {
			case rules.ModeAuto:
				runRule(manager, m.Rule.ID)
			case rules.ModeOneTap:
				fmt.Print("    run now? [y/N] ")
				if scanner.Scan() && strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
					runRule(manager, m.Rule.ID)
				}
			default:
				fmt.Println("    suggestion only, not executed")
			}
		}
	}
}

// runRule executes through the manager so cooldown state persists.
func runRule(manager *lifecycle.Manager, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := manager.ExecuteRule(ctx, id)
	if err != nil {
		log.Printf("execute error: %v", err)
		return
	}
	for _, r := range results {
		status := "ok"
		switch {
		case !r.Success:
			status = "failed: " + r.Err
		case r.Degraded:
			status = "degraded"
		case r.ViaFallback:
			status = "fallback"
		}
		fmt.Printf("    %s %s -> %s (%dms)\n", r.Action.Target, r.Action.Name, status, r.DurationMS)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("ignoring non-numeric %s=%q", key, v)
	}
	return fallback
}

// #endregion helpers
