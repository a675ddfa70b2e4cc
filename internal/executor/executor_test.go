package executor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Naloam/scenelens/internal/links"
	"github.com/Naloam/scenelens/internal/platform"
	"github.com/Naloam/scenelens/internal/rules"
)

type staticResolver map[string]string

func (r staticResolver) ResolveIntent(intent string) (string, bool) {
	pkg, ok := r[intent]
	return pkg, ok
}

type capturingPresenter struct {
	sent []Notification
	fail bool
}

func (p *capturingPresenter) Present(ctx context.Context, n Notification) error {
	if p.fail {
		return fmt.Errorf("presenter offline")
	}
	p.sent = append(p.sent, n)
	return nil
}

func testSim() *platform.Sim {
	return platform.NewSim([]platform.AppInfo{
		{Package: "com.spotify.music", DisplayName: "Spotify"},
		{Package: "com.google.android.apps.maps", DisplayName: "Maps"},
	}, nil)
}

func newExecutor(sim *platform.Sim, presenter Presenter) *Executor {
	resolver := staticResolver{
		"MUSIC_PLAYER_TOP1": "com.spotify.music",
		"TRANSIT_APP_TOP1":  "com.google.android.apps.maps",
	}
	return New(sim, resolver, links.NewResolver(sim), presenter, nil)
}

func TestExecute_ResultCompleteness(t *testing.T) {
	sim := testSim()
	e := newExecutor(sim, nil)

	actions := []rules.Action{
		{Target: rules.TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
		{Target: rules.TargetSystem, Name: "summon_helicopter"}, // unknown op
		{Target: rules.TargetApp, Name: "open_music", Intent: "MUSIC_PLAYER_TOP1"},
	}
	results := e.Execute(context.Background(), actions)

	if len(results) != len(actions) {
		t.Fatalf("got %d results, want %d", len(results), len(actions))
	}
	for i := range results {
		if results[i].Action.Name != actions[i].Name {
			t.Errorf("result %d out of order: %q", i, results[i].Action.Name)
		}
		if results[i].DurationMS < 0 {
			t.Errorf("result %d: negative duration", i)
		}
	}
	if !results[0].Success || !results[2].Success {
		t.Error("valid actions must succeed despite a failing sibling")
	}
	if results[1].Success {
		t.Error("unknown system operation must fail its own action only")
	}
	if sim.Settings["do_not_disturb"] != "true" {
		t.Error("do-not-disturb was not applied")
	}
}

func TestExecute_AllFailingStillComplete(t *testing.T) {
	e := newExecutor(testSim(), nil)
	actions := []rules.Action{
		{Target: rules.TargetSystem, Name: "nope_1"},
		{Target: rules.TargetSystem, Name: "nope_2"},
		{Target: "teleport", Name: "nope_3"},
	}
	results := e.Execute(context.Background(), actions)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Success || r.Err == "" {
			t.Errorf("result %d: expected structured failure, got %+v", i, r)
		}
	}
}

func TestRunApp_DeepLinkDirectSuccess(t *testing.T) {
	e := newExecutor(testSim(), nil)
	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetApp, Name: "open_music", Intent: "MUSIC_PLAYER_TOP1", DeepLink: "spotify://playlist/focus"},
	})
	r := results[0]
	if !r.Success || r.ViaFallback {
		t.Fatalf("want direct success, got %+v", r)
	}
}

func TestRunApp_ThreeTier_FallbackToHome(t *testing.T) {
	sim := testSim()
	sim.FailOpen("com.spotify.music", "spotify://playlist/focus")
	e := newExecutor(sim, nil)

	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetApp, Name: "open_music", Intent: "MUSIC_PLAYER_TOP1", DeepLink: "spotify://playlist/focus"},
	})
	r := results[0]
	if !r.Success {
		t.Fatalf("want fallback success, got %+v", r)
	}
	if !r.ViaFallback {
		t.Error("home-surface success must be observably distinct from a direct one")
	}
}

func TestRunApp_ThreeTier_TotalFailure(t *testing.T) {
	sim := testSim()
	sim.FailOpen("com.spotify.music", "spotify://playlist/focus")
	sim.FailOpen("com.spotify.music", "")
	e := newExecutor(sim, nil)

	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetApp, Name: "open_music", Intent: "MUSIC_PLAYER_TOP1", DeepLink: "spotify://playlist/focus"},
	})
	r := results[0]
	if r.Success {
		t.Fatalf("want failure, got %+v", r)
	}
	if !strings.Contains(r.Err, "could not open app") {
		t.Errorf("error %q must carry the manual-prompt marker", r.Err)
	}
}

func TestRunApp_CannotResolvePackage(t *testing.T) {
	e := newExecutor(testSim(), nil)
	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetApp, Name: "open_mystery", Intent: "MYSTERY_APP_TOP1"},
	})
	r := results[0]
	if r.Success || !strings.Contains(r.Err, "cannot resolve package") {
		t.Fatalf("got %+v, want resolution failure", r)
	}
}

func TestRunApp_ExplicitPackageParam(t *testing.T) {
	e := newExecutor(testSim(), nil)
	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetApp, Name: "open_maps", Params: map[string]string{"package": "com.google.android.apps.maps"}},
	})
	if !results[0].Success {
		t.Fatalf("explicit package launch failed: %+v", results[0])
	}
}

func TestRunSystem_PermissionDeniedIsDegradedSuccess(t *testing.T) {
	sim := testSim()
	sim.DenyPermission(platform.CapDoNotDisturb)
	e := newExecutor(sim, nil)

	results := e.Execute(context.Background(), []rules.Action{
		{Target: rules.TargetSystem, Name: "set_do_not_disturb", Params: map[string]string{"enabled": "true"}},
	})
	r := results[0]
	if !r.Success {
		t.Fatal("permission denial must not block the user-visible flow")
	}
	if !r.Degraded {
		t.Error("masked failure must be marked degraded")
	}
}

func TestRunNotification_BestEffort(t *testing.T) {
	t.Run("no presenter wired", func(t *testing.T) {
		e := newExecutor(testSim(), nil)
		results := e.Execute(context.Background(), []rules.Action{
			{Target: rules.TargetNotification, Name: "summary", Params: map[string]string{"title": "Hi"}},
		})
		if !results[0].Success || !results[0].Degraded {
			t.Fatalf("got %+v, want degraded success", results[0])
		}
	})

	t.Run("presenter delivers", func(t *testing.T) {
		p := &capturingPresenter{}
		e := newExecutor(testSim(), p)
		results := e.Execute(context.Background(), []rules.Action{
			{Target: rules.TargetNotification, Name: "summary", Params: map[string]string{"title": "Hi", "body": "there"}},
		})
		if !results[0].Success || results[0].Degraded {
			t.Fatalf("got %+v, want clean success", results[0])
		}
		if len(p.sent) != 1 || p.sent[0].Title != "Hi" {
			t.Fatalf("presenter got %+v", p.sent)
		}
	})

	t.Run("presenter failing is non-fatal", func(t *testing.T) {
		e := newExecutor(testSim(), &capturingPresenter{fail: true})
		results := e.Execute(context.Background(), []rules.Action{
			{Target: rules.TargetNotification, Name: "summary", Params: map[string]string{"title": "Hi"}},
		})
		if !results[0].Success || !results[0].Degraded {
			t.Fatalf("got %+v, want degraded success", results[0])
		}
	})
}

func TestExecuteRule_BatchID(t *testing.T) {
	e := newExecutor(testSim(), nil)
	r := rules.Rule{
		ID: "RULE_X",
		Actions: []rules.Action{
			{Target: rules.TargetSystem, Name: "set_wifi", Params: map[string]string{"enabled": "false"}},
		},
	}
	batchID, results := e.ExecuteRule(context.Background(), r)
	if batchID == "" {
		t.Fatal("expected a batch id")
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("got %+v", results)
	}
}
