// Package executor runs a matched rule's action list against the
// platform bridge with per-action results and layered launch fallback.
package executor

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Naloam/scenelens/internal/links"
	"github.com/Naloam/scenelens/internal/platform"
	"github.com/Naloam/scenelens/internal/rules"
)

// #endregion

// #region collaborators

// IntentResolver resolves CATEGORY_TOPn intents to installed packages.
// The app directory is the concrete implementation; the executor never
// depends on it directly.
type IntentResolver interface {
	ResolveIntent(intent string) (string, bool)
}

// Notification is the payload forwarded to the presenter.
type Notification struct {
	Title string
	Body  string
	Meta  map[string]string
}

// Presenter surfaces notifications to the user. Delivery is best-effort.
type Presenter interface {
	Present(ctx context.Context, n Notification) error
}

// Recorder receives completed batches for the learning log.
type Recorder interface {
	RecordBatch(batchID, ruleID string, results []Result) error
}

// #endregion

// #region result

// Result is the structured outcome of one action.
// Degraded marks a "success despite failure" permission degradation;
// ViaFallback marks an app opened through the home-surface tier.
type Result struct {
	Action      rules.Action
	Success     bool
	Degraded    bool
	ViaFallback bool
	Err         string
	DurationMS  int64
}

// #endregion

// #region executor-struct

// Executor dispatches actions to the platform bridge. Actions within one
// batch run strictly in order, each awaited to completion before the
// next starts ("mute notifications" must land before "open map app").
type Executor struct {
	bridge    platform.Bridge
	resolver  IntentResolver
	links     *links.Resolver
	presenter Presenter // may be nil
	recorder  Recorder  // may be nil
	entropy   *rand.Rand
	now       func() time.Time
}

// New wires an executor. presenter and recorder may be nil.
func New(bridge platform.Bridge, resolver IntentResolver, lr *links.Resolver, presenter Presenter, recorder Recorder) *Executor {
	return &Executor{
		bridge:    bridge,
		resolver:  resolver,
		links:     lr,
		presenter: presenter,
		recorder:  recorder,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// #endregion

// #region execute

// Execute runs every action in order and returns exactly one result per
// action, in input order. A failing action never aborts its siblings.
func (e *Executor) Execute(ctx context.Context, actions []rules.Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		start := e.now()
		res := e.dispatch(ctx, a)
		res.Action = a
		res.DurationMS = e.now().Sub(start).Milliseconds()
		if !res.Success {
			log.Printf("[EXEC] action %s/%s failed: %s", a.Target, a.Name, res.Err)
		}
		results = append(results, res)
	}
	return results
}

// ExecuteRule runs a rule's actions as a ULID-stamped batch and forwards
// the outcome to the recorder when one is attached.
func (e *Executor) ExecuteRule(ctx context.Context, r rules.Rule) (string, []Result) {
	batchID := ulid.MustNew(ulid.Timestamp(e.now()), e.entropy).String()
	results := e.Execute(ctx, r.Actions)
	if e.recorder != nil {
		if err := e.recorder.RecordBatch(batchID, r.ID, results); err != nil {
			log.Printf("[EXEC] failed to record batch %s: %v", batchID, err)
		}
	}
	return batchID, results
}

// #endregion

// #region dispatch

func (e *Executor) dispatch(ctx context.Context, a rules.Action) Result {
	switch a.Target {
	case rules.TargetSystem:
		return e.runSystem(ctx, a)
	case rules.TargetApp:
		return e.runApp(ctx, a)
	case rules.TargetNotification:
		return e.runNotification(ctx, a)
	}
	return Result{Err: fmt.Sprintf("unknown action target %q", a.Target)}
}

// #endregion

// #region system-actions

func (e *Executor) runSystem(ctx context.Context, a rules.Action) Result {
	var err error
	switch a.Name {
	case "set_do_not_disturb":
		err = e.bridge.SetDoNotDisturb(ctx, a.Params["enabled"] == "true")
	case "set_brightness":
		var level int
		if level, err = strconv.Atoi(a.Params["level"]); err == nil {
			err = e.bridge.SetBrightness(ctx, level)
		}
	case "set_volumes":
		streams := make(map[string]int, len(a.Params))
		for k, v := range a.Params {
			n, convErr := strconv.Atoi(v)
			if convErr != nil {
				return Result{Err: fmt.Sprintf("volume %s: bad level %q", k, v)}
			}
			streams[k] = n
		}
		err = e.bridge.SetVolumes(ctx, streams)
	case "set_wifi":
		err = e.bridge.SetWiFi(ctx, a.Params["enabled"] == "true")
	case "set_bluetooth":
		err = e.bridge.SetBluetooth(ctx, a.Params["enabled"] == "true")
	case "set_screen_timeout":
		var ms int
		if ms, err = strconv.Atoi(a.Params["ms"]); err == nil {
			err = e.bridge.SetScreenTimeout(ctx, ms)
		}
	default:
		return Result{Err: fmt.Sprintf("unknown system operation %q", a.Name)}
	}

	if err != nil {
		if errors.Is(err, platform.ErrPermissionDenied) {
			// Never block the user-visible flow on a missing permission.
			log.Printf("[EXEC] %s denied, reporting degraded success: %v", a.Name, err)
			return Result{Success: true, Degraded: true, Err: err.Error()}
		}
		return Result{Err: err.Error()}
	}
	return Result{Success: true}
}

// #endregion

// #region app-actions

// runApp resolves a package and applies the three-tier launch strategy:
// deep link → home surface → explicit "could not open app" failure that
// the caller turns into a manual-action prompt.
func (e *Executor) runApp(ctx context.Context, a rules.Action) Result {
	pkg := a.Params["package"]
	if a.Intent != "" {
		if resolved, ok := e.resolver.ResolveIntent(a.Intent); ok {
			pkg = resolved
		}
	}
	if pkg == "" {
		return Result{Err: fmt.Sprintf("cannot resolve package for intent %q", a.Intent)}
	}

	// Tier 1: deep link, explicit or from the link registry.
	url := a.DeepLink
	if url == "" && e.links != nil {
		url, _ = e.links.Resolve(pkg, a.Name)
	}
	var tierErrs []string
	if url != "" {
		var err error
		if e.links != nil {
			err = e.links.OpenWithDeepLink(ctx, pkg, url)
		} else {
			err = e.bridge.OpenApp(ctx, pkg, url)
		}
		if err == nil {
			return Result{Success: true}
		}
		tierErrs = append(tierErrs, err.Error())
	}

	// Tier 2: home surface.
	err := e.bridge.OpenApp(ctx, pkg, "")
	if err == nil {
		return Result{Success: true, ViaFallback: url != ""}
	}
	if errors.Is(err, platform.ErrPermissionDenied) {
		log.Printf("[EXEC] launch of %s denied, reporting degraded success: %v", pkg, err)
		return Result{Success: true, Degraded: true, ViaFallback: url != "", Err: err.Error()}
	}
	tierErrs = append(tierErrs, err.Error())

	// Tier 3: explicit failure; the caller surfaces a manual-action prompt.
	return Result{Err: fmt.Sprintf("could not open app %s: %s", pkg, strings.Join(tierErrs, "; "))}
}

// #endregion

// #region notification-actions

// runNotification forwards the payload best-effort. A missing presenter
// is logged, never a failure.
func (e *Executor) runNotification(ctx context.Context, a rules.Action) Result {
	n := Notification{
		Title: a.Params["title"],
		Body:  a.Params["body"],
		Meta:  a.Params,
	}
	if e.presenter == nil {
		log.Printf("[EXEC] no notification presenter wired, dropping %q", n.Title)
		return Result{Success: true, Degraded: true}
	}
	if err := e.presenter.Present(ctx, n); err != nil {
		log.Printf("[EXEC] notification %q not delivered: %v", n.Title, err)
		return Result{Success: true, Degraded: true, Err: err.Error()}
	}
	return Result{Success: true}
}

// #endregion
