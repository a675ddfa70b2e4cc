// Package cli implements the scenectl maintenance commands.
package cli

import (
	"fmt"
	"os"

	"github.com/Naloam/scenelens/internal/apps"
	"github.com/Naloam/scenelens/internal/executor"
	"github.com/Naloam/scenelens/internal/history"
	"github.com/Naloam/scenelens/internal/lifecycle"
	"github.com/Naloam/scenelens/internal/links"
	"github.com/Naloam/scenelens/internal/platform"
	"github.com/spf13/cobra"
)

var (
	rulesDirFlag  string
	historyDBFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "scenectl",
	Short: "Inspect and edit SceneLens rules, apps, and history",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&rulesDirFlag, "rules-dir", "", "Rule store directory (default: $SCENELENS_RULES_DIR or scenelens_rules)")
	RootCmd.PersistentFlags().StringVar(&historyDBFlag, "history-db", "", "Execution history database (default: $SCENELENS_HISTORY_DB or scenelens_history.db)")
}

func rulesDir() string {
	if rulesDirFlag != "" {
		return rulesDirFlag
	}
	if env := os.Getenv("SCENELENS_RULES_DIR"); env != "" {
		return env
	}
	return "scenelens_rules"
}

func historyDB() string {
	if historyDBFlag != "" {
		return historyDBFlag
	}
	if env := os.Getenv("SCENELENS_HISTORY_DB"); env != "" {
		return env
	}
	return "scenelens_history.db"
}

// stack bundles the wiring shared by the rule and app commands.
type stack struct {
	bridge    platform.Bridge
	directory *apps.Directory
	manager   *lifecycle.Manager

	store *lifecycle.Store
}

func openStack() (*stack, error) {
	store, err := lifecycle.OpenStore(rulesDir())
	if err != nil {
		return nil, fmt.Errorf("open rule store: %w", err)
	}

	bridge := platform.NewSim(nil, nil)
	directory := apps.New(bridge)
	exec := executor.New(bridge, directory, links.NewResolver(bridge), nil, nil)

	manager, err := lifecycle.NewManager(store, exec)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return &stack{bridge: bridge, directory: directory, manager: manager, store: store}, nil
}

func (s *stack) Close() {
	s.directory.Close()
	s.store.Close()
}

func openHistory() (*history.Store, error) {
	return history.NewStore(historyDB())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
