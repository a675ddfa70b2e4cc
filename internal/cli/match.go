package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Naloam/scenelens/internal/engine"
	"github.com/Naloam/scenelens/internal/scene"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "match [snapshot.json]",
		Short: "Score the rule set against a context snapshot",
		Long:  "Reads a snapshot from the given file (or stdin) and prints every rule that clears the match threshold, best first. Nothing is executed.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runMatch,
	}
	cmd.Flags().Float64("threshold", engine.DefaultConfig().MatchThreshold, "Minimum score a rule must exceed")
	RootCmd.AddCommand(cmd)
}

func runMatch(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		exitErr("read snapshot", err)
	}

	var snap scene.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		exitErr("parse snapshot", err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	cfg := engine.DefaultConfig()
	cfg.MatchThreshold = threshold
	eng := engine.New(cfg)
	defer eng.Close()
	eng.Load(s.manager.Rules())

	matched := eng.Match(snap)
	if len(matched) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no rules matched")
		return
	}
	for _, m := range matched {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-8s score=%.2f  %s\n", m.Rule.ID, m.Rule.Priority, m.Score, m.Explanation)
	}
}
