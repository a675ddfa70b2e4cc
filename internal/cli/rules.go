package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Naloam/scenelens/internal/rules"
	"github.com/spf13/cobra"
)

func init() {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the persisted rule set",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		Run:   runRulesList,
	}
	listCmd.Flags().Bool("json", false, "Emit the raw rule documents")

	addCmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Add rules from a JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRulesAdd,
	}

	rmCmd := &cobra.Command{
		Use:   "rm RULE_ID",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesRm,
	}

	enableCmd := &cobra.Command{
		Use:   "enable RULE_ID",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], true) },
	}

	disableCmd := &cobra.Command{
		Use:   "disable RULE_ID",
		Short: "Disable a rule",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], false) },
	}

	rulesCmd.AddCommand(listCmd, addCmd, rmCmd, enableCmd, disableCmd)
	RootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	set := s.manager.Rules()
	if asJSON {
		out, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			exitErr("encode", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return
	}

	for _, r := range set {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-8s %-12s %s  triggered=%d  %s\n",
			r.ID, r.Priority, r.Mode, state, r.TriggerCount, r.Name)
	}
}

func runRulesAdd(cmd *cobra.Command, args []string) {
	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		exitErr("read rules", err)
	}

	parsed, err := rules.ParseRules(raw)
	if err != nil {
		exitErr("parse rules", err)
	}
	if len(parsed) == 0 {
		exitErr("parse rules", fmt.Errorf("no usable rules in input"))
	}

	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	for _, r := range parsed {
		added, err := s.manager.AddRule(r)
		if err != nil {
			exitErr("add "+r.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", added.ID)
	}
}

func runRulesRm(cmd *cobra.Command, args []string) {
	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	if err := s.manager.RemoveRule(args[0]); err != nil {
		exitErr("rm", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
}

func setEnabled(id string, enabled bool) {
	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	if err := s.manager.SetEnabled(id, enabled); err != nil {
		exitErr("update", err)
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("%s %s\n", state, id)
}
