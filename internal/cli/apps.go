package cli

import (
	"fmt"
	"strings"

	"github.com/Naloam/scenelens/internal/apps"
	"github.com/spf13/cobra"
)

func init() {
	appsCmd := &cobra.Command{
		Use:   "apps",
		Short: "Show the app directory and category preferences",
		Run:   runApps,
	}

	overrideCmd := &cobra.Command{
		Use:   "override CATEGORY PACKAGE",
		Short: "Pin a package as the top choice for a category",
		Args:  cobra.ExactArgs(2),
		Run:   runAppsOverride,
	}
	appsCmd.AddCommand(overrideCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve INTENT",
		Short: "Resolve an intent (e.g. MUSIC_PLAYER_TOP1) to a package",
		Args:  cobra.ExactArgs(1),
		Run:   runResolve,
	}

	RootCmd.AddCommand(appsCmd, resolveCmd)
}

func runApps(cmd *cobra.Command, args []string) {
	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	if err := s.directory.Initialize(cmd.Context()); err != nil {
		exitErr("scan apps", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "installed:")
	for _, rec := range s.directory.Records() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-32s %-16s %s\n", rec.Package, rec.Category, rec.DisplayName)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "preferences:")
	for _, cat := range apps.Categories() {
		pref, ok := s.directory.Preference(cat)
		if !ok {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %s\n", cat, strings.Join(pref.RankedPackages, " > "))
	}
}

func runAppsOverride(cmd *cobra.Command, args []string) {
	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	if err := s.directory.Initialize(cmd.Context()); err != nil {
		exitErr("scan apps", err)
	}

	s.directory.Override(apps.Category(strings.ToUpper(args[0])), args[1])
	fmt.Fprintf(cmd.OutOrStdout(), "pinned %s for %s\n", args[1], strings.ToUpper(args[0]))
}

func runResolve(cmd *cobra.Command, args []string) {
	s, err := openStack()
	if err != nil {
		exitErr("open", err)
	}
	defer s.Close()

	if err := s.directory.Initialize(cmd.Context()); err != nil {
		exitErr("scan apps", err)
	}

	pkg, ok := s.directory.ResolveIntent(args[0])
	if !ok {
		exitErr("resolve", fmt.Errorf("no package for intent %q", args[0]))
	}
	fmt.Fprintln(cmd.OutOrStdout(), pkg)
}
