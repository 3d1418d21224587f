package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/autopin/internal/export"
	"github.com/lotas/autopin/internal/firefox"
	"github.com/lotas/autopin/internal/pinner"
	"github.com/spf13/cobra"
)

var defaultMark = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("[default]")

func newScanCmd(a *app) *cobra.Command {
	var (
		profile string
		asJSON  bool
		out     string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Preview which open Firefox tabs the rules would pin",
		Long: `scan reads the session file of a Firefox profile and reports which open
tabs the current rule set would pin and the order pinned tabs would take.
Nothing in the browser is changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				profile = a.cfg.Firefox.Profile
			}
			profiles, err := firefox.DiscoverProfiles()
			if err != nil {
				return fmt.Errorf("discover profiles: %w", err)
			}
			p, err := firefox.SelectProfile(profiles, profile)
			if err != nil {
				return err
			}
			data, err := firefox.ReadProfileSession(p)
			if err != nil {
				return err
			}

			rs, err := a.loadRules(cmd.Context())
			if err != nil {
				return err
			}
			res := pinner.Scan(rs, data.Tabs)

			var output string
			if asJSON {
				if output, err = export.ScanJSON(data, rs, res); err != nil {
					return err
				}
			} else {
				output = export.ScanMarkdown(data, rs, res)
			}

			if out == "" {
				fmt.Print(output)
				return nil
			}
			if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Firefox profile name (default from config, else the default profile)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of markdown")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newProfilesCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List Firefox profiles that have a session file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			profiles, err := firefox.DiscoverProfiles()
			if err != nil {
				return fmt.Errorf("discover profiles: %w", err)
			}
			if len(profiles) == 0 {
				return fmt.Errorf("no Firefox profiles found")
			}
			for _, p := range profiles {
				suffix := ""
				if p.IsDefault {
					suffix = " " + defaultMark
				}
				fmt.Printf("%s (%s)%s\n", p.Name, p.Path, suffix)
			}
			return nil
		},
	}
}
