package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/autopin/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Edit rules interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, adapter, err := a.openSettings()
			if err != nil {
				return err
			}
			defer st.Close()

			p := tea.NewProgram(tui.NewModel(cmd.Context(), adapter), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
