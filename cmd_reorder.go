package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReorderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "reorder [on|off|status]",
		Short:     "Keep pinned tabs sorted by rule priority",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, adapter, err := a.openSettings()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			arg := "status"
			if len(args) == 1 {
				arg = args[0]
			}
			switch arg {
			case "on", "off":
				if err := adapter.SetReorder(ctx, arg == "on"); err != nil {
					return err
				}
			case "status":
			default:
				return fmt.Errorf("unknown argument %q (want on, off or status)", arg)
			}

			on, err := adapter.Reorder(ctx)
			if err != nil {
				return err
			}
			if on {
				fmt.Println("Reorder: on (pinned tabs follow rule order)")
			} else {
				fmt.Println("Reorder: off")
			}
			return nil
		},
	}
	return cmd
}
