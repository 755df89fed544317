package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTargetsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List targets in launch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			list := sess.orderedTargets()
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(out, "No targets declared in %s\n", sess.cfg.ProjectConfigPath())
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\tNAME\tKIND")
			for i, t := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, t.ID, t.Label(), t.Kind)
			}
			return w.Flush()
		},
	}
}
