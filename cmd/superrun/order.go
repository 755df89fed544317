package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrderCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect or edit the saved launch order",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved order, one ID per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()
			for _, id := range sess.order.Load() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set ID...",
		Short: "Replace the saved order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()
			seen := make(map[string]bool, len(args))
			for _, id := range args {
				if seen[id] {
					return fmt.Errorf("target %q listed more than once", id)
				}
				seen[id] = true
				if _, ok := sess.source.Lookup(id); !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not a known target\n", id)
				}
			}
			if err := sess.order.Save(args); err != nil {
				return err
			}
			sess.journal.Info("launch order set to %v", sess.order.Current())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the saved order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()
			if err := sess.order.Save(nil); err != nil {
				return err
			}
			sess.journal.Info("launch order reset")
			return nil
		},
	})
	return cmd
}
