package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/targets"
	"github.com/kingrea/superrun/internal/tui"
)

func newPickCmd(flags *globalFlags) *cobra.Command {
	var detach bool
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose targets in the dialog, then launch them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPickDetached(cmd, flags, detach)
		},
	}
	cmd.Flags().BoolVar(&detach, "detach", false, "return once every target started instead of waiting for them")
	return cmd
}

func runPick(cmd *cobra.Command, flags *globalFlags) error {
	return runPickDetached(cmd, flags, false)
}

func runPickDetached(cmd *cobra.Command, flags *globalFlags, detach bool) error {
	sess, err := openSession(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	reload := func() ([]launch.Target, error) {
		cfg, err := config.NewConfig(sess.cfg.ProjectDir)
		if err != nil {
			return nil, err
		}
		sess.cfg = cfg
		sess.source = targets.NewConfigSource(cfg)
		return sess.source.ListTargets(), nil
	}
	picker := tui.NewPicker(sess.source.ListTargets(), sess.order, sess.cfg.DelaySeconds(),
		tui.WithDescriber(func(id string) string { return sess.source.Describe(id) }),
		tui.WithLogger(sess.journal),
		tui.WithConfigEditor(sess.cfg.ProjectConfigPath(), reload),
	)
	batch, ok, err := tui.Run(picker)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if picker.Delay() != sess.cfg.DelaySeconds() {
		if err := sess.cfg.SetDelaySeconds(picker.Delay()); err != nil {
			sess.journal.Warn("delay not saved: %v", err)
		}
	}
	return sess.runBatch(cmd.Context(), batch, detach, out)
}
