package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/order"
)

func newLaunchCmd(flags *globalFlags) *cobra.Command {
	var (
		delay      int
		savedOrder bool
		detach     bool
	)
	cmd := &cobra.Command{
		Use:   "launch ID[:run|:debug]...",
		Short: "Launch targets without the dialog",
		Long: `Launch the given targets one after another.

Each argument is a target ID, optionally suffixed with the mode. Targets start
in argument order unless --saved-order is set.

Examples:
  superrun launch Application.api Application.worker:debug
  superrun launch --delay 0 --saved-order api web`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			requests := make([]launch.Request, 0, len(args))
			for _, arg := range args {
				id, mode, err := parseRequestArg(arg)
				if err != nil {
					return err
				}
				target, ok := sess.source.Lookup(id)
				if !ok {
					return fmt.Errorf("unknown target %q (see `superrun targets`)", id)
				}
				requests = append(requests, launch.Request{Target: target, Mode: mode})
			}
			if savedOrder {
				requests = sortBySavedOrder(requests, sess.order.Load())
			}
			if !cmd.Flags().Changed("delay") {
				delay = sess.cfg.DelaySeconds()
			}
			if delay > config.MaxDelaySeconds {
				return fmt.Errorf("delay must be between 0 and %d", config.MaxDelaySeconds)
			}
			batch, err := launch.NewBatch(requests, delay)
			if err != nil {
				return err
			}
			return sess.runBatch(cmd.Context(), batch, detach, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&delay, "delay", "d", config.DefaultDelaySeconds, "seconds between startups")
	cmd.Flags().BoolVar(&savedOrder, "saved-order", false, "launch in the saved order instead of argument order")
	cmd.Flags().BoolVar(&detach, "detach", false, "return once every target started instead of waiting for them")
	return cmd
}

// parseRequestArg splits "ID" or "ID:mode". The mode defaults to run. A
// suffix that is not a mode stays part of the ID.
func parseRequestArg(arg string) (string, launch.Mode, error) {
	id, mode := strings.TrimSpace(arg), launch.ModeRun
	if idx := strings.LastIndex(id, ":"); idx >= 0 {
		if parsed, err := launch.ParseMode(id[idx+1:]); err == nil {
			id, mode = strings.TrimSpace(id[:idx]), parsed
		}
	}
	if id == "" {
		return "", "", fmt.Errorf("empty target id in %q", arg)
	}
	return id, mode, nil
}

func sortBySavedOrder(requests []launch.Request, saved []string) []launch.Request {
	targets := make([]launch.Target, len(requests))
	byID := make(map[string]launch.Request, len(requests))
	for i, req := range requests {
		targets[i] = req.Target
		byID[req.Target.ID] = req
	}
	sorted := order.ApplyOrder(targets, saved)
	out := make([]launch.Request, len(sorted))
	for i, t := range sorted {
		out[i] = byID[t.ID]
	}
	return out
}
