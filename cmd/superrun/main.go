// cmd/superrun/main.go
//
// Entry point for the superrun CLI. Running `superrun` with no subcommand
// opens the selection dialog for the project in the current directory.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "superrun: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	projectDir string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "superrun",
		Short: "Launch project targets in a chosen order with a delay between startups",
		Long: `superrun starts several project targets one after another.

Targets are declared in .superrun/config.yaml. The launch order you arrange in
the dialog is remembered between sessions.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.projectDir, "project", "p", "", "project directory (defaults to the working directory)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "mirror the journal to stderr")

	root.AddCommand(newPickCmd(flags))
	root.AddCommand(newLaunchCmd(flags))
	root.AddCommand(newTargetsCmd(flags))
	root.AddCommand(newOrderCmd(flags))
	return root
}
