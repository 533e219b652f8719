package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gravitrone/repack/cli/internal/cmd"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "repack",
		Short: "Repack - recordings repacking client",
		Long:  "Repack CLI: log in, pick a room, queue recordings for processing or upload, and manage your profile.",
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.RunTUI(c.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(cmd.LoginCmd())
	root.AddCommand(cmd.LogoutCmd())
	root.AddCommand(cmd.RoomsCmd())
	root.AddCommand(cmd.RecordsCmd())
	root.AddCommand(cmd.ProfileCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Force truecolor so hex colors render correctly
	// Must be set before any lipgloss style initialization
	os.Setenv("COLORTERM", "truecolor")
}
