package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "quince",
		Short:         "quince is a minimal QUIC client and server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newClientCommand(), newServerCommand())
	return root
}
