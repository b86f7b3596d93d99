package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weir/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage watched directories",
	}

	addCmd := &cobra.Command{
		Use:   "add <directory>",
		Short: "Start watching a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatchAdd(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directories\n", len(resp.Directories))
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <directory>",
		Short: "Stop watching a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatchRemove(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directories\n", len(resp.Directories))
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List watched directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatchList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Directories) == 0 {
					fmt.Fprintln(stdout, "No directories watched")
					return nil
				}
				for _, dir := range resp.Directories {
					fmt.Fprintln(stdout, dir)
				}
				return nil
			})
		},
	}

	watchCmd.AddCommand(addCmd, removeCmd, listCmd)
	return watchCmd
}
