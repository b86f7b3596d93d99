package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"weir/internal/ipc"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and manage the catalog",
	}

	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsShowCommand(ctx))
	itemsCmd.AddCommand(newItemsClearCommand(ctx))

	return itemsCmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged metadata files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ItemList(strings.TrimSpace(statusFilter), limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Catalog is empty")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Name", "Kind", "Status", "Detected", "Path"},
					buildItemListRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (detected, handed_off, failed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of items to list (0 for all)")
	return cmd
}

func buildItemListRows(items []ipc.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			name,
			item.Kind,
			item.Status,
			item.DetectedAt,
			item.Path,
		})
	}
	return rows
}

func newItemsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for a cataloged file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ItemDescribe(id)
				if err != nil {
					return err
				}
				item := resp.Item
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "ID:         %d\n", item.ID)
				fmt.Fprintf(stdout, "Path:       %s\n", item.Path)
				fmt.Fprintf(stdout, "Kind:       %s\n", item.Kind)
				fmt.Fprintf(stdout, "Status:     %s\n", item.Status)
				if item.Name != "" {
					fmt.Fprintf(stdout, "Name:       %s\n", item.Name)
				}
				if item.InfoHash != "" {
					fmt.Fprintf(stdout, "Info hash:  %s\n", item.InfoHash)
				}
				if item.Announce != "" {
					fmt.Fprintf(stdout, "Announce:   %s\n", item.Announce)
				}
				if item.Kind == "torrent" {
					fmt.Fprintf(stdout, "Size:       %d bytes in %d files\n", item.TotalSize, item.FileCount)
				}
				if item.HandoffPath != "" {
					fmt.Fprintf(stdout, "Handed off: %s\n", item.HandoffPath)
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(stdout, "Error:      %s\n", item.ErrorMessage)
				}
				fmt.Fprintf(stdout, "Detected:   %s\n", item.DetectedAt)
				fmt.Fprintf(stdout, "Batch:      %s\n", item.BatchID)
				return nil
			})
		},
	}
}

func newItemsClearCommand(ctx *commandContext) *cobra.Command {
	var handedOffOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				var removed int64
				if handedOffOnly {
					resp, err := client.ItemClearHandedOff()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					resp, err := client.ItemClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d catalog entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&handedOffOnly, "handed-off", false, "Only remove entries whose files were handed off")
	return cmd
}
