package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"weir/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the weir daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the weir daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the weir daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, watch, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	printHeader := func(title string) {
		for _, line := range renderSectionHeader(title, colorize) {
			fmt.Fprintln(stdout, line)
		}
	}

	client, err := ctx.dialClient()
	if err != nil {
		printHeader("Daemon")
		fmt.Fprintln(stdout, "  Running: no")
		if cfg := ctx.configValue(); cfg != nil {
			fmt.Fprintf(stdout, "  Socket:  %s\n", cfg.SocketPath())
		}
		return nil
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return err
	}

	printHeader("Daemon")
	running := "no"
	if status.Running {
		running = fmt.Sprintf("yes (pid %d)", status.PID)
	}
	fmt.Fprintf(stdout, "  Running:    %s\n", running)
	if status.StartedAt != "" {
		fmt.Fprintf(stdout, "  Started:    %s\n", status.StartedAt)
	}
	fmt.Fprintf(stdout, "  Socket:     %s\n", ctx.socketPath())
	fmt.Fprintf(stdout, "  Catalog DB: %s\n", status.CatalogDBPath)
	fmt.Fprintf(stdout, "  Lock file:  %s\n", status.LockPath)
	if status.HandoffDir != "" {
		fmt.Fprintf(stdout, "  Handoff:    %s\n", status.HandoffDir)
	}
	fmt.Fprintln(stdout)

	printHeader("Watch")
	if len(status.Directories) == 0 {
		fmt.Fprintln(stdout, "  No directories watched")
	} else {
		for _, dir := range status.Directories {
			fmt.Fprintf(stdout, "  %s\n", dir)
		}
	}
	fmt.Fprintf(stdout, "  Local: %d  Network: %d  Partial: %d\n",
		status.Watch.LocalDirs, status.Watch.NetworkDirs, status.Watch.PartialItems)
	fmt.Fprintf(stdout, "  Poll timer: %s  Retry timer: %s\n",
		yesNo(status.Watch.PollTimerActive), yesNo(status.Watch.RetryTimerActive))
	fmt.Fprintln(stdout)

	printHeader("Catalog")
	if status.Catalog.Total == 0 {
		fmt.Fprintln(stdout, "Catalog is empty")
		return nil
	}
	rows := [][]string{
		{"detected", strconv.Itoa(status.Catalog.Detected)},
		{"handed_off", strconv.Itoa(status.Catalog.HandedOff)},
		{"failed", strconv.Itoa(status.Catalog.Failed)},
		{"total", strconv.Itoa(status.Catalog.Total)},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
