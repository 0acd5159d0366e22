package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/daemon"
	"github.com/xydata/oracle/oracle/health"
	"github.com/xydata/oracle/oracle/log"
	"github.com/xydata/oracle/types"
)

const (
	flagHome     = "home"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
)

// NewRootCmd creates the oracled command tree. Without a subcommand the
// daemon is started.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oracled",
		Short: "XyData oracle daemon",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			types.SetBech32Prefixes()
			return setup(cmd)
		},
		RunE:         runDaemon,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String(flagHome, config.DefaultHome(), "Daemon home directory")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "Log level (debug|info|error)")
	rootCmd.PersistentFlags().Bool(flagLogFile, false, "Write logs to <home>/logs instead of stdout")

	rootCmd.AddCommand(
		StartCmd(),
		ConfigCmd(),
		StatusCmd(),
	)
	return rootCmd
}

func setup(cmd *cobra.Command) error {
	home, _ := cmd.Flags().GetString(flagHome)
	level, _ := cmd.Flags().GetString(flagLogLevel)
	toFile, _ := cmd.Flags().GetBool(flagLogFile)

	if toFile {
		path, err := log.ResetLogger(home, level)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logging to %s\n", path)
	} else if err := log.InitLogger(level); err != nil {
		return err
	}

	if err := config.Load(home); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// StartCmd runs the daemon until SIGINT or SIGTERM.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the oracle daemon",
		Args:  cobra.NoArgs,
		RunE:  runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	config.Print()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.NewWithDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	return d.Run()
}

// ConfigCmd prints the effective configuration.
func ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "home:     %s\n", config.Home())
			fmt.Fprintf(out, "chain_id: %s\n", config.ChainID())
			fmt.Fprintf(out, "endpoint: %s\n", config.Endpoint())
			fmt.Fprintf(out, "key:      %s\n", config.KeyName())
			if addr := config.Address(); addr != nil {
				fmt.Fprintf(out, "address:  %s\n", addr)
			}
			for _, feed := range config.Feeds() {
				fmt.Fprintf(out, "feed:     %s <- %s (%s)\n", feed.DataType, feed.URL, feed.Path)
			}
			return nil
		},
	}
}

// StatusCmd asks a running daemon for its health report and fails when any
// check is failing.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query the health of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen := config.HealthListen()
			if listen == "" {
				return fmt.Errorf("health endpoint is disabled in %s", config.Home())
			}

			report, err := health.Fetch(cmd.Context(), listen, 5*time.Second)
			if err != nil {
				return fmt.Errorf("failed to reach daemon at %s: %w", listen, err)
			}

			names := make([]string, 0, len(report.Checks))
			for name := range report.Checks {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				status := report.Checks[name]
				state := "ok"
				if !status.Healthy {
					state = "failing: " + status.LastError
				}
				fmt.Fprintf(out, "%-10s %s (checked %s)\n", name, state, status.LastCheck.Format(time.RFC3339))
			}
			if !report.Healthy {
				return fmt.Errorf("daemon is unhealthy")
			}
			fmt.Fprintln(out, "healthy")
			return nil
		},
	}
}
