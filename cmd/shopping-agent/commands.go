package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paihanhuang/shopping-agent/internal/export"
	"github.com/paihanhuang/shopping-agent/internal/logger"
	"github.com/paihanhuang/shopping-agent/internal/models"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "shopping-agent",
		Short: "Shopping price comparison with background price tracking",
		Long: `shopping-agent compares product prices across major US retailers and
tracks them over time. One-shot searches print a combined report with
cashback and credit-card reference sections; tracking sessions re-check
prices on a schedule and record significant changes as alerts.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	root.AddCommand(
		searchCommand(&configPath),
		trackCommand(&configPath),
		sessionsCommand(&configPath),
		statsCommand(&configPath),
		summaryCommand(&configPath),
		exportCommand(&configPath),
	)
	return root
}

func searchCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <product>...",
		Short: "Compare prices for a product across retailers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			res, err := a.pipeline.Run(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Merged)
			return nil
		},
	}
}

func trackCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "Run the interactive price-tracking menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				<-sigChan
				logger.Info("Shutdown signal received, cleaning up...")
				a.tracker.StopAll()
				a.close()
				os.Exit(0)
			}()

			runMenu(a, cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
}

func sessionsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List recent tracking sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return showSessions(a, cmd.OutOrStdout(), nil)
		},
	}
}

func statsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <session-id>",
		Short: "Show per-retailer price statistics for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return showStats(a, cmd.OutOrStdout(), id)
		},
	}
}

func summaryCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <session-id>",
		Short: "Show a session summary with best deal, trends and alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return showSummary(a, cmd.OutOrStdout(), id)
		},
	}
}

func exportCommand(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's price history to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			path := output
			if path == "" {
				path = fmt.Sprintf("session_%d.xlsx", id)
			}
			if err := export.Workbook(a.store, id, path); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "❌ Session %d not found\n", id)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "💾 Exported session #%d to %s\n", id, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default session_<id>.xlsx)")
	return cmd
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func parseSessionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", arg)
	}
	return id, nil
}

func showStats(a *app, out io.Writer, sessionID int64) error {
	sess, err := a.store.Session(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(out, "❌ Session %d not found\n", sessionID)
			return nil
		}
		return err
	}
	stats, err := a.store.RetailerStats(sessionID)
	if err != nil {
		return err
	}
	alertCount, err := a.store.AlertCount(sessionID)
	if err != nil {
		return err
	}
	renderStats(out, sess, stats, alertCount)
	return nil
}

func showSummary(a *app, out io.Writer, sessionID int64) error {
	sess, err := a.store.Session(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(out, "❌ Session %d not found\n", sessionID)
			return nil
		}
		return err
	}
	deal, err := a.store.BestDeal(sessionID)
	if err != nil {
		return err
	}
	trends, err := buildTrends(a.store, sessionID)
	if err != nil {
		return err
	}
	alertRows, err := a.store.Alerts(sessionID)
	if err != nil {
		return err
	}
	renderSummary(out, sess, deal, trends, alertRows)
	return nil
}

// showSessions prints the recent-sessions table. The live set marks the
// sessions running in this process; when nil it falls back to the stored
// session status.
func showSessions(a *app, out io.Writer, live map[int64]bool) error {
	overviews, err := a.store.RecentSessions(20)
	if err != nil {
		return err
	}
	if live == nil {
		live = make(map[int64]bool, len(overviews))
		for _, o := range overviews {
			if o.Status == models.StatusActive {
				live[o.ID] = true
			}
		}
	}
	renderSessions(out, overviews, live)
	return nil
}
