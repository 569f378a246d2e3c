// Command companydash serves and prints a public company financial dashboard.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/companydash/api"
	"github.com/seenimoa/companydash/internal/config"
	"github.com/seenimoa/companydash/internal/dashboard"
	"github.com/seenimoa/companydash/internal/logging"
	"github.com/seenimoa/companydash/internal/providers"
	"github.com/seenimoa/companydash/internal/report"
	"github.com/seenimoa/companydash/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "companydash",
	Short: "Public company financial dashboard",
	Long: `companydash shows share price history, valuation multiples and a
financial overview for any listed company, as a web dashboard, in the
terminal or as an Excel workbook.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("companydash %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (web dashboard) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Host, cfg.Server.Port = splitAddr(addr, cfg.Server.Port)
		}

		api.Version = version
		srv := api.NewServer(cfg, a.svc, log.Logger)
		return srv.ListenAndServe(ctx, cfg.Server.Addr())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address override, e.g. :9090")
}

// --- Snapshot Command ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [ticker]",
	Short: "Print the dashboard for a ticker in the terminal",
	Example: `  companydash snapshot AAPL
  companydash snapshot MSFT --view quarterly --details`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
		defer cancel()

		view, err := a.svc.Build(ctx, selection(cmd, args[0]))
		if err != nil {
			return err
		}

		details, _ := cmd.Flags().GetBool("details")
		fmt.Print(report.RenderText(view, report.TextOptions{Details: details, Headlines: cfg.News.Enabled}))
		return nil
	},
}

func init() {
	addSelectionFlags(snapshotCmd)
	snapshotCmd.Flags().Bool("details", false, "include the raw financial statements")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export [ticker]",
	Short: "Write the Excel workbook for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
		defer cancel()

		asOf := utils.Today()
		if d, _ := cmd.Flags().GetString("date"); d != "" {
			if asOf, err = utils.ParseDate(d); err != nil {
				return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", d)
			}
		}

		name, data, err := a.svc.Export(ctx, selection(cmd, args[0]), asOf)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Export.OutDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
		return nil
	},
}

func init() {
	addSelectionFlags(exportCmd)
	exportCmd.Flags().String("out", "", "output directory (default: export.out_dir)")
	exportCmd.Flags().String("date", "", "as-of date for the workbook file name, YYYY-MM-DD (default: today)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data provider connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  companydash System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Today:         %s\n", utils.FormatDate(utils.Today()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Provider:      %s (%s)\n", cfg.Provider.Name, cfg.Provider.BaseURL)
		fmt.Printf("    Sessions:      %v (store: %s, ttl: %s)\n", cfg.Session.Enabled, cfg.Session.Store, cfg.Session.TTL)
		fmt.Printf("    Headlines:     %v\n", cfg.News.Enabled)
		fmt.Printf("    Web Server:    %s\n", cfg.Server.Addr())
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckSecrets(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		fmt.Print("  Yahoo Finance: ")
		if err := providers.NewYahoo(cfg.Provider).Ping(ctx); err != nil {
			fmt.Printf("unreachable (%v)\n", err)
		} else {
			fmt.Println("ok")
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("range", "", "price history range: 1y, 5y, 10y or max (default: dashboard.default_range)")
	cmd.Flags().String("view", "", "statement view: annual or quarterly (default: dashboard.default_view)")
}

func selection(cmd *cobra.Command, ticker string) dashboard.Request {
	rng, _ := cmd.Flags().GetString("range")
	view, _ := cmd.Flags().GetString("view")
	return dashboard.Request{Ticker: ticker, Range: rng, View: view}
}
