package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"smart-mail-reply-go/internal/app"
	"smart-mail-reply-go/internal/config"
	"smart-mail-reply-go/internal/service/audit"
	"smart-mail-reply-go/internal/service/export"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "smart-mail-reply",
		Short:         "Answer customer e-mail with a language model constrained by business rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")

	load := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		app.SetupLogging(cfg.Log.Level)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return app.New(ctx, cfg)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			logrus.Info("Starting Smart Mail Reply Service")
			return a.Serve(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Process unseen messages once and print the run summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary := a.RunOnce(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
			if summary.Aborted {
				return fmt.Errorf("run aborted: %s", summary.Failures[0].Cause)
			}
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "poll",
		Short: "Process unseen messages now and then on every interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Poll(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List configured models and the models the provider offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configured:")
			for _, name := range a.Engine.Models() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			available, err := a.Engine.Discover(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list provider models: %w", err)
			}
			fmt.Fprintln(out, "Available:")
			for _, name := range available {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	})

	rootCmd.AddCommand(auditCmd(load))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func auditCmd(load func(context.Context) (*app.App, error)) *cobra.Command {
	var (
		xlsxPath string
		limit    int
		category string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log, or export it with --xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if xlsxPath != "" {
				records, err := a.Repo.AllAudit(cmd.Context())
				if err != nil {
					return err
				}
				f, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", xlsxPath, err)
				}
				defer f.Close()
				if err := export.AuditXLSX(f, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), xlsxPath)
				return nil
			}

			records, total, err := a.Repo.ListAudit(cmd.Context(), 1, limit, strings.ToUpper(category))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tCATEGORY\tREPLIED\tSENDER\tSUBJECT")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
					rec.Timestamp.Format(audit.TimestampLayout), rec.Category, rec.Replied, rec.Sender, rec.Subject)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records\n", len(records), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the full audit log to this XLSX file")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent records to show")
	cmd.Flags().StringVar(&category, "category", "", "only show records of this category")
	return cmd
}
