// Package main provides the creatorpulse CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/config"
	"github.com/gauthierbraillon/creatorpulse/internal/display"
	"github.com/gauthierbraillon/creatorpulse/internal/server"
)

// version is set via ldflags at release time.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func buildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

// newRootCmd creates the root command for creatorpulse CLI.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "creatorpulse",
		Short:        "Rate creators for brand suitability from audience comments",
		Long:         "Creatorpulse classifies the sentiment of audience comments and turns the totals into a brand-suitability recommendation.",
		Version:      resolveVersion(version, buildInfo()),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("creatorpulse version {{.Version}}\n")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newCreatorCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newAnalyzeCmd classifies pasted comments, one per line.
func newAnalyzeCmd() *cobra.Command {
	var title string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Classify comments read from a file or stdin",
		Long:  "Classify comments, one per line, read from a file or from stdin when no file is given. Blank lines are ignored.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			comments := aggregator.SplitManualText(text)
			if len(comments) == 0 {
				return errors.New("no comments provided")
			}

			results := a.classifier.Classify(cmd.Context(), comments)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"title": title, "results": results})
			}
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatResult(title, results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "Untitled Analysis", "Title shown with the results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

// newFetchCmd analyzes a single URL.
func newFetchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch and classify the comments behind one URL",
		Long:  "Fetch the comments of one Reddit post, YouTube video or Instagram post and classify them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			analysis, err := a.aggregator.AnalyzeSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), analysis)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatResult(analysis.Title, analysis.Results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

// newCreatorCmd runs a full creator analysis.
func newCreatorCmd() *cobra.Command {
	var urls, manual []string
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "creator [name]",
		Short: "Analyze a creator across several sources",
		Long: `Analyze a creator across several URLs and pasted comment files.

Manual entries take the form platform:title:path, where path is a file with
one comment per line or "-" for stdin. Sources that fail are reported and
skipped; the command fails only when no source yields a comment.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &aggregator.Request{}
			if file != "" {
				loaded, err := aggregator.LoadRequestFile(file)
				if err != nil {
					return err
				}
				req = loaded
			}
			if len(args) == 1 {
				req.Name = args[0]
			}
			if req.Name == "" {
				req.Name = "Unknown Creator"
			}
			req.URLs = append(req.URLs, urls...)
			for _, flag := range manual {
				entry, err := parseManualFlag(cmd, flag)
				if err != nil {
					return err
				}
				req.Manual = append(req.Manual, entry)
			}
			if len(req.URLs) == 0 && len(req.Manual) == 0 {
				return errors.New("provide at least one --url, --manual or --file")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}

			report := a.aggregator.AnalyzeCreator(cmd.Context(), req.Name, req.URLs, req.Manual)
			if err := report.Err(); err != nil {
				for _, line := range report.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatReport(report))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "Source URL (repeatable)")
	cmd.Flags().StringArrayVarP(&manual, "manual", "m", nil, "Manual entry platform:title:path (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML request file with name, urls and manual entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

// parseManualFlag reads a platform:title:path manual entry.
func parseManualFlag(cmd *cobra.Command, value string) (aggregator.ManualEntry, error) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return aggregator.ManualEntry{}, fmt.Errorf("invalid --manual %q: want platform:title:path", value)
	}
	text, err := readInput(cmd, parts[2])
	if err != nil {
		return aggregator.ManualEntry{}, err
	}
	return aggregator.ManualEntry{Platform: parts[0], Title: parts[1], Text: text}, nil
}

// newServeCmd runs the HTTP API until SIGINT or SIGTERM.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the analysis API on PORT until interrupted, then shut down gracefully.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openSessionStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			publisher, closePublisher, err := openPublisher(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closePublisher()

			srv := server.New(server.Config{
				Addr:        ":" + a.cfg.Port,
				CORSOrigins: a.cfg.CORSOrigins,
			}, a.aggregator, a.classifier, store,
				server.WithPublisher(publisher),
				server.WithLogger(a.logger),
			)

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "port", a.cfg.Port, "session_backend", a.cfg.SessionBackend)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return nil
		},
	}

	return cmd
}

// newConfigCmd prints the effective configuration.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long:  "Print the configuration read from the environment and .env. Secrets are shown only as set or unset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, e := range cfg.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", e.Key, e.Value)
			}
			return nil
		},
	}

	return cmd
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
