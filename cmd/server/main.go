package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liamcoop/easyrules/config"
	"github.com/liamcoop/easyrules/internal/logger"
	"github.com/liamcoop/easyrules/rules"
)

// app holds everything built from a configuration file
type app struct {
	cfg      *config.Config
	registry *rules.Registry
	facts    *rules.Facts
}

// loadApp reads the configuration, then builds and registers every defined rule
func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.SetLevelFromString(cfg.Log.Level); err != nil {
		return nil, err
	}

	facts := rules.NewFacts(cfg.Facts)
	registry := rules.NewRegistry()
	for i, def := range cfg.Rules {
		rule, err := def.Build(cfg.Defaults, facts)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		if _, err := registry.Register(rule); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
	}

	logger.Info("rules loaded", "count", registry.Len(), "facts", facts.Len())

	return &app{cfg: cfg, registry: registry, facts: facts}, nil
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "easyrules",
		Short:         "Serve and inspect prioritized rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")

	cmd.AddCommand(
		serveCmd(&configPath),
		listCmd(&configPath),
		checkCmd(&configPath),
	)

	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the rules API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a)
		},
	}
}

func listCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print rules in precedence order",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), a.registry)
		},
	}
}

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate rule conditions against the configured facts without performing actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), rules.EvaluateConditions(a.registry.List()))
		},
	}
}

func printRules(w io.Writer, registry *rules.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tNAME\tDESCRIPTION")
	for _, r := range registry.List() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Priority(), r.Name(), r.Description())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, group := range registry.Conflicts() {
		names := make([]string, len(group))
		for i, r := range group {
			names[i] = r.Name()
		}
		fmt.Fprintf(w, "warning: priority %d shared by %s\n", group[0].Priority(), strings.Join(names, ", "))
	}
	return nil
}

func printResults(w io.Writer, results []*rules.EvaluationResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tNAME\tMATCHED")
	for _, result := range results {
		matched := fmt.Sprint(result.Matched)
		if result.Error != nil {
			matched = "error: " + result.Error.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", result.Priority, result.RuleName, matched)
	}
	return tw.Flush()
}

func serve(ctx context.Context, a *app) error {
	server := NewServer(a.registry, a.facts, a.cfg.Defaults, a.cfg.Server.RequestTimeout)

	httpServer := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      server,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
