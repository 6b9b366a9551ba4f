package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tayebekavousi/toothlabel/internal/analyze"
	"github.com/tayebekavousi/toothlabel/internal/api"
	"github.com/tayebekavousi/toothlabel/internal/config"
	"github.com/tayebekavousi/toothlabel/internal/labels"
	"github.com/tayebekavousi/toothlabel/internal/pipeline"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cfg := config.Load()
	var log *slog.Logger

	root := &cobra.Command{
		Use:           "toothlabel",
		Short:         "Convert dental-radiograph annotations to detection label files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Logs go to stderr so analyze's table output stays clean on stdout.
			log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLevel(cfg.LogLevel),
			}))
			if err := cfg.Validate(); err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.DatasetRoot, "dataset-root", cfg.DatasetRoot,
		"path to dataset root (contains Training, Testing, Validation)")
	root.PersistentFlags().StringVar(&cfg.LabelDirName, "label-dir-name", cfg.LabelDirName,
		"name of the label directory inside each split")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"log level (debug, info, warn, error)")

	root.AddCommand(
		convertCommand(&cfg, &log),
		cleanCommand(&cfg, &log),
		analyzeCommand(&cfg, &log),
		serveCommand(&cfg, &log),
	)
	return root
}

func convertCommand(cfg *config.Config, log **slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write per-image label files from annotations and metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := pipeline.Run(*cfg, *log)
			if err != nil {
				(*log).Error("conversion failed", "error", err)
				return err
			}
			for _, res := range results {
				(*log).Info("split summary",
					"split", res.Split,
					"written", res.Written,
					"metadata_missing", res.MetadataMissing,
					"extraction_failed", res.ExtractionFailed,
					"count_mismatch", res.CountMismatch,
					"size_unresolved", res.SizeUnresolved,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Mode, "mode", cfg.Mode, "output mode: raw, yolo or both")
	cmd.Flags().BoolVar(&cfg.RemapClasses, "remap-classes", cfg.RemapClasses,
		"remap FDI tokens to zero-based class ids and write classes.txt")
	cmd.Flags().IntVar(&cfg.Decimals, "decimals", cfg.Decimals, "decimal places for normalized coordinates")
	return cmd
}

func cleanCommand(cfg *config.Config, log **slog.Logger) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Keep only normalized lines in written label files",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, split := range pipeline.Splits {
				dir := filepath.Join(cfg.DatasetRoot, split, cfg.LabelDirName)
				if _, err := os.Stat(dir); err != nil {
					(*log).Warn("label directory missing, skipping", "split", split)
					continue
				}
				stats, err := labels.CleanDir(dir, backup)
				if err != nil {
					(*log).Error("clean failed", "split", split, "error", err)
					return err
				}
				(*log).Info("cleaned split",
					"split", split,
					"files", stats.Files,
					"original_lines", stats.Original,
					"kept_lines", stats.Kept,
					"removed_lines", stats.Removed(),
				)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&backup, "backup", true, "write a .bak copy before overwriting each file")
	return cmd
}

func analyzeCommand(cfg *config.Config, log **slog.Logger) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Tabulate per-tooth image and instance counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := analyze.Analyze(cfg.DatasetRoot, cfg.LabelDirName)
			if err != nil {
				(*log).Error("analyze failed", "error", err)
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary.Table())

			if reportPath != "" {
				if err := os.WriteFile(reportPath, []byte(summary.Markdown()), 0o644); err != nil {
					(*log).Error("write report failed", "path", reportPath, "error", err)
					return err
				}
				(*log).Info("wrote report", "path", reportPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "also write a Markdown report to this path")
	return cmd
}

func serveCommand(cfg *config.Config, log **slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the class map and tooth distribution over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := api.NewServer(*cfg, *log)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				(*log).Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			(*log).Info("starting toothlabel api", "port", cfg.Port, "dataset_root", cfg.DatasetRoot)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				(*log).Error("server error", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	return cmd
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
