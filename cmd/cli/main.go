// Package main provides the CLI tool for scene-finder.
// Uses Cobra for command parsing.
//
// Run with: go run ./cmd/cli identify still1.png still2.jpg
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/config"
	"github.com/fleveque/scene-finder/internal/model"
	"github.com/fleveque/scene-finder/internal/server"
	"github.com/fleveque/scene-finder/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd builds the command tree:
// scene-cli identify <image>...
// scene-cli stats
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scene-cli",
		Short: "Scene finder CLI tools",
	}

	root.AddCommand(identifyCmd())
	root.AddCommand(statsCmd())
	return root
}

func identifyCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "identify <image>...",
		Short: "Identify the movie shown in one or more images and find where to stream it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(cmd.Context(), provider, args)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Vision provider override: gemini, anthropic, openai")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show identification call counts from the call log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(os.Getenv("SCENE_CONFIG_PATH"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Development logs go to stderr, leaving stdout for JSON output.
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

func runIdentify(ctx context.Context, providerOverride string, paths []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if providerOverride != "" {
		cfg.Vision.Provider = providerOverride
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	images, err := readImages(paths, logger)
	if err != nil {
		return err
	}

	deps, err := server.NewDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	// Ctrl+C cancels the in-flight provider calls.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := deps.MovieService.Identify(ctx, images)
	return printJSON(env)
}

// readImages loads the files in argument order. The media type is sniffed from
// the content, since file extensions are not trustworthy.
func readImages(paths []string, logger *zap.Logger) ([]model.ImageInput, error) {
	images := make([]model.ImageInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		mediaType := mimetype.Detect(data).String()
		if !model.IsImageMediaType(mediaType) {
			logger.Warn("skipping non-image file", zap.String("path", path), zap.String("media_type", mediaType))
			continue
		}
		images = append(images, model.ImageInput{Data: data, MediaType: mediaType})
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("none of the %d files is an image", len(paths))
	}
	return images, nil
}

func runStats(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.DatabasePath == "" {
		return fmt.Errorf("call log disabled: storage.database_path is empty")
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := storage.NewCallRepository(db).Stats(ctx)
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}
	return printJSON(stats)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
