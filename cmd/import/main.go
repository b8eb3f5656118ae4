package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/importer"
	"yamdb/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "yamdb-import [data-dir]",
	Short: "Load the static CSV fixtures into the database",
	Long: `yamdb-import reads category.csv, genre.csv, titles.csv, genre_title.csv,
users.csv, review.csv and comments.csv from the data directory (default
static/data) and inserts them in one transaction. Missing files are skipped
and rows that already exist are kept, so the import can be repeated.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	dir := "static/data"
	if len(args) == 1 {
		dir = args[0]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("data directory %q not found", dir)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum, err := importer.New(db, dir, logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	color.Green("✓ Import completed")
	fmt.Printf("Categories:   %d\n", sum.Categories)
	fmt.Printf("Genres:       %d\n", sum.Genres)
	fmt.Printf("Titles:       %d\n", sum.Titles)
	fmt.Printf("Title genres: %d\n", sum.TitleGenres)
	fmt.Printf("Users:        %d\n", sum.Users)
	fmt.Printf("Reviews:      %d\n", sum.Reviews)
	fmt.Printf("Comments:     %d\n", sum.Comments)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}
