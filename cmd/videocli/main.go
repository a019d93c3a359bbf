package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clipguard/videofp/internal/config"
	"github.com/clipguard/videofp/internal/database"
	"github.com/clipguard/videofp/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:   "videocli",
	Short: "videocli inspects and manages the videofp fingerprint index directly against the database",
	Long: `videocli is an operator tool for the videofp duplicate-detection
service. It talks to the database directly rather than over HTTP, for
use during incident response or manual backfills.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		return database.Initialize(cfg.DatabaseURL)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <video_id>",
	Short: "Print a video's terminal status and, if duplicate, its original",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID := args[0]
		index := repository.NewFingerprintIndex(database.DB)

		video, err := index.Status(context.Background(), videoID)
		if err != nil {
			if errors.Is(err, repository.ErrVideoNotFound) {
				fmt.Printf("video %s: not found\n", videoID)
				return nil
			}
			return fmt.Errorf("status lookup failed: %w", err)
		}

		fmt.Printf("video_id:   %s\n", video.ID)
		fmt.Printf("status:     %s\n", video.Status)
		fmt.Printf("uploaded_at: %s\n", video.UploadedAt)
		if video.OriginalVideoID != nil {
			fmt.Printf("original_video_id: %s\n", *video.OriginalVideoID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
