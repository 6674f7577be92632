package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/proofstream/internal/client"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL string
	unlockKey string
	provider  string
	model     string
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "proofctl",
	Short: "Stream proof attempts, reviews and revisions from a proofstream server",
	Long: `proofctl talks to a proofstream server.

Streaming Commands:
  attempt   Attempt a proof of a statement
  review    Review a proof
  revise    Revise the steps of a structured proof
  chat      Chat about a proof, extracting artifacts in the background

History Commands:
  versions  List and append proof versions

Text streams to stdout as it arrives. Progress and errors go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("PROOFSTREAM_URL", "http://localhost:8080"), "Server base URL")
	rootCmd.PersistentFlags().StringVar(&unlockKey, "unlock-key", os.Getenv("UNLOCK_KEY"), "Unlock key for /v1")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Model provider (default: server default)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Primary model (default: provider default)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print the final result as JSON")
}

func newClient() *client.Client {
	return client.New(serverURL, unlockKey)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
