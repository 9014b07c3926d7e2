package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vietddude/statuswatch/internal/control"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and print the result",
	Run:   runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	app, err := control.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize statuswatch", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Close()
	}()

	result, err := app.RunOnce(ctx)
	if err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
