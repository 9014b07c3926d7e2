package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vietddude/statuswatch/internal/control"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current status of all monitored services",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	view, err := app.Status(ctx)
	if err != nil {
		slog.Error("Failed to load status", "error", err)
		os.Exit(1)
	}

	fmt.Printf("System: %s (as of %s)\n\n", view.Status, humanize.Time(view.Timestamp))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "REGION\tSERVICE\tSTATUS\tCODE\tLATENCY\tCHECKED")
	for _, region := range view.Regions {
		for _, svc := range region.Services {
			_, _ = fmt.Fprintf(w, "%s (%s)\t%s\t%s\t%d\t%sms\t%s\n",
				region.Name, region.Status,
				svc.Name, svc.Status, svc.StatusCode,
				humanize.Comma(svc.Latency),
				humanize.Time(svc.LastChecked),
			)
		}
	}
	_ = w.Flush()

	if len(view.Incidents) == 0 {
		return
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "INCIDENT\tSERVICE\tREGION\tSTARTED\tDURATION\tSTATE")
	for _, inc := range view.Incidents {
		state := "open"
		if inc.ResolvedAt != nil {
			state = "resolved " + humanize.Time(*inc.ResolvedAt)
		}
		_, _ = fmt.Fprintf(w, "#%d\t%s\t%s\t%s\t%s\t%s\n",
			inc.ID, inc.ServiceName, inc.RegionName,
			humanize.Time(inc.StartedAt), inc.Duration, state,
		)
	}
	_ = w.Flush()
}
