package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantlake/quantlake/internal/engineconfig"
	"github.com/quantlake/quantlake/pkg/catalog"
)

func newRunCommand() *cobra.Command {
	var (
		datasets   []string
		categories []string
		priority   int
		quick      bool
		workers    int
		rpm        int
		startYear  int
		endYear    int
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and download the selected datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := setupLogger()

			engine, err := engineconfig.Configure(engineconfig.Options{
				Workers:   workers,
				RPM:       rpm,
				StartYear: startYear,
				EndYear:   endYear,
				Logger:    log,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
				<-sigChan
				log.Info("Received shutdown signal")
				cancel()
			}()

			rep, err := engine.Scheduler.Run(ctx, catalog.Selection{
				Datasets:   datasets,
				Categories: categories,
				Priority:   priority,
				Quick:      quick,
			})
			if err != nil {
				return err
			}

			if path, err := rep.Save(engine.ReportDir); err != nil {
				log.WithError(err).Warn("Failed to save run report")
			} else {
				log.WithField("path", path).Info("Saved run report")
			}

			rep.Render(cmd.OutOrStdout(), noColor)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&datasets, "dataset", nil, "restrict to these dataset names")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to these categories")
	cmd.Flags().IntVar(&priority, "priority", 0, "restrict to one priority level (1-3)")
	cmd.Flags().BoolVar(&quick, "quick", false, "quick smoke run: priority-1 unchunked datasets only")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size")
	cmd.Flags().IntVar(&rpm, "rpm", 0, "request rate limit per minute")
	cmd.Flags().IntVar(&startYear, "start-year", 0, "first year to download")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last year to download")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable report colors")

	return cmd
}
