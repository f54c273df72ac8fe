package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/dashboard"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/transport/auctionet"
	marketuc "github.com/kailas-cloud/katalog/internal/usecase/market"
)

func newMarketCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "market <query>",
		Short: "Analyze Auctionet sales for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger := g.logger()
			defer func() { _ = logger.Sync() }()

			timeout := time.Duration(cfg.Market.TimeoutSec) * time.Second
			source := auctionet.NewClient(&auctionet.Config{
				BaseURL:   cfg.Market.BaseURL,
				PublicURL: cfg.Market.PublicURL,
				PerPage:   cfg.Market.PerPage,
				Timeout:   timeout,
				Logger:    logger,
			})
			opts := marketuc.DefaultAnalyzeOptions()
			opts.ExceptionalFactor = cfg.Market.ExceptionalFactor
			opts.TrendWindow = time.Duration(cfg.Market.TrendWindowDays) * 24 * time.Hour
			svc := marketuc.New(source, nil, opts, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*timeout)
			defer cancel()

			d, err := svc.Analyze(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			printMarket(cmd, d)
			return nil
		},
	}
}

func printMarket(cmd *cobra.Command, d *market.Data) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "query:       %s\n", d.Query)
	if !d.HasData {
		fmt.Fprintln(out, "no comparable sales found")
		return
	}
	if d.PriceRange != nil {
		fmt.Fprintf(out, "range:       %s–%s %s\n",
			dashboard.FormatPrice(d.PriceRange.Low), dashboard.FormatPrice(d.PriceRange.High), d.PriceRange.Currency)
	}
	fmt.Fprintf(out, "confidence:  %.0f%% (%s)\n", d.Confidence*100, d.ConfidenceLabel)
	if h := d.Historical; h != nil {
		fmt.Fprintf(out, "historical:  %d sold, median %s\n", h.Sold, dashboard.FormatPrice(h.MedianPrice))
	}
	if l := d.Live; l != nil {
		fmt.Fprintf(out, "live:        %d running, average bid %s\n", l.Count, dashboard.FormatPrice(l.AverageBid))
	}
	if t := d.Trend; t != nil {
		fmt.Fprintf(out, "trend:       %s %s\n", t.Direction, t.Description)
	}
	for _, s := range d.ExceptionalSales {
		fmt.Fprintf(out, "exceptional: %s %s  %s\n", dashboard.FormatPrice(s.Price), s.Currency, s.Title)
	}
	for _, s := range d.DataSources {
		fmt.Fprintf(out, "source:      %s (%d) %s\n", s.Label, s.Count, s.URL)
	}
}
