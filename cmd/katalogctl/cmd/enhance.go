package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/transport/llm"
	completionuc "github.com/kailas-cloud/katalog/internal/usecase/completion"
	enhanceuc "github.com/kailas-cloud/katalog/internal/usecase/enhance"
)

func newEnhanceCmd(g *globalFlags) *cobra.Command {
	f := &itemFlags{}
	var field string
	c := &cobra.Command{
		Use:   "enhance",
		Short: "Improve catalog texts with the configured LLM",
		Long: "Sends the item to the provider selected by llm.provider and prints the improved fields.\n" +
			"--field picks one of: all, title, description, condition, keywords, title-correct.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			it, err := f.item()
			if err != nil {
				return err
			}
			fld, err := enhanceuc.ParseField(field)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			logger := g.logger()
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.LLM.TimeoutSec)*time.Second)
			defer cancel()

			provider := llm.NewProvider(ctx, cfg.LLM, logger)
			completer := domain.NewDefaultsCompleter(
				completionuc.NewInstrumentedCompleter(provider.Completer, provider.Name, nil, logger),
				provider.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature,
			)

			ctx, usage := domain.NewContextWithUsage(ctx)
			res, err := enhanceuc.New(completer, logger).Enhance(ctx, it, fld)
			if err != nil {
				return fmt.Errorf("enhance via %s: %w", provider.Name, err)
			}

			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			for _, row := range []struct{ label, value string }{
				{"TITEL", res.Title},
				{"BESKRIVNING", res.Description},
				{"KONDITION", res.Condition},
				{"SÖKORD", res.Keywords},
			} {
				if row.value != "" {
					fmt.Fprintf(out, "%s: %s\n", row.label, row.value)
				}
			}
			if usage.Calls > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "(%s, %d tokens)\n", provider.Name, usage.TotalTokens)
			}
			return nil
		},
	}
	f.register(c)
	c.Flags().StringVarP(&field, "field", "f", "all", "field to improve")
	return c
}
