package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/domain/rules"
	"github.com/kailas-cloud/katalog/internal/domain/term"
)

type termsOutput struct {
	Terms []term.Term `json:"terms"`
	Query string      `json:"query"`
}

func newTermsCmd(g *globalFlags) *cobra.Command {
	f := &itemFlags{}
	c := &cobra.Command{
		Use:   "terms",
		Short: "Extract ranked search terms from an item",
		Long:  "Runs the rule engine (artist, brands, object types, models, periods, materials) and prints the candidates in priority order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			it, err := f.item()
			if err != nil {
				return err
			}
			cfg, err := g.ruleConfig()
			if err != nil {
				return err
			}
			terms := rules.Apply(cfg, it.RuleInput())
			out := termsOutput{Terms: terms, Query: term.Join(selectedTerms(terms))}

			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printTerms(cmd, out)
		},
	}
	f.register(c)
	return c
}

func selectedTerms(terms []term.Term) []term.Term {
	out := make([]term.Term, 0, len(terms))
	for _, t := range terms {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

func printTerms(cmd *cobra.Command, out termsOutput) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEL\tTERM\tTYPE\tPRIORITY\tCORE")
	for _, t := range out.Terms {
		sel := " "
		if t.Selected {
			sel = "x"
		}
		core := ""
		if t.Core {
			core = "core"
		}
		fmt.Fprintf(w, "[%s]\t%s\t%s\t%d\t%s\n", sel, t.Term, t.Type, t.Priority, core)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nquery: %s\n", out.Query)
	return nil
}
