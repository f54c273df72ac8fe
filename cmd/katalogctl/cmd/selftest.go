package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

var errSelfTestFailed = errors.New("title cleanup self-test failed")

func newSelfTestCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in title cleanup table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results := titleclean.SelfTest()
			if g.asJSON {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				passed := 0
				for _, r := range results {
					if r.Passed {
						passed++
						fmt.Fprintf(out, "PASS  %q → %q\n", r.Title, r.Got)
						continue
					}
					fmt.Fprintf(out, "FAIL  %q → %q (want %q)\n", r.Title, r.Got, r.Expected)
				}
				fmt.Fprintf(out, "\n%d/%d passed\n", passed, len(results))
			}
			if !titleclean.AllPassed(results) {
				return errSelfTestFailed
			}
			return nil
		},
	}
}
