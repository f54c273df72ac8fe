package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

func newCleanTitleCmd(g *globalFlags) *cobra.Command {
	var artist string
	c := &cobra.Command{
		Use:   "clean-title <title>",
		Short: "Remove the artist from a title",
		Long:  "Strips the artist name from a catalog title and repairs the punctuation left behind.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaned := titleclean.CleanAfterArtistRemoval(args[0], artist)
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{"title": cleaned})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cleaned)
			return nil
		},
	}
	c.Flags().StringVarP(&artist, "artist", "a", "", "artist name to remove")
	return c
}
