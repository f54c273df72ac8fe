package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/katalog/internal/domain/item"
)

// itemFlags maps the cataloging form onto flags.
type itemFlags struct {
	it item.Item
}

func (f *itemFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.it.Title, "title", "t", "", "item title")
	fs.StringVarP(&f.it.Description, "description", "d", "", "item description")
	fs.StringVar(&f.it.Condition, "condition", "", "condition report")
	fs.StringVarP(&f.it.Artist, "artist", "a", "", "artist or maker")
	fs.StringVar(&f.it.AIArtist, "ai-artist", "", "artist detected by AI")
	fs.StringVar(&f.it.ExcludedArtist, "excluded-artist", "", "AI artist the cataloger rejected")
	fs.StringVar(&f.it.Keywords, "keywords", "", "hidden keywords")
	fs.StringVar(&f.it.Category, "category", "", "category name")
}

func (f *itemFlags) item() (item.Item, error) {
	if f.it.IsEmpty() {
		return item.Item{}, errors.New("nothing to analyze: pass --title, --description or --artist")
	}
	return f.it, nil
}
