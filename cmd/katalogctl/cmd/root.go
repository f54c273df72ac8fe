package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/config"
	"github.com/kailas-cloud/katalog/internal/domain/rules"
	logpkg "github.com/kailas-cloud/katalog/internal/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	env        string
	configPath string
	asJSON     bool
	verbose    bool
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "katalogctl",
		Short:         "Auctionet cataloging assistant tools",
		Long:          "Search-term rules, title cleanup, market analysis and AI enhancement for Auctionet catalog items.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.env, "env", config.GetEnv(), "environment whose config/{env}.yaml is loaded")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "explicit config file (overrides --env)")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log provider calls to stderr")

	root.AddCommand(newTermsCmd(g))
	root.AddCommand(newCleanTitleCmd(g))
	root.AddCommand(newSelfTestCmd(g))
	root.AddCommand(newEnhanceCmd(g))
	root.AddCommand(newMarketCmd(g))
	root.AddCommand(newVersionCmd(g))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads --config or config/{env}.yaml.
func (g *globalFlags) loadConfig() (config.Config, error) {
	if g.configPath != "" {
		return config.LoadFile(g.configPath)
	}
	return config.Load(g.env)
}

// ruleConfig uses the configured rule table when a config is given, the
// built-in one otherwise.
func (g *globalFlags) ruleConfig() (rules.Config, error) {
	if g.configPath == "" {
		return rules.DefaultConfig(), nil
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return rules.Config{}, err
	}
	return cfg.Rules.Build()
}

func (g *globalFlags) logger() *zap.Logger {
	if !g.verbose {
		return zap.NewNop()
	}
	l, err := logpkg.NewLogger("local", "debug")
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
