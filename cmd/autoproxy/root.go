package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-autoproxy/framework/logging"
)

type rootOptions struct {
	logLevel string
	pretty   bool
	envFile  string
}

// NewRootCmd builds the autoproxy command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "autoproxy",
		Short: "Inspect and serve name-pattern proxy decisions",
		Long: `autoproxy decides which container components are wrapped in proxies,
based on a list of name patterns such as "tx*", "*Service" or "&myFactory".`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("log-level") {
				_ = os.Setenv("LOG_LEVEL", opts.logLevel)
			}
			if cmd.Flags().Changed("pretty") && opts.pretty {
				_ = os.Setenv("LOG_PRETTY", "true")
			}
			logging.Setup(logging.Config{Level: opts.logLevel, Pretty: opts.pretty, Out: cmd.ErrOrStderr()})
			log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable console logs")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file to load")

	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newDecideCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}
