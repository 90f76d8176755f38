package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autoproxy/framework/app"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the autoproxy admin API and metrics",
		Long: `serve boots the application and listens on APP_PORT with:

  GET /autoproxy/patterns
  PUT /autoproxy/patterns
  GET /autoproxy/decide?name=NAME&factory=BOOL
  GET /autoproxy/match?pattern=P&text=T
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(app.Options{EnvFiles: []string{root.envFile}})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}
