package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autoproxy/framework/aop/autoproxy"
)

func newMatchCmd() *cobra.Command {
	var matcher string

	cmd := &cobra.Command{
		Use:   "match PATTERN TEXT",
		Short: "Report whether TEXT matches PATTERN",
		Example: `  autoproxy match 'tx*' txManager
  autoproxy match --matcher glob 'user{Service,Repo}' userRepo`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := autoproxy.MatcherByName(matcher)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m.Match(args[1], args[0]))
			return err
		},
	}
	cmd.Flags().StringVar(&matcher, "matcher", "simple", "pattern grammar: simple or glob")
	return cmd
}
