package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autoproxy/framework/aop/autoproxy"
	"github.com/km-arc/go-autoproxy/framework/config"
)

func newDecideCmd(root *rootOptions) *cobra.Command {
	var (
		patterns string
		matcher  string
		factory  bool
	)

	cmd := &cobra.Command{
		Use:   "decide NAME...",
		Short: "Print the proxy decision for each component name",
		Long: `decide prints one line per NAME: the name, the decision and the pattern
that produced it. Without --patterns the configured AUTOPROXY_OBJECT_NAMES
(or AUTOPROXY_FILE) list is used.`,
		Example: `  autoproxy decide --patterns 'tx*,*Service' userService txManager orderRepo
  autoproxy decide --factory --patterns '&conn*' '&connectionFactory'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := autoproxy.ParsePatternList(patterns)
			kind := matcher
			if !cmd.Flags().Changed("patterns") {
				cfg, err := config.Load(root.envFile)
				if err != nil {
					return err
				}
				list = autoproxy.NewPatternList(cfg.AutoProxy.ObjectNames...)
				if !cmd.Flags().Changed("matcher") {
					kind = cfg.AutoProxy.Matcher
				}
			}

			m, err := autoproxy.MatcherByName(kind)
			if err != nil {
				return err
			}
			d := autoproxy.NewNamePatternProxyDecider(autoproxy.WithMatcher(m))
			d.SetPatterns(list)

			t := autoproxy.StandInType(factory)
			out := cmd.OutOrStdout()
			for _, name := range args {
				e, err := d.Explain(autoproxy.Candidate{Type: t, Name: name})
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", name, e.Decision, e.Pattern); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patterns, "patterns", "", "comma-separated object name patterns")
	cmd.Flags().StringVar(&matcher, "matcher", "simple", "pattern grammar: simple or glob")
	cmd.Flags().BoolVar(&factory, "factory", false, "treat every NAME as a factory object")
	return cmd
}
