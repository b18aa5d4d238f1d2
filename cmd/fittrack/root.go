package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "fittrack",
		Short: "Track workouts and read their AI recommendations",
		Long: `fittrack logs you in to the fitness tracker, records activities and
polls for the recommendation produced for each one.

Configuration is read from FITTRACK_* environment variables, a .env file in the
working directory, and an optional YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.noBanner || cmd.Name() == "status" {
				return nil
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			displayAppname(c.out, cfg.GetAppName())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (default $FITTRACK_CONFIG)")
	root.PersistentFlags().BoolVar(&c.noBanner, "no-banner", false, "do not print the banner")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newRegisterCmd(c),
		newStatusCmd(c),
		newActivitiesCmd(c),
		newRecommendationCmd(c),
	)
	return root
}
