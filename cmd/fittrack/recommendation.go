package main

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-fittrack-client/backend"
	"github.com/jrsteele09/go-fittrack-client/fetcher"
	"github.com/jrsteele09/go-fittrack-client/internal/app"
	"github.com/spf13/cobra"
)

func newRecommendationCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "recommendation <activity-id>",
		Aliases: []string{"rec"},
		Short:   "Show the recommendation for an activity, waiting while it is produced",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireSession(cmd); err != nil {
				return err
			}
			return c.showRecommendation(cmd, args[0])
		},
	}
}

// requireSession builds the app and refuses to continue without a session
func (c *cli) requireSession(cmd *cobra.Command) (*app.App, error) {
	a, err := c.application(cmd.Context())
	if err != nil {
		return nil, err
	}
	if !a.Session.Snapshot().Authenticated() {
		return nil, errNotLoggedIn
	}
	return a, nil
}

func (c *cli) showRecommendation(cmd *cobra.Command, activityID string) error {
	a, err := c.application(cmd.Context())
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.errOut))
	s.Suffix = " Loading activity details..."
	s.Start()
	result, ok := a.Recommendations.Fetch(cmd.Context(), activityID)
	s.Stop()

	if !ok {
		return cmd.Context().Err()
	}
	switch result.State {
	case fetcher.StateReady:
		c.printRecommendation(result.Payload)
		return nil
	case fetcher.StateExhausted:
		c.printf("%s %s\n", text.FgYellow.Sprint("…"), result.Message)
		return nil
	default:
		return result.Err
	}
}

func (c *cli) printRecommendation(rec *backend.Recommendation) {
	c.printf("%s\n", text.Bold.Sprint("Recommendation"))
	if rec.ActivityType != "" {
		c.printf("  Activity:  %s\n", rec.ActivityType)
	}
	if !rec.CreatedAt.IsZero() {
		c.printf("  Analysed:  %s\n", formatLocalTime(rec.CreatedAt))
	}
	c.printf("\n%s\n", rec.Recommendation)
	c.printList("Improvements", text.FgHiBlue, rec.Improvements)
	c.printList("Suggestions", text.FgGreen, rec.Suggestions)
	c.printList("Safety", text.FgYellow, rec.Safety)
}

func (c *cli) printList(title string, colour text.Color, items []string) {
	if len(items) == 0 {
		return
	}
	c.printf("\n%s\n", colour.Sprint(title))
	for _, item := range items {
		c.printf("  • %s\n", item)
	}
}
