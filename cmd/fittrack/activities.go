package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-fittrack-client/backend"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newActivitiesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "List, add and delete activities",
	}
	cmd.AddCommand(newActivitiesListCmd(c), newActivitiesAddCmd(c), newActivitiesDeleteCmd(c))
	return cmd
}

func newActivitiesListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd)
			if err != nil {
				return err
			}
			activities, err := a.Backend.ListActivities(cmd.Context())
			if err != nil {
				return err
			}
			if len(activities) == 0 {
				c.printf("%s\n", text.FgYellow.Sprint("No activities yet. Add one with: fittrack activities add"))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(c.out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"ID", "Type", "Duration", "Calories", "Started"})
			for _, act := range activities {
				t.AppendRow(table.Row{
					act.ID,
					string(act.Type),
					fmt.Sprintf("%d min", act.Duration),
					act.CaloriesBurned,
					formatLocalTime(act.StartTime),
				})
			}
			t.AppendFooter(table.Row{"", "", "", "Total", len(activities)})
			t.Render()
			return nil
		},
	}
}

func newActivitiesAddCmd(c *cli) *cobra.Command {
	var (
		activityType string
		duration     int
		calories     int
		metrics      []string
		wait         bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an activity",
		Long: `Record an activity. Known types: ` + knownTypes() + `.

Additional metrics are given as key=value pairs, for example
  fittrack activities add --type RUNNING --duration 30 --calories 300 -m distance=5.2 -m pace=5:45`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd)
			if err != nil {
				return err
			}
			extra, err := parseMetrics(metrics)
			if err != nil {
				return err
			}
			activity, err := a.Backend.AddActivity(cmd.Context(), backend.ActivityRequest{
				Type:               backend.ActivityType(strings.ToUpper(activityType)),
				Duration:           duration,
				CaloriesBurned:     calories,
				StartTime:          time.Now().UTC(),
				AdditionalMetrices: extra,
			})
			if err != nil {
				return err
			}
			c.success("Activity %s recorded", activity.ID)
			if wait {
				return c.showRecommendation(cmd, activity.ID)
			}
			c.printf("  Its recommendation will be ready shortly: fittrack recommendation %s\n", activity.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&activityType, "type", "t", string(backend.ActivityRunning), "activity type")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "duration in minutes")
	cmd.Flags().IntVarP(&calories, "calories", "c", 0, "calories burned")
	cmd.Flags().StringArrayVarP(&metrics, "metric", "m", nil, "additional metric as key=value (repeatable)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the recommendation")
	return cmd
}

func newActivitiesDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <activity-id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd)
			if err != nil {
				return err
			}
			if err := a.Backend.DeleteActivity(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.success("Activity %s deleted", args[0])
			return nil
		},
	}
}

func knownTypes() string {
	names := make([]string, 0, len(backend.ActivityTypes))
	for _, t := range backend.ActivityTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// parseMetrics turns key=value pairs into the free-form metrics map. Numeric values are sent
// as numbers.
func parseMetrics(pairs []string) (map[string]any, error) {
	metrics := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("metric %q is not in key=value form", pair)
		}
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			metrics[key] = f
		} else {
			metrics[key] = value
		}
	}
	return metrics, nil
}

func formatLocalTime(t backend.LocalTime) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
