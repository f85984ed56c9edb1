package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/datewindow"
	"github.com/jayphen/gleis/internal/notion"
	"github.com/jayphen/gleis/internal/task"
)

func newTasksCmd() *cobra.Command {
	var (
		today      bool
		week       bool
		month      string
		fiscalYear int
		catTag     string
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks for a calendar window",
		Long: `List tasks from the Notion database, scoped to a calendar window.

With no flags the rolling board window is used: from the start of the
previous month through the end of next week.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(today, week, month, fiscalYear, catTag)
		},
	}

	cmd.Flags().BoolVar(&today, "today", false, "Only today's tasks")
	cmd.Flags().BoolVar(&week, "week", false, "The current Monday-start week")
	cmd.Flags().StringVar(&month, "month", "", "A calendar month (YYYY-MM)")
	cmd.Flags().IntVar(&fiscalYear, "fy", 0, "A fiscal year (April through March)")
	cmd.Flags().StringVar(&catTag, "tag", "", "Require a category tag (e.g. PRJ)")

	return cmd
}

func runTasks(today, week bool, month string, fiscalYear int, catTag string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := notion.New(cfg.Notion)
	if err != nil {
		return err
	}

	now := time.Now()
	q := notion.Query{CatTag: catTag}
	switch {
	case fiscalYear != 0:
		q.FiscalYear = fiscalYear
	case today:
		q.Window = datewindow.Today(now)
	case week:
		q.Window = datewindow.CurrentWeek(now)
	case month != "":
		q.Window, err = datewindow.MonthOf(month)
		if err != nil {
			return err
		}
	default:
		q.Window = datewindow.Rolling(now)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tasks, err := client.QueryTasks(ctx, q)
	if err != nil {
		return err
	}

	// Board listings hide finished work; the fiscal tracker keeps dated
	// Done tasks visible on purpose.
	if !q.FiscalMode() {
		tasks = task.ExcludeState(tasks, cfg.Notion.Defaults.Done)
	}

	printTasks(tasks)
	return nil
}

// printTasks writes tasks grouped by day, unscheduled ones first.
func printTasks(tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return
	}

	groups := task.GroupByDay(tasks)
	days := make([]string, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		header := day
		if header == "" {
			header = "unscheduled"
		}
		fmt.Printf("%s\n", header)
		for _, t := range groups[day] {
			line := fmt.Sprintf("  [%s] %s", t.State, t.Name)
			if t.Cat != "" {
				line += fmt.Sprintf(" (%s)", t.Cat)
			}
			fmt.Println(line)
		}
	}
}
