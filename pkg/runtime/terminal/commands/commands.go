package commands

import (
	"context"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"
	"github.com/spf13/cobra"
)

const defaultTimeout = 2 * time.Minute

// ServiceProvider returns the dashboard service, built once the root command has loaded
// its settings.
type ServiceProvider func() dashboard.Service

type queryFlags struct {
	filters map[string]string
	timeout time.Duration
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringToStringVarP(&f.filters, "filter", "f", nil,
		"Filter values, e.g. -f since=today-2week -f branch=mozilla-central")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultTimeout, "Time allowed for the remote queries")
}

func (f *queryFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, f.timeout)
}

func (f *queryFlags) domainFilters() domain.Filters {
	return domain.Filters(f.filters)
}

func NewDashboardsCmd(svc ServiceProvider, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboards",
		Short: "List the configured dashboards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dashboards, err := svc().ListDashboards(cmd.Context())
			if err != nil {
				return err
			}
			return reporter.Dashboards(dashboards)
		},
	}
}

func NewFiltersCmd(svc ServiceProvider, reporter *export.Reporter) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "filters <dashboard>",
		Short: "Show the filters of a dashboard and their options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			filters, err := svc().GetFilters(ctx, args[0], flags.domainFilters())
			if err != nil {
				return err
			}
			return reporter.Filters(filters)
		},
	}
	flags.register(cmd)
	return cmd
}

func NewSummaryCmd(svc ServiceProvider, reporter *export.Reporter) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "summary <dashboard>",
		Short: "Show the distinct test and result counts of a dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			summary, err := svc().GetSummary(ctx, args[0], flags.domainFilters())
			if err != nil {
				return err
			}
			return reporter.Summary(summary)
		},
	}
	flags.register(cmd)
	return cmd
}

func NewViewCmd(svc ServiceProvider, reporter *export.Reporter) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "view <dashboard> <view>...",
		Short: "Print one or more named views of a dashboard",
		Example: "  dashboard view unittest failures skipped -f branch=mozilla-central\n" +
			"  dashboard view fx-test tests_slowest -f project=kuma -f since=today-4week",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			for _, view := range args[1:] {
				res, err := svc().GetView(ctx, args[0], view, flags.domainFilters())
				if err != nil {
					return err
				}
				if err := reporter.View(view, res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func NewChartCmd(svc ServiceProvider, reporter *export.Reporter) *cobra.Command {
	var (
		flags        queryFlags
		tests, fails string
	)
	cmd := &cobra.Command{
		Use:   "chart <dashboard>",
		Short: "Compose the distinct tests, failures and duration chart panels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			panels, err := svc().GetChart(ctx, args[0], tests, fails, flags.domainFilters())
			if err != nil {
				return err
			}
			return reporter.Chart(panels)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&tests, "tests-view", "", "Time-series view providing the tests columns (default tests_by_date)")
	cmd.Flags().StringVar(&fails, "failures-view", "", "Time-series view providing the failures columns (default failures_by_date)")
	return cmd
}
