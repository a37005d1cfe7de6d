package terminal

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/de-tools/test-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/test-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/test-atlas/pkg/services/config"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"
	"github.com/spf13/cobra"
)

// Bootstrap builds the dashboard service from settings. The returned close function
// releases whatever the service holds open.
type Bootstrap func(ctx context.Context, settings *config.Settings) (dashboard.Service, func() error, error)

// CLI represents the command-line interface
type CLI struct {
	bootstrap  Bootstrap
	reporter   *export.Reporter
	rootCmd    *cobra.Command
	configPath string

	svc   dashboard.Service
	close func() error
}

// Options contain configuration for the CLI
type Options struct {
	Bootstrap Bootstrap
	Output    io.Writer
}

func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		bootstrap: opts.Bootstrap,
		reporter:  export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the arguments read from os.Args.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "dashboard",
		Short:             "Query test result dashboards from the terminal",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if cli.close == nil {
				return nil
			}
			return cli.close()
		},
	}
	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to a YAML settings file (settings can also be set with DASHBOARD_* variables)")

	provider := func() dashboard.Service { return cli.svc }
	cmd.AddCommand(commands.NewDashboardsCmd(provider, cli.reporter))
	cmd.AddCommand(commands.NewFiltersCmd(provider, cli.reporter))
	cmd.AddCommand(commands.NewSummaryCmd(provider, cli.reporter))
	cmd.AddCommand(commands.NewViewCmd(provider, cli.reporter))
	cmd.AddCommand(commands.NewChartCmd(provider, cli.reporter))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	if cli.bootstrap == nil {
		return errors.New("no service bootstrap configured")
	}

	settings, err := config.LoadSettings(cli.configPath)
	if err != nil {
		return err
	}

	svc, closeFn, err := cli.bootstrap(cmd.Context(), settings)
	if err != nil {
		return err
	}
	cli.svc, cli.close = svc, closeFn
	return nil
}
