package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/internal/config"
	"github.com/zfogg/menuboard/internal/output"
	"github.com/zfogg/menuboard/internal/prompter"
	"github.com/zfogg/menuboard/internal/termlog"
	"github.com/zfogg/menuboard/pkg/menu"
)

// app carries the state every command shares: the global flags, the
// resolved config and the printer.
type app struct {
	verbose    bool
	configPath string
	outputFmt  string
	apiURL     string

	// skipSystem keeps /etc out of config resolution in tests.
	skipSystem bool
	// in replaces stdin for the secret prompt.
	in io.Reader

	cfg     *config.Config
	printer *output.Printer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "menuboard",
		Short: "Menuboard - browse and manage a restaurant menu",
		Long: `Menuboard shows a restaurant menu from a REST resource on the web,
in a terminal browser or as plain command output. Owners can edit
prices, add and delete items with the shared secret key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = termlog.Close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: ~/.config/menuboard/config.toml)")
	rootCmd.PersistentFlags().StringVar(&a.outputFmt, "output", "text", "Output format: text, json, table")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Menu resource URL (default: http://localhost:3001/api/menu)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newBrowseCmd(a))
	rootCmd.AddCommand(newMenuCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	a := &app{}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		a.report(root, err)
		os.Exit(1)
	}
}

func (a *app) report(cmd *cobra.Command, err error) {
	if a.printer == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	a.printer.Error(err)
}

func (a *app) init(cmd *cobra.Command) error {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("output") {
		overrides["output.format"] = a.outputFmt
	}
	if flags.Changed("api-url") {
		overrides["api.base_url"] = a.apiURL
	}
	if a.verbose {
		overrides["log.level"] = "debug"
	}

	cfg, err := config.Load(config.Options{
		Path:       a.configPath,
		SkipSystem: a.skipSystem,
		Overrides:  overrides,
	})
	if err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}
	a.cfg = cfg

	termlog.Init(a.verbose, cfg.Log.File)
	termlog.Debug("Config loaded", "file", cfg.File, "api", cfg.API.BaseURL)

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	a.printer = output.New(format, cfg.View.TruncateAt)
	a.printer.Out = cmd.OutOrStdout()
	a.printer.Err = cmd.ErrOrStderr()
	return nil
}

// client is the menu client used by the terminal surfaces. Request logs go
// to the terminal log file.
func (a *app) client() *menu.Client {
	return menu.New(menu.Options{
		BaseURL:   a.cfg.API.BaseURL,
		Logger:    termlog.Get(),
		UserAgent: userAgent(),
		Debug:     a.verbose,
	})
}

// secret resolves the owner secret from the flag, then the configured
// secret, then a hidden prompt.
func (a *app) secret(cmd *cobra.Command, flag string) authz.Source {
	p := prompter.New()
	if a.in != nil {
		p.In = a.in
	}
	p.Out = cmd.ErrOrStderr()
	return authz.Chain{
		authz.Static(flag),
		authz.Static(a.cfg.API.Secret),
		authz.Prompt(p, "Secret key: "),
	}
}
