package main

import (
	"fmt"

	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/config"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/settings"
	"github.com/lotas/autopin/internal/storage"
	"github.com/spf13/cobra"
)

// app carries the resolved configuration to the subcommands.
type app struct {
	cfgFile  string
	dbPath   string
	port     int
	logLevel string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "autopin",
		Short: "Pin browser tabs that match your rules",
		Long: `autopin keeps browser tabs whose URL matches a rule pinned, optionally
ordered by rule priority. "autopin serve" runs the daemon the browser
extension connects to; the other commands edit the rule set it follows.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { applog.Close() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/autopin/config.yaml)")
	flags.StringVar(&a.dbPath, "db", "", "settings database path (overrides config)")
	flags.IntVar(&a.port, "port", 0, "WebSocket port for the extension (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newServeCmd(a),
		newRulesCmd(a),
		newReorderCmd(a),
		newScanCmd(a),
		newTUICmd(a),
		newProfilesCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and opens the log.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		if cfg.Database.Path, err = config.ExpandTilde(a.dbPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = a.port
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := applog.Init(cfg.Log.Dir); err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	applog.SetLevel(applog.ParseLevel(cfg.Log.Level))
	applog.Debug("config.loaded", "file", cfg.File, "db", cfg.Database.Path, "port", cfg.Server.Port)
	return nil
}

// openSettings opens the settings store and an adapter over it. The
// adapter is not started; commands that only read or write the rule set
// don't need a live repository.
func (a *app) openSettings() (*storage.Store, *settings.Adapter, error) {
	st, err := storage.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return st, settings.NewAdapter(st, rules.NewRepository(nil)), nil
}
