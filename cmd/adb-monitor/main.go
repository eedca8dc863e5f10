package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/config"
	"github.com/vexxhost/adb-monitor/device"
	"github.com/vexxhost/adb-monitor/service"
)

type LogFormatOpts enumflag.Flag

const (
	TextFormat LogFormatOpts = iota
	JSONFormat
)

var LogFormatOptsIds = map[LogFormatOpts][]string{
	TextFormat: {logging.FormatText},
	JSONFormat: {logging.FormatJSON},
}

const shutdownTimeout = 10 * time.Second

var (
	configPath   string
	debug        bool
	adbPath      string
	pollInterval time.Duration
	noRoot       bool
	noModel      bool
	logFormat    LogFormatOpts

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "adb-monitor",
	Short: "Track attached Android devices and elevate authorized ones to root",
	Long: `Polls 'adb devices' on a fixed interval, tracks authorization and connection
state per device, and runs 'adb root' once each time a device becomes authorized.
The current device table is logged whenever it changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, required := resolveConfigPath(cmd)

		loaded, err := config.Load(path, required)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, loaded)

		if err := loaded.Validate(); err != nil {
			return err
		}
		if err := logging.Setup(loaded.LogLevel, loaded.LogFormat); err != nil {
			return err
		}

		loaded.ADBPath = resolveADBPath(loaded.ADBPath)
		cfg = loaded
		configPath = path
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runDaemon(ctx)
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := device.NewExecRunner(cfg.ADBPath)
		lister := device.NewLister(runner, cfg.ListTimeout, logging.NewSessionLogger("device-lister"))

		records := lister.ListDevices(cmd.Context())
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No devices attached")
			return nil
		}

		for _, record := range records {
			authorized := "no"
			if record.State.IsAuthorized() {
				authorized = "yes"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tauthorized=%s\n", record.Serial, record.State, authorized)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Config file path (default %s, or $%s)", config.DefaultPath, config.EnvConfigPath))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&adbPath, "adb-path", "", "Path to the adb executable (default: search PATH and SDK locations)")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "Interval between 'adb devices' polls")
	rootCmd.PersistentFlags().BoolVar(&noRoot, "no-root", false, "Do not run 'adb root' on newly authorized devices")
	rootCmd.PersistentFlags().BoolVar(&noModel, "no-model", false, "Do not read the device model on connect")
	rootCmd.PersistentFlags().Var(enumflag.New(&logFormat, "log-format", LogFormatOptsIds, enumflag.EnumCaseInsensitive), "log-format", "Log output format: text or json")

	rootCmd.AddCommand(devicesCmd)
}

// resolveConfigPath picks the config file from flag, env or default.
// Only an explicitly requested file is required to exist.
func resolveConfigPath(cmd *cobra.Command) (string, bool) {
	if cmd.Flags().Changed("config") {
		return configPath, true
	}
	if env := os.Getenv(config.EnvConfigPath); env != "" {
		return env, true
	}
	return config.DefaultPath, false
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if debug {
		c.LogLevel = log.DebugLevel.String()
	}
	if flags.Changed("adb-path") {
		c.ADBPath = adbPath
	}
	if flags.Changed("poll-interval") {
		c.PollInterval = pollInterval
	}
	if noRoot {
		c.AutoRoot = false
	}
	if noModel {
		c.ResolveModel = false
	}
	if flags.Changed("log-format") {
		c.LogFormat = LogFormatOptsIds[logFormat][0]
	}
}

func resolveADBPath(explicit string) string {
	path, err := device.NewLocator().Locate(explicit)
	if err != nil {
		log.WithError(err).Warn("⚠️ adb not found, device listing will fail until it is installed")
	}
	return path
}

func runDaemon(ctx context.Context) error {
	session := logging.NewSessionLogger("adb-monitor")
	session.Entry().WithFields(log.Fields{
		"adb_path":      cfg.ADBPath,
		"poll_interval": cfg.PollInterval,
		"auto_root":     cfg.AutoRoot,
	}).Info("🚀 Starting adb monitor daemon")

	runner := device.NewExecRunner(cfg.ADBPath)
	lister := device.NewLister(runner, cfg.ListTimeout, session.Child("device-lister"))
	elevator := device.NewElevator(runner, cfg.RootTimeout, session.Child("root-elevator"))
	properties := device.NewPropertyReader(runner, cfg.PropertyTimeout, session.Child("property-reader"))

	board := service.NewStatusBoard()
	monitor := service.NewMonitor(lister, elevator, properties, board, service.MonitorOptions{
		PollInterval:    cfg.PollInterval,
		RootSettleDelay: cfg.RootSettleDelay,
		AutoRoot:        cfg.AutoRoot,
		ResolveModel:    cfg.ResolveModel,
	}, session)

	reporter := service.NewReporter(board, cfg.ReportInterval, session.Child("status-reporter"))

	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}
	go reporter.Run(ctx)

	if watcher := startConfigWatcher(ctx); watcher != nil {
		defer watcher.Close()
	}

	<-ctx.Done()
	session.Entry().Info("🛑 Shutting down adb monitor daemon")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := monitor.Stop(stopCtx); err != nil && !errors.Is(err, service.ErrMonitorNotRunning) {
		session.Entry().WithError(err).Warn("⚠️ Error stopping device monitor")
	}

	reporter.Check()
	session.Entry().WithField("devices", service.FormatSnapshot(board.Snapshot())).Info("✅ adb monitor daemon stopped")
	return nil
}

// startConfigWatcher re-applies the log level when the config file changes.
// Other settings take effect on restart.
func startConfigWatcher(ctx context.Context) *config.Watcher {
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, func(updated *config.Config) {
		if debug {
			return
		}
		if lvl, err := log.ParseLevel(updated.LogLevel); err == nil {
			log.SetLevel(lvl)
			log.WithField("log_level", lvl.String()).Info("🔧 Log level updated from config")
		}
	})
	if err != nil {
		log.WithError(err).Warn("⚠️ Config hot reload disabled")
		return nil
	}

	go watcher.Run(ctx)
	return watcher
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
