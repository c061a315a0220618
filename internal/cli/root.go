// Package cli is the command-line entry point. Without a subcommand it
// opens the desktop window.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"adboss/internal/adb"
	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/parse"
)

var (
	errNoDevice    = errors.New("no online device; connect one or pass --serial")
	errManyDevices = errors.New("more than one device attached; pass --serial")
)

type options struct {
	adbPath    string
	serial     string
	configPath string
	logLevel   string
	logFile    string
	noColor    bool
}

// env is built once per invocation and shared by every subcommand.
type env struct {
	opts options
	cfg  *config.Store
	gw   *adb.Gateway
	log  zerolog.Logger
}

func (e *env) setup(cmd *cobra.Command) error {
	var (
		store *config.Store
		err   error
	)
	if e.opts.configPath != "" {
		store, err = config.Open(e.opts.configPath, zerolog.Nop())
	} else {
		store, err = config.Load(zerolog.Nop())
	}
	if store == nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := e.opts.logLevel
	if level == "" {
		level = store.String(config.KeyLogLevel)
	}
	if lerr := logging.Init(logging.Config{
		Level:    level,
		Console:  true,
		FilePath: e.opts.logFile,
		NoColor:  e.opts.noColor,
		Out:      cmd.ErrOrStderr(),
	}); lerr != nil {
		return lerr
	}
	e.log = logging.For("cli")
	if err != nil {
		// a corrupt file still leaves usable defaults
		e.log.Warn().Err(err).Msg("failed to load config")
	}

	path := e.opts.adbPath
	if path == "" {
		path = store.String(config.KeyADBPath)
	}
	e.cfg = store
	e.gw = adb.NewGateway(path, adb.WithLogger(logging.For("adb")), adb.WithSerial(e.opts.serial))
	return nil
}

// device binds a serial for device commands: the --serial flag, or the only
// online device.
func (e *env) device(ctx context.Context) error {
	if e.gw.Serial() != "" {
		return nil
	}
	devs, res := e.gw.Devices(ctx)
	if res.Failure == adb.FailureToolMissing {
		return fmt.Errorf("%w: %s", adb.ErrToolMissing, e.gw.Path())
	}
	var online []parse.Device
	for _, d := range devs {
		if d.Online() {
			online = append(online, d)
		}
	}
	switch len(online) {
	case 0:
		return errNoDevice
	case 1:
		e.gw.SetDevice(online[0].Serial)
		return nil
	}
	return errManyDevices
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "adboss",
		Short:         "Android device control panel",
		Long:          "adboss drives the adb tool: device dashboard, logcat viewer, shell, file transfer and app management.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logging.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGUI(cmd.Context(), e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.opts.adbPath, "adb", "", "path to the adb binary (default: config, then auto-detect)")
	pf.StringVarP(&e.opts.serial, "serial", "s", "", "device serial to target")
	pf.StringVar(&e.opts.configPath, "config", "", "config file (default: user config dir)")
	pf.StringVar(&e.opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&e.opts.logFile, "log-file", "", "also append logs to this file")
	pf.BoolVar(&e.opts.noColor, "no-color", false, "disable colored log output")

	root.AddCommand(
		newGUICommand(e),
		newVersionCommand(e),
		newDevicesCommand(e),
		newInfoCommand(e),
		newPackagesCommand(e),
		newInstallCommand(e),
		newUninstallCommand(e),
		newRebootCommand(e),
		newScreenshotCommand(e),
		newLogcatCommand(e),
		newShellCommand(e),
		newTransferCommand(e, "push"),
		newTransferCommand(e, "pull"),
		newConfigCommand(e),
	)
	return root
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

// failed turns an unsuccessful gateway result into an error for the exit
// status.
func failed(op string, res adb.CommandResult) error {
	if res.Success {
		return nil
	}
	msg := res.Failure.String()
	if res.Failure == adb.FailureNonZeroExit {
		msg = fmt.Sprintf("exit status %d", res.ExitCode)
	}
	return fmt.Errorf("%s failed: %s", op, msg)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
