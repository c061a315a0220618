package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"adboss/internal/adb"
	"adboss/internal/monitor"
	"adboss/internal/parse"
)

func newVersionCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "adb-version",
		Short: "Print the adb tool version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.gw.Available() {
				return fmt.Errorf("%w: %s", adb.ErrToolMissing, e.gw.Path())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", e.gw.Path(), e.gw.Version(cmd.Context()))
			return nil
		},
	}
}

func newDevicesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.gw.StartServer(cmd.Context())
			devs, res := e.gw.Devices(cmd.Context())
			if err := failed("devices", res); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERIAL\tSTATE\tMODEL\tPRODUCT")
			for _, d := range devs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Serial, d.RawState, d.Model, d.Product)
			}
			return tw.Flush()
		},
	}
}

func newInfoCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the device dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			snap, err := monitor.Collect(cmd.Context(), e.gw)
			if err != nil {
				return err
			}
			printSnapshot(cmd, snap)
			return nil
		},
	}
}

func printSnapshot(cmd *cobra.Command, s monitor.Snapshot) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	row := func(k, format string, args ...any) {
		fmt.Fprintf(tw, "%s\t"+format+"\n", append([]any{k}, args...)...)
	}
	row("Serial", "%s", s.Serial)
	row("Model", "%s %s", s.Info.Manufacturer, s.Info.Model)
	row("Android", "%s (SDK %s)", s.Info.AndroidVersion, s.Info.SDKVersion)
	row("Build", "%s", s.Info.BuildID)
	row("Uptime", "%s", parse.FormatUptime(s.Info.Uptime))
	row("Battery", "%d%% %s, %.1f°C, %s", s.Battery.Level, s.Battery.Status, s.Battery.Temperature, s.Battery.Health)
	row("Memory", "%s / %s", parse.FormatKB(s.Memory.UsedKB), parse.FormatKB(s.Memory.TotalKB))
	row("Storage", "%s / %s (%.0f%%)", parse.FormatKB(s.Storage.UsedKB), parse.FormatKB(s.Storage.TotalKB), s.Storage.UsedPercent())
	row("CPU", "%.0f%%", s.CPU.UsagePercent)
	for _, p := range s.CPU.Top {
		row("", "%6d  %5.1f%%  %s", p.PID, p.CPU, p.Name)
	}
	row("Display", "%s @ %d dpi", s.Display.Resolution(), s.Display.DPI)
	row("Wi-Fi", "%s %s (%d dBm)", s.Network.SSID, s.Network.IP, s.Network.RSSI)
	row("Updated", "%s", humanize.Time(s.Taken))
	_ = tw.Flush()
}

func newPackagesCommand(e *env) *cobra.Command {
	var system bool
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			for _, p := range e.gw.Packages(cmd.Context(), system) {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "include system packages")
	return cmd
}

func newInstallCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "install <apk>",
		Short: "Install an APK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			res := e.gw.Install(cmd.Context(), args[0])
			if err := failed("install", res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text())
			return nil
		},
	}
}

func newUninstallCommand(e *env) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Uninstall a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			res := e.gw.Uninstall(cmd.Context(), args[0], keep)
			if err := failed("uninstall", res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&keep, "keep-data", "k", false, "keep app data and cache")
	return cmd
}

func newRebootCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "reboot [bootloader|recovery]",
		Short:     "Reboot the device",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bootloader", "recovery"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			mode := ""
			if len(args) == 1 {
				mode = args[0]
			}
			return failed("reboot", e.gw.Reboot(cmd.Context(), mode))
		},
	}
}

func newScreenshotCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot [file]",
		Short: "Save a PNG screenshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.device(cmd.Context()); err != nil {
				return err
			}
			path := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
			if len(args) == 1 {
				path = args[0]
			}
			if err := e.gw.Screenshot(cmd.Context(), path); err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			if st, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", abs, humanize.IBytes(uint64(st.Size())))
			}
			return nil
		},
	}
}
