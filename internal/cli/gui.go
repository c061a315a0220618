package cli

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"adboss/internal/config"
	"adboss/internal/ui"
)

// appID must stay stable: fyne keys its preferences storage on it.
const appID = "io.github.adboss"

func newGUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGUI(cmd.Context(), e)
		},
	}
}

// runGUI blocks until the window is closed.
func runGUI(ctx context.Context, e *env) error {
	ui.SetLanguage(ui.Language(e.cfg.String(config.KeyLanguage)))

	a := app.NewWithID(appID)
	ui.ApplyThemeMode(e.cfg.String(config.KeyThemeMode))

	w := a.NewWindow("adboss")
	w.Resize(ui.DefaultWindowSize())
	stop := ui.BuildUI(ctx, w, e.gw, e.cfg)
	defer stop()

	// edits made to the file outside the window apply without a restart
	if err := e.cfg.Watch(func() {
		fyne.Do(func() {
			ui.ApplyThemeMode(e.cfg.String(config.KeyThemeMode))
			ui.SetLanguage(ui.Language(e.cfg.String(config.KeyLanguage)))
			if path := e.cfg.String(config.KeyADBPath); path != "" && path != e.gw.Path() && e.opts.adbPath == "" {
				e.gw.SetPath(path)
			}
		})
	}); err != nil {
		e.log.Warn().Err(err).Msg("config watch disabled")
	}
	defer e.cfg.StopWatching()

	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(a.Quit)
		case <-closed:
		}
	}()

	e.log.Info().Str("adb", e.gw.Path()).Str("config", e.cfg.Path()).Msg("starting window")
	w.ShowAndRun()
	return nil
}
