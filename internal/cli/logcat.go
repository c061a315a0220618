package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"adboss/internal/config"
	"adboss/internal/logcat"
	"adboss/internal/logging"
	"adboss/internal/parse"
)

// writerSink prints every delivered line's raw text.
type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *writerSink) AppendBatch(lines []parse.LogLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(s.w, l.Raw)
	}
}

func newLogcatCommand(e *env) *cobra.Command {
	var (
		level      string
		filter     logcat.Filter
		buffer     string
		exportPath string
	)
	cmd := &cobra.Command{
		Use:   "logcat",
		Short: "Stream the device log until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := e.device(ctx); err != nil {
				return err
			}
			filter.MinLevel = parse.ParseLevel(level)

			buf := logcat.NewBuffer(e.cfg.Int(config.KeyLogcatMaxLines), e.cfg.Int(config.KeyLogcatCeiling))
			s := logcat.NewSession(e.gw, buf, &writerSink{w: cmd.OutOrStdout()},
				logcat.WithFlushInterval(e.cfg.Millis(config.KeyLogcatFlushInterval)),
				logcat.WithLogger(logging.For("logcat")))
			s.SetFilter(filter)

			var extra []string
			if buffer != "" {
				extra = append(extra, "-b", buffer)
			}
			if err := s.Start(ctx, extra...); err != nil {
				return err
			}
			done := s.Done()
			select {
			case <-ctx.Done():
			case <-done:
			}
			endErr := s.Err()
			s.Stop()

			if exportPath != "" {
				n, err := s.Export(exportPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d lines to %s\n", n, exportPath)
			}
			if ctx.Err() != nil {
				return nil
			}
			return endErr
		},
	}
	f := cmd.Flags()
	f.StringVarP(&level, "level", "l", "", "minimum level (V, D, I, W, E, F)")
	f.StringVarP(&filter.Tag, "tag", "t", "", "only tags containing this text")
	f.IntVarP(&filter.PID, "pid", "p", 0, "only this process id")
	f.StringVarP(&filter.Text, "grep", "g", "", "only messages containing this text")
	f.BoolVarP(&filter.IgnoreCase, "ignore-case", "i", false, "case-insensitive tag and text matching")
	f.StringVarP(&buffer, "buffer", "b", "", "log buffer (main, system, crash, events, all)")
	f.StringVarP(&exportPath, "export", "o", "", "write the retained lines to this file on exit")
	return cmd
}
