package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/shell"
)

func newShellCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [command...]",
		Short: "Run a shell command, or read commands from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.device(ctx); err != nil {
				return err
			}
			c := shell.NewConsole(e.gw, e.cfg.Int(config.KeyShellHistoryMax), logging.For("shell"))
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				entry, err := c.Run(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if entry.Output != "" {
					fmt.Fprintln(out, entry.Output)
				}
				if !entry.Success {
					return fmt.Errorf("%s: %s", entry.Command, entry.Output)
				}
				return nil
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintf(out, "%s$ ", e.gw.Serial())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "exit" || line == "quit" {
					break
				}
				if entry, err := c.Run(ctx, line); err == nil {
					fmt.Fprintf(out, "[%s] $ %s\n", entry.Time.Format("15:04:05"), entry.Command)
					if entry.Output != "" {
						fmt.Fprintln(out, indent(entry.Output))
					}
				}
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(out, "%s$ ", e.gw.Serial())
			}
			return sc.Err()
		},
	}
}
