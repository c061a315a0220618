package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"adboss/internal/logging"
	"adboss/internal/transfer"
)

// newTransferCommand builds "push <local> <remote>" or "pull <remote> <local>".
func newTransferCommand(e *env, verb string) *cobra.Command {
	dir := transfer.Direction(verb)
	use, short := "push <local> <remote>", "Copy a local file to the device"
	if dir == transfer.Pull {
		use, short = "pull <remote> <local>", "Copy a device file to this computer"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.device(ctx); err != nil {
				return err
			}
			local, remote := args[0], args[1]
			if dir == transfer.Pull {
				local, remote = args[1], args[0]
			}

			errOut := cmd.ErrOrStderr()
			start := time.Now()
			r := transfer.NewRunner(e.gw, transfer.WithLogger(logging.For("transfer")))
			job := r.Start(ctx, dir, local, remote, func(u transfer.Update) {
				if !u.State.Terminal() {
					fmt.Fprintf(errOut, "\r[%3d%%] %s", u.Percent, remote)
				}
			})
			final := job.Wait()
			fmt.Fprintln(errOut)

			switch final.State {
			case transfer.StateSucceeded:
				size := "done"
				if final.Bytes > 0 {
					size = humanize.IBytes(uint64(final.Bytes))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s: %s in %s\n",
					dir, local, remote, size, time.Since(start).Round(time.Millisecond))
				return nil
			case transfer.StateCancelled:
				return fmt.Errorf("%s cancelled", dir)
			}
			return fmt.Errorf("%s failed: %s", dir, final.Message)
		},
	}
}
