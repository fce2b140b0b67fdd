package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/output"
	"github.com/Dicklesworthstone/ctm/internal/supervisor"
)

func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <session-id>",
		Short: "Terminate a session and remove its state",
		Long: `Request termination of the session's process, kill its tmux window, and
remove its record and mailbox. The signal is best-effort; the shared
state is gone either way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCore(cfg)
			if err := c.sup.Kill(args[0]); err != nil {
				return err
			}
			f := formatter(cmd)
			if f.IsJSON() {
				return f.JSON(map[string]string{"id": args[0], "status": "killed"})
			}
			f.Textln("Killed %s", args[0])
			return nil
		},
	}
}

func newKillallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "killall",
		Short: "Terminate every session",
		Long: `Kill every registered session, live or stale. Individual failures are
reported at the end without stopping the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCore(cfg)
			killed, err := c.sup.KillAll()

			f := formatter(cmd)
			var partial *supervisor.PartialFailure
			if errors.As(err, &partial) {
				if f.IsJSON() {
					failed := make(map[string]string, len(partial.Failed))
					for id, kerr := range partial.Failed {
						failed[id] = kerr.Error()
					}
					if jerr := f.JSON(map[string]any{"killed": killed, "failed": failed}); jerr != nil {
						return jerr
					}
					return err
				}
				for _, id := range killed {
					f.Textln("Killed %s", id)
				}
				for id, kerr := range partial.Failed {
					output.PrintWarningf("could not kill %s: %v", id, kerr)
				}
				return err
			}
			if err != nil {
				return err
			}

			if f.IsJSON() {
				if killed == nil {
					killed = []string{}
				}
				return f.JSON(map[string]any{"killed": killed})
			}
			if len(killed) == 0 {
				f.Textln("Nothing to kill.")
				return nil
			}
			for _, id := range killed {
				f.Textln("Killed %s", id)
			}
			return nil
		},
	}
}
