package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/mailbox"
)

func newBroadcastCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "broadcast <message>",
		Short: "Queue a message for every live session",
		Long: `Queue a message in the mailbox of every live session except the sender
itself. Deliveries are independent: one failing target does not stop the
rest, and the failures are reported at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender := from
			if sender == "" {
				sender = os.Getenv("CTM_SESSION")
			}
			if sender == "" {
				sender = operatorID
			}

			c := newCore(cfg)
			live, err := c.registry.ListLive()
			if err != nil {
				return err
			}
			targets := make([]string, 0, len(live))
			for _, rec := range live {
				targets = append(targets, rec.ID)
			}

			err = c.box.Broadcast(targets, sender, args[0])

			delivered := len(targets)
			if sender != operatorID {
				for _, id := range targets {
					if id == sender {
						delivered--
					}
				}
			}
			var partial *mailbox.PartialFailure
			if errors.As(err, &partial) {
				delivered -= len(partial.Failed)
			}

			f := formatter(cmd)
			if f.IsJSON() {
				out := map[string]any{"from": sender, "delivered": delivered}
				if partial != nil {
					failed := make(map[string]string, len(partial.Failed))
					for id, ferr := range partial.Failed {
						failed[id] = ferr.Error()
					}
					out["failed"] = failed
				}
				if jerr := f.JSON(out); jerr != nil {
					return jerr
				}
				return err
			}
			f.Textln("Queued for %d session(s)", delivered)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "sender id (default CTM_SESSION, then \"operator\")")
	return cmd
}
