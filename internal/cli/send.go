package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// operatorID identifies messages sent from outside any session, e.g. by a
// human at a shell that never ran spawn.
const operatorID = "operator"

func newSendCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "send <session-id> <message>",
		Short: "Queue a message for a session",
		Long: `Queue a message in a session's mailbox. The target does not have to be
live or even spawned yet; the message waits until its next 'ctm inbox'.

The sender id is taken from --from, then CTM_SESSION, then "operator".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender := from
			if sender == "" {
				sender = os.Getenv("CTM_SESSION")
			}
			if sender == "" {
				sender = operatorID
			}

			c := newCore(cfg)
			if err := c.box.Send(args[0], sender, args[1]); err != nil {
				return err
			}

			f := formatter(cmd)
			if f.IsJSON() {
				return f.JSON(map[string]string{"target": args[0], "from": sender, "status": "queued"})
			}
			f.Textln("Queued for %s (%d pending)", args[0], c.box.Pending(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "sender id (default CTM_SESSION, then \"operator\")")
	return cmd
}
