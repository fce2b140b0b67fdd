package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/mailbox"
	"github.com/Dicklesworthstone/ctm/internal/output"
)

func newInboxCmd() *cobra.Command {
	var (
		as   string
		peek bool
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read and empty your session's mailbox",
		Long: `Print every pending message for the calling session in arrival order and
remove them from the mailbox. Run inside a spawned window this needs no
flags; outside one, name the mailbox with --as.

--peek reads without consuming, so the messages survive for the real
drain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := selfID(as)
			if err != nil {
				return err
			}

			c := newCore(cfg)
			var msgs []mailbox.Message
			var readErr error
			if peek {
				msgs, readErr = c.box.Peek(id)
			} else {
				msgs, readErr = c.box.Drain(id)
			}

			// A failed drain can still have consumed messages; show whatever
			// came back before reporting the error, or they are lost.
			f := formatter(cmd)
			if f.IsJSON() {
				if msgs == nil {
					msgs = []mailbox.Message{}
				}
				if err := f.JSON(msgs); err != nil {
					return err
				}
				return readErr
			}
			if len(msgs) == 0 {
				if readErr != nil {
					return readErr
				}
				f.Textln("No messages for %s.", id)
				return nil
			}
			width := output.TermWidth()
			if width > 100 {
				width = 100
			}
			for _, msg := range msgs {
				header := output.Bold(msg.From) + output.Dim(" at "+msg.Time.Format(time.RFC3339))
				f.Textln("%s", header)
				body := wordwrap.String(msg.Body, width-4)
				for _, line := range strings.Split(body, "\n") {
					f.Textln("  %s", line)
				}
				f.Textln("")
			}
			f.Textln("%s", output.Dim(messageCount(len(msgs), peek)))
			return readErr
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "mailbox to read (default CTM_SESSION)")
	cmd.Flags().BoolVar(&peek, "peek", false, "read without consuming")
	return cmd
}

func messageCount(n int, peeked bool) string {
	verb := "drained"
	if peeked {
		verb = "pending"
	}
	if n == 1 {
		return "1 message " + verb
	}
	return fmt.Sprintf("%d messages %s", n, verb)
}
