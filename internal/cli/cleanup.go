package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Reclaim stale sessions and expire orphaned mailboxes",
		Long: `Force a full reclaim pass: remove records of dead processes along with
their mailboxes, then expire mailboxes that belong to no session and
have had no new messages within the retention window. Mailboxes younger
than that are kept, since messages may legitimately be queued ahead of a
spawn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention == 0 {
				retention = cfg.MailRetention()
			}

			c := newCore(cfg)
			report, err := c.sup.Cleanup(retention)
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.IsJSON() {
				return f.JSON(report)
			}
			f.Textln("%d live session(s) after reclaim", report.LiveSessions)
			if len(report.ExpiredMailboxes) == 0 {
				f.Textln("No orphaned mailboxes past retention.")
				return nil
			}
			for _, id := range report.ExpiredMailboxes {
				f.Textln("Expired mailbox %s", id)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 0, "orphan mailbox retention (default from config, 168h)")
	return cmd
}
