package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/output"
)

type lsRow struct {
	ID      string    `json:"id"`
	Pid     int       `json:"pid"`
	Cwd     string    `json:"cwd"`
	Task    string    `json:"task,omitempty"`
	Started time.Time `json:"started"`
	Window  string    `json:"window,omitempty"`
	Pending int       `json:"pending"`
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List live sessions",
		Long: `List every live session in the shared registry. Records whose process
has exited are reclaimed on the way through, so the listing doubles as
garbage collection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCore(cfg)
			live, err := c.registry.ListLive()
			if err != nil {
				return err
			}

			rows := make([]lsRow, 0, len(live))
			for _, rec := range live {
				rows = append(rows, lsRow{
					ID:      rec.ID,
					Pid:     rec.Pid,
					Cwd:     rec.Cwd,
					Task:    rec.Task,
					Started: rec.Started,
					Window:  rec.Window,
					Pending: c.box.Pending(rec.ID),
				})
			}

			f := formatter(cmd)
			if f.IsJSON() {
				return f.JSON(rows)
			}
			if len(rows) == 0 {
				f.Textln("No live sessions. Start one with 'ctm spawn'.")
				return nil
			}
			printSessionTable(f, rows)
			return nil
		},
	}
}

func printSessionTable(f *output.Formatter, rows []lsRow) {
	table := output.NewTable(f.Writer(), "ID", "PID", "MAIL", "UPTIME", "TASK")
	for _, r := range rows {
		mail := "-"
		if r.Pending > 0 {
			mail = strconv.Itoa(r.Pending)
		}
		table.AddRow(
			output.Live(r.ID),
			strconv.Itoa(r.Pid),
			mail,
			formatUptime(time.Since(r.Started)),
			runewidth.Truncate(r.Task, 48, "..."),
		)
	}
	table.Render()
	f.Textln("")
	f.Textln("%s", output.Dim(fmt.Sprintf("%d session(s)", len(rows))))
}

// formatUptime renders a duration the way uptime(1) would: seconds under a
// minute, then the two largest units.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}
