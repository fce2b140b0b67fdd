package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/output"
)

func newSpawnCmd() *cobra.Command {
	var (
		task string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Launch an agent in a new tmux window",
		Long: `Launch the configured agent command in a new detached tmux window and
register it as a session. The session id is derived from the working
directory and task; collisions get a numeric suffix (demo, demo-2, ...).

The agent finds its own id in CTM_SESSION and the task in CTM_TASK.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}

			c := newCore(cfg)
			rec, err := c.spawner.Spawn(dir, task)
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.IsJSON() {
				return f.JSON(rec)
			}
			f.Textln("Spawned %s (pid %d, window %s)", output.Live(rec.ID), rec.Pid, rec.Window)
			if rec.Task != "" {
				f.Textln("  task: %s", rec.Task)
			}
			f.Textln("  attach with: ctm attach %s", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&task, "task", "t", "", "task description handed to the agent")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "working directory for the agent (default current directory)")
	return cmd
}
