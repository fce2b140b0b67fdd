package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/session"
	"github.com/Dicklesworthstone/ctm/internal/supervisor"
	"github.com/Dicklesworthstone/ctm/internal/tmux"
)

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id>",
		Short: "Attach to a session's tmux window",
		Long: `Select the session's tmux window and attach to (or switch to) the
enclosing tmux session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCore(cfg)
			rec, err := c.registry.Store().Get(args[0])
			if err != nil {
				if errors.Is(err, session.ErrNotExist) {
					return &supervisor.NotFoundError{ID: args[0]}
				}
				return err
			}
			if rec.Window == "" {
				return errors.New("session has no recorded tmux window")
			}
			if err := tmux.SelectWindow(rec.Window); err != nil {
				return err
			}
			return tmux.AttachOrSwitch(cfg.TmuxSession)
		},
	}
}
