package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/config"
	"github.com/Dicklesworthstone/ctm/internal/mailbox"
	"github.com/Dicklesworthstone/ctm/internal/output"
	"github.com/Dicklesworthstone/ctm/internal/proc"
	"github.com/Dicklesworthstone/ctm/internal/session"
	"github.com/Dicklesworthstone/ctm/internal/spawn"
	"github.com/Dicklesworthstone/ctm/internal/supervisor"
)

// core bundles the wired components every command works against.
type core struct {
	cfg      *config.Config
	registry *session.Registry
	box      *mailbox.Box
	spawner  *spawn.Spawner
	sup      *supervisor.Supervisor
}

// newCore builds the component graph from the loaded config. The registry
// drops a session's mailbox whenever it reclaims the record, so lazy GC
// cleans up both halves of a crashed session's state.
func newCore(c *config.Config) *core {
	store := session.NewStore(c.SessionsDir())
	box := mailbox.NewBox(c.MailDir())
	probe := proc.OS{}

	reg := session.NewRegistry(store, probe)
	reg.OnReclaim = func(id string) { _ = box.Remove(id) }

	spawner := spawn.New(reg, &spawn.TmuxLauncher{
		Session: c.TmuxSession,
		Command: c.AgentCommand,
	})
	spawner.MaxAttempts = c.SpawnAttempts

	return &core{
		cfg:      c,
		registry: reg,
		box:      box,
		spawner:  spawner,
		sup:      supervisor.New(reg, box, probe),
	}
}

// formatter returns the output formatter for cmd, honoring the global --json
// flag. Writing through cobra's stream keeps commands capturable in tests.
func formatter(cmd *cobra.Command) *output.Formatter {
	return output.NewFormatter(cmd.OutOrStdout(), jsonOutput)
}

// selfID resolves the calling session's identity: an explicit --as value
// wins, then the CTM_SESSION variable the launcher exports into every agent
// window.
func selfID(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if id := os.Getenv("CTM_SESSION"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("not inside a ctm session (set CTM_SESSION or pass --as)")
}
