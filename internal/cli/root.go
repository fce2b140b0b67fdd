// Package cli wires the cobra command tree to the session and mailbox core.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ctm/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config

	// Global JSON output flag - inherited by all subcommands
	jsonOutput bool

	// Global color control flag - inherited by all subcommands
	noColor bool

	// Build information - set via ldflags
	Version = "dev"
	Commit  = "none"
)

// newRootCmd builds a fresh command tree. Flag variables are rebound on every
// build, so each invocation starts from defaults.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ctm",
		Short: "Claude Tmux Messenger - coordinate Claude agents across tmux windows",
		Long: `ctm launches Claude agents in their own tmux windows and lets them
discover and message each other through shared filesystem state. There is no
daemon: every invocation reads and writes the shared session registry
directly.

Quick Start:
  ctm spawn --task "fix the parser"     # Launch an agent in a new window
  ctm ls                                # List live sessions
  ctm send myrepo-fix-the-parser "ping" # Queue a message for a session
  ctm inbox                             # Drain your own mailbox (inside a session)
  ctm killall                           # Tear everything down`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				os.Setenv("CTM_NO_COLOR", "1")
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				// Fall back to defaults rather than refusing to run; the config
				// only tunes paths and launch details.
				fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
				cfg = config.Default()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/ctm/config.toml)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newLsCmd(),
		newSpawnCmd(),
		newSendCmd(),
		newBroadcastCmd(),
		newInboxCmd(),
		newCleanupCmd(),
		newKillCmd(),
		newKillallCmd(),
		newAttachCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil && !jsonOutput {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ctm %s (%s)\n", Version, Commit)
		},
	}
}
