package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live session dashboard",
		Long: `Full-screen view of the session registry, refreshed whenever the shared
state changes on disk (and on a slow timer as a liveness backstop, since
a process dying leaves no filesystem trace).

Keys: q quits, r forces a refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCore(cfg)

			// The watcher needs existing directories. Creating them here is
			// harmless; spawn and send would create them anyway.
			if err := os.MkdirAll(c.cfg.SessionsDir(), 0700); err != nil {
				return err
			}
			if err := os.MkdirAll(c.cfg.MailDir(), 0700); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting filesystem watcher: %w", err)
			}
			defer watcher.Close()
			if err := watcher.Add(c.cfg.SessionsDir()); err != nil {
				return err
			}
			if err := watcher.Add(c.cfg.MailDir()); err != nil {
				return err
			}

			m := newWatchModel(c, watcher)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

type sessionsMsg struct {
	rows []lsRow
	err  error
}

type fsEventMsg struct{}

type tickMsg time.Time

const watchInterval = 3 * time.Second

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	watchHelpStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	watchErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
)

type watchModel struct {
	core    *core
	watcher *fsnotify.Watcher
	table   table.Model
	err     error
	updated time.Time
}

func newWatchModel(c *core, w *fsnotify.Watcher) *watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 28},
			{Title: "PID", Width: 8},
			{Title: "MAIL", Width: 5},
			{Title: "UPTIME", Width: 8},
			{Title: "TASK", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	return &watchModel{core: c, watcher: w, table: t}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.refresh, m.waitForFSEvent, watchTick())
}

func (m *watchModel) refresh() tea.Msg {
	live, err := m.core.registry.ListLive()
	if err != nil {
		return sessionsMsg{err: err}
	}
	rows := make([]lsRow, 0, len(live))
	for _, rec := range live {
		rows = append(rows, lsRow{
			ID:      rec.ID,
			Pid:     rec.Pid,
			Task:    rec.Task,
			Started: rec.Started,
			Window:  rec.Window,
			Pending: m.core.box.Pending(rec.ID),
		})
	}
	return sessionsMsg{rows: rows}
}

// waitForFSEvent blocks on the watcher and wakes the model when any record
// or message changes. Events are collapsed: one refresh covers however many
// writes happened since the last one.
func (m *watchModel) waitForFSEvent() tea.Msg {
	for {
		select {
		case _, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			return fsEventMsg{}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh
		}
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 4)
	case sessionsMsg:
		m.err = msg.err
		m.updated = time.Now()
		if msg.err == nil {
			rows := make([]table.Row, 0, len(msg.rows))
			for _, r := range msg.rows {
				mail := "-"
				if r.Pending > 0 {
					mail = strconv.Itoa(r.Pending)
				}
				rows = append(rows, table.Row{
					r.ID,
					strconv.Itoa(r.Pid),
					mail,
					formatUptime(time.Since(r.Started)),
					runewidth.Truncate(r.Task, 40, "..."),
				})
			}
			m.table.SetRows(rows)
		}
		return m, nil
	case fsEventMsg:
		return m, tea.Batch(m.refresh, m.waitForFSEvent)
	case tickMsg:
		return m, tea.Batch(m.refresh, watchTick())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *watchModel) View() string {
	title := watchTitleStyle.Render(fmt.Sprintf("ctm sessions (%d)", len(m.table.Rows())))
	body := m.table.View()
	help := watchHelpStyle.Render("q quit · r refresh · updated " + m.updated.Format("15:04:05"))
	if m.err != nil {
		help = watchErrStyle.Render(m.err.Error())
	}
	return title + "\n" + body + "\n" + help
}
