// Package tui renders a live session view: one line per item plus running
// counts, driven by session events.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ytpilot/ytpilot/internal/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FDBFF"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

type itemRow struct {
	index  int
	title  string
	status string // queued | downloading | success | failed | skipped | cancelled
	detail string
}

type eventMsg struct{ ev session.Event }

type doneMsg struct {
	result *session.Result
	err    error
}

type model struct {
	spin      spinner.Model
	rows      map[string]*itemRow
	order     []string
	target    string
	total     int
	result    *session.Result
	err       error
	finished  bool
	cancelled bool
	cancel    context.CancelFunc
	width     int
	height    int
}

func newModel(cancel context.CancelFunc) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		spin:   sp,
		rows:   map[string]*itemRow{},
		cancel: cancel,
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.finished {
				return m, tea.Quit
			}
			// Cooperative cancel: let in-flight downloads drain.
			m.cancelled = true
			m.cancel()
			return m, nil
		case "enter":
			if m.finished {
				return m, tea.Quit
			}
		}
		return m, nil

	case eventMsg:
		m.apply(msg.ev)
		return m, nil

	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) apply(ev session.Event) {
	switch ev.Type {
	case "target":
		m.target = ev.Target
		m.total += ev.Total
	case "item_start":
		m.upsert(ev.Item, "downloading", "")
	case "item_skip":
		m.upsert(ev.Item, "skipped", "already downloaded")
	case "item_done":
		detail := ""
		status := ev.Outcome.Status
		if ev.Outcome.Err != nil {
			detail = ev.Outcome.Err.Error()
		} else if ev.Outcome.OutputPath != "" {
			detail = ev.Outcome.OutputPath
		}
		m.upsert(ev.Item, status, detail)
	}
}

func (m *model) upsert(item *session.VideoItem, status, detail string) {
	row, ok := m.rows[item.ID]
	if !ok {
		row = &itemRow{index: item.Index, title: item.Title}
		m.rows[item.ID] = row
		m.order = append(m.order, item.ID)
	}
	row.status = status
	row.detail = detail
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ytpilot") + " ")
	if m.finished {
		b.WriteString("done\n\n")
	} else if m.cancelled {
		b.WriteString(m.spin.View() + " cancelling, draining in-flight downloads...\n\n")
	} else {
		b.WriteString(m.spin.View() + " downloading\n\n")
	}

	ids := make([]string, len(m.order))
	copy(ids, m.order)
	sort.Slice(ids, func(i, j int) bool {
		return m.rows[ids[i]].index < m.rows[ids[j]].index
	})
	for _, id := range ids {
		row := m.rows[id]
		line := fmt.Sprintf("[%03d] %s", row.index, row.title)
		switch row.status {
		case session.StatusSuccess:
			line = okStyle.Render("✓ " + line)
		case session.StatusFailed:
			line = failStyle.Render("✗ "+line) + dimStyle.Render("  "+row.detail)
		case session.StatusSkipped:
			line = skipStyle.Render("- " + line + " (skipped)")
		case session.StatusCancelled:
			line = skipStyle.Render("- " + line + " (cancelled)")
		default:
			line = m.spin.View() + " " + line
		}
		b.WriteString(line + "\n")
	}

	if m.finished && m.result != nil {
		r := m.result
		b.WriteString("\n" + summaryStyle.Render(fmt.Sprintf(
			"targets: %d  videos: %d  success: %d  failed: %d  skipped: %d",
			r.Targets, r.TotalVideos, r.Success, r.Failed, r.Skipped)) + "\n")
	} else if !m.finished {
		b.WriteString(dimStyle.Render("\nq/ctrl+c cancel\n"))
	}
	return b.String()
}

// Run drives a session under the TUI. The start func receives a notify
// callback to forward session events into the program; cancel is invoked when
// the user asks to stop.
func Run(ctx context.Context, cancel context.CancelFunc, start func(notify func(session.Event)) (*session.Result, error)) (*session.Result, error) {
	p := tea.NewProgram(newModel(cancel), tea.WithContext(ctx))

	go func() {
		res, err := start(func(ev session.Event) {
			p.Send(eventMsg{ev: ev})
		})
		p.Send(doneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(model)
	return m.result, m.err
}
