package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/josephgoksu/CreditDesk/internal/poll"
)

// Layout constants
const (
	DefaultViewportWidth  = 100
	DefaultViewportHeight = 30
	MinViewportHeight     = 5
	watchChromeHeight     = 4 // header + status line + spacing
)

// ResultMsg delivers one poll result to the watch model.
type ResultMsg struct {
	Content   string
	Err       error
	Source    poll.Source
	FetchedAt time.Time
}

// WatchModel is a full-screen view that re-renders whenever a poll result
// arrives. Focus gained and the r key both request an immediate refresh.
type WatchModel struct {
	Title    string
	Content  string
	Err      error
	LastSync time.Time
	Loading  bool

	Spinner  spinner.Model
	Viewport viewport.Model

	// Refresh asks the poller for an out-of-band fetch. It reports whether
	// the request was accepted.
	Refresh func() bool

	refreshes int
}

// NewWatchModel builds a watch model with the given refresh hook.
func NewWatchModel(title string, refresh func() bool) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary

	return WatchModel{
		Title:    title,
		Loading:  true,
		Spinner:  s,
		Viewport: viewport.New(DefaultViewportWidth, DefaultViewportHeight),
		Refresh:  refresh,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return m.Spinner.Tick
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Viewport.Width = msg.Width
		m.Viewport.Height = msg.Height - watchChromeHeight
		if m.Viewport.Height < MinViewportHeight {
			m.Viewport.Height = MinViewportHeight
		}
		return m, nil

	case tea.FocusMsg:
		m.requestRefresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.requestRefresh()
			return m, nil
		}

	case ResultMsg:
		m.Loading = false
		m.LastSync = msg.FetchedAt
		m.Err = msg.Err
		if msg.Err == nil {
			m.Content = msg.Content
			m.Viewport.SetContent(msg.Content)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m *WatchModel) requestRefresh() {
	if m.Refresh != nil && m.Refresh() {
		m.refreshes++
		m.Loading = true
	}
}

func (m WatchModel) View() string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(m.Title) + "\n")

	status := "Sync: " + Placeholder
	if !m.LastSync.IsZero() {
		status = "Sync: " + FormatDateTime(m.LastSync)
	}
	if m.Loading {
		status = m.Spinner.View() + " " + status
	}
	if m.Err != nil {
		status += "  " + StyleError.Render("Erreur: "+m.Err.Error())
	}
	sb.WriteString(StyleSubtle.Render(status+"  [r] rafraîchir  [q] quitter") + "\n\n")

	if m.Content == "" && m.Loading {
		sb.WriteString(StyleSubtle.Render("Chargement…"))
		return sb.String()
	}
	sb.WriteString(m.Viewport.View())
	return sb.String()
}

// RunWatch shows the results of p full-screen until the user quits or ctx
// is done.
func RunWatch(ctx context.Context, title string, p *poll.Poller[string]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewWatchModel(title, p.Trigger)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Run(ctx, func(res poll.Result[string]) {
			prog.Send(ResultMsg{Content: res.Value, Err: res.Err, Source: res.Source, FetchedAt: res.FetchedAt})
		})
	}()

	_, err := prog.Run()
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("watch view error: %w", err)
	}
	return nil
}
