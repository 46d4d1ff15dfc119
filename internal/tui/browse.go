// Package tui is the interactive storefront browser. The root model
// composes the session gate in front of the product views: nothing
// renders until the gate settles, a failed probe gets an inline retry,
// and an anonymous session browses with a login hint in the header.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoreapp/estore-cli/internal/engine"
	"github.com/estoreapp/estore-cli/internal/logging"
	"github.com/estoreapp/estore-cli/internal/tui/detail"
	listview "github.com/estoreapp/estore-cli/internal/tui/list"
)

// ViewState tracks which screen the root model is showing.
type ViewState int

const (
	// ViewStateGate blocks everything until the session probe settles.
	ViewStateGate ViewState = iota

	// ViewStateList shows the product catalog.
	ViewStateList

	// ViewStateDetail shows a single product.
	ViewStateDetail

	// ViewStateQuitting is the terminal state.
	ViewStateQuitting
)

// gateMsg carries a settled (or failed) session probe.
type gateMsg struct {
	status engine.SessionStatus
}

// BrowseModel is the root Bubble Tea model.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type BrowseModel struct {
	ctx    context.Context
	engine *engine.Engine

	state ViewState
	gate  engine.SessionStatus

	spin   spinner.Model
	list   listview.Model
	detail detail.Model

	width  int
	height int
}

// NewBrowse builds the root model. The probe is issued from Init, not
// here, so construction stays free of network activity.
func NewBrowse(ctx context.Context, e *engine.Engine) BrowseModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return BrowseModel{
		ctx:    ctx,
		engine: e,
		state:  ViewStateGate,
		gate:   engine.SessionStatus{State: engine.SessionProbing},
		spin:   sp,
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Init starts the spinner and the session probe.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.probeGate())
}

// probeGate resolves the session off the UI loop and reports back.
func (m BrowseModel) probeGate() tea.Cmd {
	return func() tea.Msg {
		status, err := m.engine.ProbeSession(m.ctx)
		if err != nil {
			return gateMsg{status: engine.SessionStatus{State: engine.SessionProbeFailed, Err: err}}
		}
		return gateMsg{status: status}
	}
}

// Update routes messages to the gate or the active view.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var listCmd, detailCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		m.detail, detailCmd = m.detail.Update(msg)
		return m, tea.Batch(listCmd, detailCmd)

	case gateMsg:
		return m.handleGateSettled(msg)

	case spinner.TickMsg:
		if m.state == ViewStateGate {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m BrowseModel) handleGateSettled(msg gateMsg) (tea.Model, tea.Cmd) {
	m.gate = msg.status
	logging.FromContext(m.ctx).Debug().
		Str("component", "tui").
		Str("session_state", m.gate.State.String()).
		Msg("session gate settled")

	switch m.gate.State {
	case engine.SessionAuthenticated, engine.SessionAnonymous:
		m.state = ViewStateList
		m.list = listview.New(m.ctx, m.engine)
		return m, m.list.Init()
	default:
		// ProbeFailed (or a probe still racing): stay on the gate.
		m.state = ViewStateGate
		return m, nil
	}
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.state = ViewStateQuitting
		return m, tea.Quit
	}

	switch m.state {
	case ViewStateGate:
		if key == "r" && m.gate.State == engine.SessionProbeFailed {
			m.gate = engine.SessionStatus{State: engine.SessionProbing}
			return m, tea.Batch(m.spin.Tick, m.retryGate())
		}
		if key == "q" {
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
		return m, nil

	case ViewStateList:
		if !m.list.Editing() {
			switch key {
			case "q":
				m.state = ViewStateQuitting
				return m, tea.Quit
			case "enter":
				if id, ok := m.list.SelectedID(); ok {
					m.state = ViewStateDetail
					m.detail = detail.New(m.ctx, m.engine, id)
					return m, m.detail.Init()
				}
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case ViewStateDetail:
		switch key {
		case "q":
			m.state = ViewStateQuitting
			return m, tea.Quit
		case "esc":
			m.detail.Release()
			m.state = ViewStateList
			// Re-snapshot: a background confirm may have landed while
			// the detail view held focus.
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(listview.RefreshMsg{})
			return m, cmd
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case ViewStateQuitting:
		return m, nil
	default:
		return m, nil
	}
}

// retryGate re-probes after a failure; only reachable from ProbeFailed.
func (m BrowseModel) retryGate() tea.Cmd {
	return func() tea.Msg {
		status, err := m.engine.RetryProbe(m.ctx)
		if err != nil {
			return gateMsg{status: engine.SessionStatus{State: engine.SessionProbeFailed, Err: err}}
		}
		return gateMsg{status: status}
	}
}

// forward delivers non-key messages (watch refreshes) to both views so
// background settles update whichever screen holds them.
func (m BrowseModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var listCmd, detailCmd tea.Cmd
	switch msg.(type) {
	case listview.RefreshMsg:
		m.list, listCmd = m.list.Update(msg)
	case detail.RefreshMsg:
		if m.state == ViewStateDetail {
			m.detail, detailCmd = m.detail.Update(msg)
		}
	}
	return m, tea.Batch(listCmd, detailCmd)
}

// View renders the gate until it settles, then the active screen.
func (m BrowseModel) View() string {
	switch m.state {
	case ViewStateGate:
		return m.gateView()
	case ViewStateList:
		header := ""
		if m.gate.State == engine.SessionAnonymous {
			header = hintStyle.Render("browsing anonymously — run `estore login` for account features") + "\n"
		} else if m.gate.LoggedIn() {
			header = helpStyle.Render(fmt.Sprintf("signed in as %s", m.gate.User.Username)) + "\n"
		}
		return header + m.list.View()
	case ViewStateDetail:
		return m.detail.View()
	case ViewStateQuitting:
		return ""
	default:
		return ""
	}
}

func (m BrowseModel) gateView() string {
	title := titleStyle.Render("ESTORE") + "\n"
	switch m.gate.State {
	case engine.SessionProbeFailed:
		errLine := "session probe failed"
		if m.gate.Err != nil {
			errLine = "session probe failed: " + m.gate.Err.Error()
		}
		return title +
			errorStyle.Render(errLine) + "\n" +
			helpStyle.Render("r retry · q quit")
	default:
		return title + infoStyle.Render(m.spin.View()+" checking session…")
	}
}

// Run drives the browser to completion on the caller's terminal.
func Run(ctx context.Context, e *engine.Engine) error {
	program := tea.NewProgram(NewBrowse(ctx, e), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
