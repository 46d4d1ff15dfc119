package listview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine"
)

// Layout constants.
const (
	nameColumnWidth  = 32
	priceColumnWidth = 12
	idColumnWidth    = 6
	chromeHeight     = 6
	minTableHeight   = 5
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Italic(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("240"))

	tableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)

// RefreshMsg asks the model to re-snapshot its cache entry. It is
// emitted when the store notifies the model's watch subscription.
type RefreshMsg struct{}

// Model is the interactive product list.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type Model struct {
	ctx    context.Context
	engine *engine.Engine

	keyword string
	result  engine.Result[[]api.Product]

	table   table.Model
	input   textinput.Model
	editing bool

	// watch outlives the value copies Bubble Tea passes around, so a
	// re-arm can always cancel the previous subscription.
	watch *watchHandle

	width  int
	height int
}

type watchHandle struct {
	cancel func()
}

// New builds the list model and issues the initial read-through for the
// full listing.
func New(ctx context.Context, e *engine.Engine) Model {
	input := textinput.New()
	input.Placeholder = "keyword"
	input.CharLimit = 64

	m := Model{
		ctx:    ctx,
		engine: e,
		input:  input,
		watch:  &watchHandle{},
		width:  80,
		height: 24,
	}
	m.snapshot()
	return m
}

// Init subscribes to store notifications for the current key.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// Update handles keyboard, resize, and refresh messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshMsg:
		m.snapshot()
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildTable()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.keyword = strings.TrimSpace(m.input.Value())
		m.snapshot()
		// The keyword changed, so the watch has to follow the new key.
		return m, m.waitForChange()
	case "esc":
		m.editing = false
		m.input.Blur()
		m.input.SetValue(m.keyword)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.editing = true
		m.input.Focus()
		return m, textinput.Blink
	case "r":
		m.engine.Store().Invalidate(engine.ProductListKey(m.keyword))
		m.snapshot()
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Editing reports whether the keyword input currently has focus, so the
// parent model knows not to treat keystrokes as global shortcuts.
func (m Model) Editing() bool {
	return m.editing
}

// SelectedID returns the highlighted product's ID.
func (m Model) SelectedID() (uint, bool) {
	if !m.result.HasData {
		return 0, false
	}
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.result.Data) {
		return 0, false
	}
	return m.result.Data[cursor].ID, true
}

// snapshot re-reads the cache entry, triggering a fetch when the entry
// is missing or stale, and rebuilds the table from whatever data is
// renderable right now.
func (m *Model) snapshot() {
	m.result = m.engine.ProductsResult(m.ctx, m.keyword)
	m.rebuildTable()
}

// waitForChange blocks on one store notification for the current key,
// then asks for a refresh. Each delivered message re-arms the watch.
// Re-arming cancels the previous subscription first, so a keyword
// change does not leave a watcher parked on the old key.
func (m Model) waitForChange() tea.Cmd {
	if m.watch.cancel != nil {
		m.watch.cancel()
	}
	ch, cancel := m.engine.Store().Watch(engine.ProductListKey(m.keyword))
	m.watch.cancel = cancel
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return RefreshMsg{}
	}
}

func (m *Model) rebuildTable() {
	columns := []table.Column{
		{Title: "ID", Width: idColumnWidth},
		{Title: "Name", Width: nameColumnWidth},
		{Title: "Price", Width: priceColumnWidth},
		{Title: "Seller", Width: nameColumnWidth / 2},
	}

	cursor := m.table.Cursor()
	rows := make([]table.Row, 0, len(m.result.Data))
	for _, p := range m.result.Data {
		seller := "-"
		if p.Seller != nil {
			seller = p.Seller.Username
		}
		rows = append(rows, table.Row{
			strconv.FormatUint(uint64(p.ID), 10),
			truncate(p.Name, nameColumnWidth),
			p.Price.String(),
			seller,
		})
	}

	height := m.height - chromeHeight
	if height < minTableHeight {
		height = minTableHeight
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.editing),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = tableSelectedStyle
	t.SetStyles(s)
	if cursor >= 0 && cursor < len(rows) {
		t.SetCursor(cursor)
	}
	m.table = t
}

// View renders the title, keyword line, status line, and table.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("PRODUCTS"))
	b.WriteString("\n")

	if m.editing {
		b.WriteString("Search: " + m.input.View())
	} else if m.keyword != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Search: %q", m.keyword)))
	} else {
		b.WriteString(helpStyle.Render("Search: (all products)"))
	}
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move · enter details · / search · r refresh · q quit"))
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.result.IsError():
		return errorStyle.Render("error: "+m.result.Err.Error()) +
			helpStyle.Render("  (showing last known data, r to retry)")
	case m.result.IsLoading() && !m.result.HasData:
		return staleStyle.Render("loading…")
	case m.result.IsLoading() || m.result.Stale:
		return staleStyle.Render(fmt.Sprintf("%d products (refreshing…)", len(m.result.Data)))
	case !m.result.HasData || len(m.result.Data) == 0:
		return helpStyle.Render("no products found")
	default:
		return helpStyle.Render(fmt.Sprintf("%d products", len(m.result.Data)))
	}
}

// truncate shortens s to maxLen runes; byte slicing would split
// multi-byte names mid-rune.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
