package detail

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	priceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Italic(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// RefreshMsg asks the model to re-snapshot its cache entry.
type RefreshMsg struct{}

// Model is the product detail view.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	id     uint
	result engine.Result[*api.Product]

	// watch outlives the value copies Bubble Tea passes around, so a
	// re-arm can always cancel the previous subscription.
	watch *watchHandle

	width int
}

type watchHandle struct {
	cancel func()
}

// New builds the detail model and issues the lazy read for id. When a
// cached list already holds the product, the returned snapshot carries
// the seeded row and renders without waiting for the confirming call.
func New(ctx context.Context, e *engine.Engine, id uint) Model {
	m := Model{ctx: ctx, engine: e, id: id, watch: &watchHandle{}, width: 80}
	m.result = e.ProductResult(ctx, id)
	return m
}

// Init subscribes to store notifications for the detail key.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// Update handles refresh notifications, resize, and the retry key.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshMsg:
		m.result = m.engine.ProductResult(m.ctx, m.id)
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" && m.result.IsError() {
			m.engine.Store().Invalidate(engine.ProductDetailKey(m.id))
			m.result = m.engine.ProductResult(m.ctx, m.id)
			return m, nil
		}
	}
	return m, nil
}

func (m Model) waitForChange() tea.Cmd {
	if m.watch.cancel != nil {
		m.watch.cancel()
	}
	ch, cancel := m.engine.Store().Watch(engine.ProductDetailKey(m.id))
	m.watch.cancel = cancel
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return RefreshMsg{}
	}
}

// Release drops the store subscription; the parent calls it when the
// view leaves the screen so the key stops drawing eager refetches.
func (m Model) Release() {
	if m.watch != nil && m.watch.cancel != nil {
		m.watch.cancel()
		m.watch.cancel = nil
	}
}

// View renders the product card, or the loading/error state when no
// data is renderable yet.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("PRODUCT #%d", m.id)))
	b.WriteString("\n")

	switch {
	case m.result.IsError() && !m.result.HasData:
		b.WriteString(errorStyle.Render("error: " + m.result.Err.Error()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("r retry · esc back"))
		return b.String()
	case !m.result.HasData:
		b.WriteString(staleStyle.Render("loading…"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back"))
		return b.String()
	}

	product := m.result.Data
	var card strings.Builder
	card.WriteString(labelStyle.Render("Name") + valueStyle.Render(product.Name) + "\n")
	card.WriteString(labelStyle.Render("Price") + priceStyle.Render(product.Price.String()) + "\n")
	if product.Description != "" {
		card.WriteString(labelStyle.Render("Description") + valueStyle.Render(product.Description) + "\n")
	}
	if product.Seller != nil {
		card.WriteString(labelStyle.Render("Seller") + valueStyle.Render(product.Seller.Username) + "\n")
		if product.Seller.Email != "" {
			card.WriteString(labelStyle.Render("Contact") + valueStyle.Render(product.Seller.Email) + "\n")
		}
	}
	b.WriteString(boxStyle.Render(strings.TrimRight(card.String(), "\n")))
	b.WriteString("\n")

	switch {
	case m.result.IsError():
		b.WriteString(errorStyle.Render("refresh failed: " + m.result.Err.Error()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("showing last known data · r retry · esc back"))
	case m.result.IsLoading() || m.result.Stale:
		b.WriteString(staleStyle.Render("refreshing…"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back"))
	default:
		b.WriteString(helpStyle.Render("esc back · q quit"))
	}
	return b.String()
}
