package listview

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine"
)

// stubClient serves only the search surface; the list view issues no
// other calls.
type stubClient struct {
	api.Client
	products []api.Product
}

func (s *stubClient) SearchProducts(context.Context, string) ([]api.Product, error) {
	return s.products, nil
}

func newListEngine(products []api.Product) *engine.Engine {
	return engine.New(engine.Options{
		Client:     &stubClient{products: products},
		ProductTTL: time.Minute,
		Logger:     zerolog.Nop(),
	})
}

func TestKeywordChangeMovesWatch(t *testing.T) {
	e := newListEngine(nil)
	m := New(context.Background(), e)

	oldWatch := m.Init()
	require.True(t, e.Store().Watched(engine.ProductListKey("")))

	m.editing = true
	m.input.SetValue("walnut")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// The subscription follows the keyword; nothing stays parked on
	// the old key to draw eager refetches nobody is viewing.
	assert.False(t, e.Store().Watched(engine.ProductListKey("")))
	assert.True(t, e.Store().Watched(engine.ProductListKey("walnut")))

	// The abandoned command unblocks without producing a refresh.
	done := make(chan tea.Msg, 1)
	go func() { done <- oldWatch() }()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("abandoned watch command never returned")
	}
}

func TestTruncate(t *testing.T) {
	t.Run("ShortPassesThrough", func(t *testing.T) {
		assert.Equal(t, "phone", truncate("phone", 32))
	})

	t.Run("LongIsShortened", func(t *testing.T) {
		assert.Equal(t, "abcde...", truncate("abcdefghij", 8))
	})

	t.Run("MultibyteNameStaysValid", func(t *testing.T) {
		got := truncate("胡桃木书桌超大号家用办公", 8)
		assert.Equal(t, "胡桃木书桌...", got)
		assert.True(t, utf8.ValidString(got))
	})
}
