package cli

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClip(t *testing.T) {
	t.Run("ShortPassesThrough", func(t *testing.T) {
		assert.Equal(t, "phone", clip("phone", 32))
	})

	t.Run("LongIsShortened", func(t *testing.T) {
		got := clip("abcdefghij", 8)
		assert.Equal(t, "abcde...", got)
	})

	t.Run("MultibyteNameStaysValid", func(t *testing.T) {
		got := clip("胡桃木书桌超大号家用办公", 8)
		assert.Equal(t, "胡桃木书桌...", got)
		assert.True(t, utf8.ValidString(got))
	})
}
