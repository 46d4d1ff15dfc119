// Package money handles product prices in minor currency units.
//
// The backend transmits and the cache stores prices as integer fen
// (1/100 yuan). Conversion to a display string happens only at render
// time, so repeated read/format cycles are lossless.
package money

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount is a price in minor units (fen). It is the only representation
// the synchronization layer ever caches.
type Amount int64

// Parse errors.
var (
	ErrEmptyPrice     = errors.New("price cannot be empty")
	ErrNegativePrice  = errors.New("price cannot be negative")
	ErrMalformedPrice = errors.New("price must be a number with at most two decimals")
)

// printer renders grouped integer parts ("1,234") for large amounts.
var printer = message.NewPrinter(language.SimplifiedChinese) //nolint:gochecknoglobals // Stateless formatter shared by all renders

// Parse converts a user-entered major-unit string such as "19.99" into
// minor units (1999). At most two decimal places are accepted; "19.9"
// means 19.90.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyPrice
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativePrice
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrMalformedPrice
	}
	// Right-pad the fraction so "9" and "90" both mean 90 fen.
	frac += strings.Repeat("0", 2-len(frac))

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrMalformedPrice
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrMalformedPrice
	}

	return Amount(major*100 + minor), nil
}

// String renders the amount as yuan with the ¥ sign, e.g. "¥19.99".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return printer.Sprintf("%s¥%d.%02d", sign, v/100, v%100)
}

// Major returns the amount in major units, for JSON output that wants a
// decimal number rather than a display string.
func (a Amount) Major() float64 {
	return float64(a) / 100
}

// Validate rejects amounts the backend would refuse.
//
// Note: Amount deliberately has no MarshalJSON/MarshalText — the wire
// format is the raw integer, and only renders call String.
func (a Amount) Validate() error {
	if a < 0 {
		return ErrNegativePrice
	}
	return nil
}
