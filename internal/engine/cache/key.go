package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// keySeparator joins key parts in the canonical encoding. Params carry
// arbitrary user input (search keywords), so any separator or escape
// byte inside a param is escaped before joining; the encoding is
// injective and distinct keys can never collide once serialized.
const (
	keySeparator = "\x1f"
	keyEscape    = "\x10"
)

var paramEscaper = strings.NewReplacer(
	keyEscape, keyEscape+keyEscape,
	keySeparator, keyEscape+keySeparator,
)

// Key identifies one fetchable resource-plus-parameters combination,
// e.g. (products, ["phone"]) or (session, []). Keys are immutable and
// equality is structural: equal resource and equal ordered params mean
// the same key regardless of how the value was constructed.
type Key struct {
	resource string
	params   []string
}

// NewKey builds a key from a resource name and primitive params.
// Supported param kinds are strings, integers and bools; anything else
// falls back to its fmt representation, which is deterministic for the
// primitives this layer carries.
func NewKey(resource string, params ...any) Key {
	canonical := make([]string, len(params))
	for i, p := range params {
		canonical[i] = canonicalParam(p)
	}
	return Key{resource: resource, params: canonical}
}

// Resource returns the key's resource family ("products", "session", ...).
func (k Key) Resource() string { return k.resource }

// Params returns the canonical param strings. The slice is a copy;
// keys stay immutable.
func (k Key) Params() []string {
	out := make([]string, len(k.params))
	copy(out, k.params)
	return out
}

// String returns the canonical serialization used as a map key.
func (k Key) String() string {
	if len(k.params) == 0 {
		return k.resource
	}
	parts := make([]string, 0, len(k.params)+1)
	parts = append(parts, k.resource)
	for _, p := range k.params {
		parts = append(parts, paramEscaper.Replace(p))
	}
	return strings.Join(parts, keySeparator)
}

// Equal reports structural equality.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// canonicalParam converts one primitive to its canonical string form.
func canonicalParam(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
