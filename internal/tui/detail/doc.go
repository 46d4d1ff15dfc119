// Package detail renders a single product, loaded lazily when the view
// is activated.
//
// The first snapshot may carry a provisional row seeded from a cached
// list: it renders instantly, marked as refreshing, while the
// confirming fetch runs in the background. Errors render inline with a
// keyboard retry ('r') instead of tearing the view down.
package detail
