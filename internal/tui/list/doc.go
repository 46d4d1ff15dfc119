// Package listview renders the product catalog as an interactive table.
//
// The model is a read-through consumer of the query layer: every snapshot
// comes from the (products, [keyword]) cache entry, so stale rows render
// immediately while a background refetch runs, and a store notification
// triggers a re-snapshot rather than any direct network activity here.
package listview
