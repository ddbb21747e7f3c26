// Package engine ties the catalog, tag filters, view, selection, and
// thumbnail cache together behind a single lock.
//
// The engine owns the in-memory state of the application: which images
// exist, which tag filters are active, what the visible ordering is, and
// what the user has selected. All mutations funnel through it so that the
// visible view and the selection are recomputed together and never drift
// apart. Persistence (tags, directories, sort preferences, thumbnail
// dimensions) is written through to the database as part of the mutation
// that caused it.
package engine
