/*
Package catalog holds the in-memory image set: every indexed file with
its metadata and tag assignments, in canonical order (watched root
registration sequence, then path). The catalog is rebuilt from the
database on load and rescan; between rebuilds, tag mutations are
applied to both stores so reads never require a database round trip.

Like tagstore, the catalog does no locking of its own. The engine owns
it behind its mutex.
*/
package catalog
