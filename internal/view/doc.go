/*
Package view computes the visible image list: the catalog filtered by
the active tag states and ordered by the current sort key.

The predicate is intersection-based: an image is visible when it bears
at least one whitelisted tag (or the whitelist is empty) and none of
the blacklisted tags. The untagged pseudo-filter is consulted first;
when it does not decide, the whitelist and blacklist checks apply
unchanged.

The package is pure: no state, no locking. The engine recomputes the
view under its mutex after every mutation.
*/
package view
