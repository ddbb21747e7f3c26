// Package indexer keeps the image catalog in sync with the watched roots.
//
// A full scan walks every watched directory recursively, upserts the
// image files it finds, and prunes rows for files that are gone. Files
// whose size and mtime are unchanged keep their stored metadata; the
// upsert still refreshes their last-seen stamp so pruning stays correct.
//
// Between full scans a lightweight poll watches each root for changes
// (root mtime, top-level entry count, a sample of subdirectory mtimes)
// and triggers a rescan when something moved. Recursive walks on every
// poll tick are avoided; NFS mounts make those expensive.
//
// One full scan runs at a time; the HTTP layer reports 409 for a manual
// rescan requested while one is in flight. Single-root scans kicked off
// by directory adds run independently and never block on the full pass.
//
// Hidden files and directories (prefixed with '.') are excluded.
package indexer
